// Package totals computes invoice financials. It is the single source of
// truth for line amounts and aggregate totals: the API recomputes every
// figure through this package before persisting, and any editing surface
// that wants a live preview must run the same math.
package totals

// Line is a single invoice line as far as the math is concerned.
// Zero values are fine; drafts routinely carry empty lines.
type Line struct {
	Quantity float64
	Rate     float64
}

// Breakdown holds the computed financials for one invoice.
type Breakdown struct {
	// Amounts holds quantity*rate per line, in input order.
	Amounts   []float64
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// Amount returns the line amount for a single line.
func Amount(l Line) float64 {
	return l.Quantity * l.Rate
}

// Compute derives the full breakdown from the lines, a tax percentage and
// an absolute discount. The total is not clamped: a discount larger than
// subtotal+tax yields a negative total and that is accepted as-is.
// Values keep full float64 precision; rounding to two decimals happens
// only when formatting for display.
func Compute(lines []Line, taxPercentage, discount float64) Breakdown {
	b := Breakdown{Amounts: make([]float64, len(lines))}
	for i, l := range lines {
		b.Amounts[i] = Amount(l)
		b.Subtotal += b.Amounts[i]
	}
	b.TaxAmount = b.Subtotal * taxPercentage / 100
	b.Total = b.Subtotal + b.TaxAmount - discount
	return b
}

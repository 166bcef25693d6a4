package totals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScenario(t *testing.T) {
	// 2x100 + 1x50, 10% tax, 20 off
	b := Compute([]Line{
		{Quantity: 2, Rate: 100},
		{Quantity: 1, Rate: 50},
	}, 10, 20)

	assert.Equal(t, []float64{200, 50}, b.Amounts)
	assert.Equal(t, 250.0, b.Subtotal)
	assert.Equal(t, 25.0, b.TaxAmount)
	assert.Equal(t, 255.0, b.Total)
}

func TestComputeEmptyLines(t *testing.T) {
	b := Compute(nil, 18, 0)
	assert.Empty(t, b.Amounts)
	assert.Equal(t, 0.0, b.Subtotal)
	assert.Equal(t, 0.0, b.TaxAmount)
	assert.Equal(t, 0.0, b.Total)
}

func TestComputeZeroValueLinesTolerated(t *testing.T) {
	// Drafts carry half-filled lines; missing quantity or rate count as 0.
	b := Compute([]Line{
		{},
		{Quantity: 3},
		{Rate: 9.99},
	}, 5, 0)
	assert.Equal(t, []float64{0, 0, 0}, b.Amounts)
	assert.Equal(t, 0.0, b.Total)
}

func TestComputeNegativeTotalNotClamped(t *testing.T) {
	b := Compute([]Line{{Quantity: 1, Rate: 100}}, 0, 150)
	assert.Equal(t, -50.0, b.Total)
}

func TestComputeOrderIndependentSubtotal(t *testing.T) {
	lines := []Line{
		{Quantity: 2, Rate: 19.5},
		{Quantity: 7, Rate: 3.25},
		{Quantity: 1, Rate: 0.01},
	}
	reversed := []Line{lines[2], lines[1], lines[0]}

	assert.InDelta(t, Compute(lines, 16, 5).Subtotal, Compute(reversed, 16, 5).Subtotal, 1e-9)
}

func TestComputeNoRounding(t *testing.T) {
	// Internal values keep full precision; 0.1*3 is not 0.3 exactly and
	// the calculator must not paper over that.
	b := Compute([]Line{{Quantity: 3, Rate: 0.1}}, 0, 0)
	assert.Equal(t, 3*0.1, b.Subtotal)
}

func TestAmount(t *testing.T) {
	assert.Equal(t, 37.5, Amount(Line{Quantity: 2.5, Rate: 15}))
	assert.Equal(t, 0.0, Amount(Line{Quantity: 4}))
}

package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/entity"
)

const (
	pageMargin   = 15.0
	contentWidth = 210.0 - 2*pageMargin
	logoWidth    = 40.0
	qrSize       = 30.0
	dateLayout   = "Jan 2, 2006"
)

// Renderer turns invoices into A4 PDF documents. It is safe for
// concurrent use and never mutates the invoice it renders.
type Renderer struct {
	client       *http.Client
	companyName  string
	defaultNotes string
}

// NewRenderer creates a renderer. The HTTP client is used to fetch
// logo and QR images referenced by URL.
func NewRenderer(client *http.Client, companyName, defaultNotes string) *Renderer {
	if client == nil {
		client = http.DefaultClient
	}
	if companyName == "" {
		companyName = "SWIFT INVOICE"
	}
	if defaultNotes == "" {
		defaultNotes = "Thank you for your business!"
	}
	return &Renderer{
		client:       client,
		companyName:  companyName,
		defaultNotes: defaultNotes,
	}
}

// Render produces the PDF document for an invoice.
func (r *Renderer) Render(inv *entity.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	if err := r.drawHeader(pdf, inv); err != nil {
		return nil, err
	}
	r.drawParties(pdf, inv)
	r.drawItems(pdf, inv)
	r.drawTotals(pdf, inv)
	if err := r.drawFooter(pdf, inv); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf, inv *entity.Invoice) error {
	leftBottom := pageMargin
	if inv.Sender.Logo != "" {
		h, err := r.placeImage(pdf, inv.Sender.Logo, pageMargin, pageMargin, logoWidth, 0)
		if err != nil {
			return err
		}
		leftBottom += h + 4
	}

	name := inv.Sender.CompanyName
	if name == "" {
		name = r.companyName
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(pageMargin, leftBottom)
	pdf.CellFormat(100, 8, name, "", 0, "L", false, 0, "")
	leftBottom += 8

	const rightX, rightW = 115.0, 80.0
	pdf.SetXY(rightX, pageMargin)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(rightW, 10, "INVOICE", "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(rightW, 6, "#"+inv.InvoiceNumber, "", 2, "R", false, 0, "")
	pdf.CellFormat(rightW, 6, "Date: "+inv.IssueDate.Format(dateLayout), "", 2, "R", false, 0, "")
	due := "N/A"
	if inv.DueDate != nil {
		due = inv.DueDate.Format(dateLayout)
	}
	pdf.CellFormat(rightW, 6, "Due: "+due, "", 2, "R", false, 0, "")
	rightBottom := pageMargin + 10 + 3*6

	bottom := leftBottom
	if rightBottom > bottom {
		bottom = rightBottom
	}
	pdf.SetY(bottom + 14)
	return nil
}

func (r *Renderer) drawParties(pdf *gofpdf.Fpdf, inv *entity.Invoice) {
	top := pdf.GetY()
	const colW = 85.0

	sectionTitle(pdf, pageMargin, top, colW, "BILLED TO", "L")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colW, 6, inv.Client.Name, "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(colW, 6, inv.Client.Email, "", 2, "L", false, 0, "")
	if inv.Client.Address != "" {
		pdf.MultiCell(colW, 5, inv.Client.Address, "", "L", false)
	}
	leftBottom := pdf.GetY()

	rightX := 210 - pageMargin - colW
	sectionTitle(pdf, rightX, top, colW, "PAY TO", "R")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colW, 6, inv.Sender.Name, "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(colW, 6, inv.Sender.Email, "", 2, "R", false, 0, "")
	if inv.Sender.Address != "" {
		pdf.SetX(rightX)
		pdf.MultiCell(colW, 5, inv.Sender.Address, "", "R", false)
	}

	bottom := pdf.GetY()
	if leftBottom > bottom {
		bottom = leftBottom
	}
	pdf.SetY(bottom + 12)
}

func (r *Renderer) drawItems(pdf *gofpdf.Fpdf, inv *entity.Invoice) {
	widths := [4]float64{90, 20, 35, 35}
	aligns := [4]string{"L", "C", "R", "R"}
	headers := [4]string{"DESCRIPTION", "QTY", "RATE", "AMOUNT"}

	pdf.SetX(pageMargin)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "B", 8)
	for i := range headers {
		pdf.CellFormat(widths[i], 8, headers[i], "B", 0, aligns[i], false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetDrawColor(230, 230, 230)
	pdf.SetLineWidth(0.2)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range inv.Items {
		cols := [4]string{
			item.Description,
			formatNumber(item.Quantity),
			fmt.Sprintf("%.2f", item.Rate),
			fmt.Sprintf("%.2f", item.Amount),
		}
		for i := range cols {
			pdf.CellFormat(widths[i], 8, cols[i], "B", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(8)
}

func (r *Renderer) drawTotals(pdf *gofpdf.Fpdf, inv *entity.Invoice) {
	const blockW = 65.0
	x := 210 - pageMargin - blockW

	totalRow := func(label, value string) {
		pdf.SetX(x)
		pdf.CellFormat(blockW/2, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(blockW/2, 7, value, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	totalRow("Subtotal", fmt.Sprintf("%.2f", inv.Subtotal))

	if inv.TaxPercentage > 0 {
		label := inv.TaxName
		if label == "" {
			label = "Tax"
		}
		totalRow(label+" ("+formatNumber(inv.TaxPercentage)+"%)", fmt.Sprintf("%.2f", inv.TaxAmount))
	}

	pdf.SetX(x)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(x, pdf.GetY()+1, x+blockW, pdf.GetY()+1)
	pdf.Ln(3)
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(blockW/2, 9, "Grand Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(blockW/2, 9, inv.Currency+" "+fmt.Sprintf("%.2f", inv.TotalAmount), "", 1, "R", false, 0, "")
}

func (r *Renderer) drawFooter(pdf *gofpdf.Fpdf, inv *entity.Invoice) error {
	top := pdf.GetY() + 16
	const notesW = 110.0

	sectionTitle(pdf, pageMargin, top, notesW, "NOTES / TERMS", "L")
	notes := inv.Notes
	if notes == "" {
		notes = r.defaultNotes
	}
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(notesW, 5, notes, "", "L", false)
	if inv.PaymentQr != "" {
		pdf.Ln(2)
		pdf.SetX(pageMargin)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(notesW, 5, "UPI ID: "+inv.PaymentQr, "", 1, "L", false, 0, "")
	}

	// Old rows carry their QR in the legacy column.
	qr := inv.QrCodeImage
	if qr == "" {
		qr = inv.QrImageUrl
	}
	if qr != "" {
		qrX := 210 - pageMargin - qrSize
		sectionTitle(pdf, qrX, top, qrSize, "SCAN TO PAY", "C")
		if _, err := r.placeImage(pdf, qr, qrX, top+7, qrSize, qrSize); err != nil {
			return err
		}
	}
	return nil
}

// placeImage registers and draws an image, returning the rendered
// height. When h is zero the aspect ratio is preserved.
func (r *Renderer) placeImage(pdf *gofpdf.Fpdf, src string, x, y, w, h float64) (float64, error) {
	data, imgType, err := r.loadImage(src)
	if err != nil {
		return 0, err
	}
	opts := gofpdf.ImageOptions{ImageType: imgType}
	info := pdf.RegisterImageOptionsReader(src, opts, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	if h == 0 {
		iw, ih := info.Extent()
		h = w * ih / iw
	}
	pdf.ImageOptions(src, x, y, w, h, false, opts, 0, "")
	return h, pdf.Error()
}

func (r *Renderer) loadImage(src string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		resp, err := r.client.Get(src)
		if err != nil {
			return nil, "", fmt.Errorf("fetch image: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read image: %w", err)
		}
		imgType, err := sniffImageType(data)
		if err != nil {
			return nil, "", err
		}
		return data, imgType, nil
	}
	return nil, "", fmt.Errorf("unsupported image source scheme")
}

func decodeDataURI(src string) ([]byte, string, error) {
	idx := strings.IndexByte(src, ',')
	if idx < 0 || !strings.Contains(src[:idx], ";base64") {
		return nil, "", fmt.Errorf("malformed image data URI")
	}
	data, err := base64.StdEncoding.DecodeString(src[idx+1:])
	if err != nil {
		return nil, "", fmt.Errorf("decode image data URI: %w", err)
	}
	imgType, err := sniffImageType(data)
	if err != nil {
		return nil, "", err
	}
	return data, imgType, nil
}

func sniffImageType(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "PNG", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return "JPG", nil
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "GIF", nil
	}
	return "", fmt.Errorf("unsupported image format")
}

func sectionTitle(pdf *gofpdf.Fpdf, x, y, w float64, title, align string) {
	pdf.SetXY(x, y)
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(w, 5, title, "", 2, align, false, 0, "")
	pdf.Ln(1)
	pdf.SetX(x)
}

// formatNumber prints a quantity or percentage without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

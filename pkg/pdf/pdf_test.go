package pdf

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/entity"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/enum"
)

// 1x1 transparent PNG
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

var tinyPNGBytes = func() []byte {
	data, _, err := decodeDataURI("data:image/png;base64," + tinyPNG)
	if err != nil {
		panic(err)
	}
	return data
}()

func sampleInvoice() *entity.Invoice {
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	return &entity.Invoice{
		InvoiceNumber: "INV-AB12CD34",
		Status:        enum.InvoiceStatusPending,
		Sender: entity.Sender{
			Name:  "Acme Studio",
			Email: "billing@acme.test",
		},
		Client: entity.Client{
			Name:    "Jordan Lee",
			Email:   "jordan@client.test",
			Address: "42 Harbor Road\nPortsmouth",
		},
		Items: []entity.InvoiceItem{
			{Description: "Design work", Quantity: 2, Rate: 100, Amount: 200},
			{Description: "Hosting", Quantity: 1, Rate: 50, Amount: 50},
		},
		Subtotal:      250,
		TaxName:       "GST",
		TaxPercentage: 10,
		TaxAmount:     25,
		TotalAmount:   275,
		Currency:      "USD",
		IssueDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer(nil, "", "")

	out, err := r.Render(sampleInvoice())

	require.NoError(t, err)
	assert.True(t, len(out) > 500)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderMinimalInvoice(t *testing.T) {
	r := NewRenderer(nil, "", "")
	inv := sampleInvoice()
	inv.Items = nil
	inv.DueDate = nil
	inv.TaxPercentage = 0
	inv.Notes = ""

	out, err := r.Render(inv)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderWithDataURIImages(t *testing.T) {
	r := NewRenderer(nil, "", "")
	inv := sampleInvoice()
	inv.Sender.Logo = "data:image/png;base64," + tinyPNG
	inv.QrCodeImage = "data:image/png;base64," + tinyPNG
	inv.PaymentQr = "acme@upi"

	out, err := r.Render(inv)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderFetchesImageOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(tinyPNGBytes)
	}))
	defer srv.Close()

	r := NewRenderer(srv.Client(), "", "")
	inv := sampleInvoice()
	inv.Sender.Logo = srv.URL + "/logo.png"

	out, err := r.Render(inv)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderFailsOnUnfetchableImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewRenderer(srv.Client(), "", "")
	inv := sampleInvoice()
	inv.Sender.Logo = srv.URL + "/missing.png"

	_, err := r.Render(inv)

	assert.Error(t, err)
}

func TestRenderFailsOnMalformedDataURI(t *testing.T) {
	r := NewRenderer(nil, "", "")
	inv := sampleInvoice()
	inv.QrCodeImage = "data:image/png;base64,!!!not-base64!!!"

	_, err := r.Render(inv)

	assert.Error(t, err)
}

func TestRenderUsesLegacyQrColumn(t *testing.T) {
	r := NewRenderer(nil, "", "")
	inv := sampleInvoice()
	inv.QrCodeImage = ""
	inv.QrImageUrl = "data:image/png;base64," + tinyPNG

	out, err := r.Render(inv)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestSniffImageType(t *testing.T) {
	imgType, err := sniffImageType(tinyPNGBytes)
	require.NoError(t, err)
	assert.Equal(t, "PNG", imgType)

	imgType, err = sniffImageType([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	require.NoError(t, err)
	assert.Equal(t, "JPG", imgType)

	_, err = sniffImageType([]byte("not an image"))
	assert.Error(t, err)
}

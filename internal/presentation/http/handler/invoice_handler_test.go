package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftinvoice/swift-invoice-api/internal/application/service"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/entity"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/enum"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/repository"
)

type memInvoiceRepo struct {
	invoices map[uuid.UUID]*entity.Invoice
	items    map[uuid.UUID][]entity.InvoiceItem
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{
		invoices: make(map[uuid.UUID]*entity.Invoice),
		items:    make(map[uuid.UUID][]entity.InvoiceItem),
	}
}

func (r *memInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	items := invoice.Items
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].InvoiceID = invoice.ID
	}
	r.items[invoice.ID] = items

	stored := *invoice
	stored.Items = nil
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *memInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *memInvoiceRepo) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	inv, err := r.GetByID(ctx, id)
	if inv == nil || err != nil {
		return inv, err
	}
	items := append([]entity.InvoiceItem(nil), r.items[id]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	inv.Items = items
	return inv, nil
}

func (r *memInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	stored := *invoice
	stored.Items = nil
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *memInvoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.InvoiceStatus) error {
	inv, ok := r.invoices[id]
	if !ok {
		return nil
	}
	inv.Status = status
	return nil
}

func (r *memInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.invoices, id)
	delete(r.items, id)
	return nil
}

func (r *memInvoiceRepo) List(ctx context.Context, userID uuid.UUID, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var out []entity.Invoice
	for id, inv := range r.invoices {
		if inv.UserID == nil || *inv.UserID != userID {
			continue
		}
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		cp := *inv
		cp.Items = r.items[id]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, int64(len(out)), nil
}

func (r *memInvoiceRepo) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []entity.InvoiceItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].InvoiceID = invoiceID
		items[i].Position = i
	}
	r.items[invoiceID] = items
	return nil
}

type stubRenderer struct{}

func (stubRenderer) Render(inv *entity.Invoice) ([]byte, error) {
	return []byte("%PDF-1.3 stub"), nil
}

type stubMailer struct{}

func (stubMailer) SendInvoiceEmail(toEmail, clientName, invoiceNumber string, pdf []byte) error {
	return nil
}

func setUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newTestRouter(repo *memInvoiceRepo, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewInvoiceHandler(service.NewInvoiceService(repo, stubRenderer{}, stubMailer{}))

	router := gin.New()
	invoices := router.Group("/invoices", setUser(userID))
	{
		invoices.GET("", h.List)
		invoices.POST("", h.Create)
		invoices.GET("/:id", h.Get)
		invoices.PUT("/:id", h.Update)
		invoices.DELETE("/:id", h.Delete)
		invoices.PATCH("/:id/status", h.UpdateStatus)
		invoices.GET("/:id/download", h.Download)
		invoices.POST("/:id/send", h.Send)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func invoicePayload() map[string]interface{} {
	return map[string]interface{}{
		"invoiceNumber": "INV-100",
		"sender":        map[string]interface{}{"name": "Acme", "email": "acme@example.com"},
		"client":        map[string]interface{}{"name": "Bob", "email": "bob@example.com"},
		"items": []map[string]interface{}{
			{"description": "Design", "quantity": 10, "rate": 25},
		},
		"taxPercentage": 10,
		"discount":      5,
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateInvoiceRecomputesTotals(t *testing.T) {
	userID := uuid.New()
	router := newTestRouter(newMemInvoiceRepo(), userID)

	payload := invoicePayload()
	// Caller-supplied aggregates must be ignored
	payload["subtotal"] = 1
	payload["totalAmount"] = 1

	w := doJSON(t, router, http.MethodPost, "/invoices", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.True(t, body["success"].(bool))

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "INV-100", data["invoiceNumber"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, 250.0, data["subtotal"])
	assert.Equal(t, 25.0, data["taxAmount"])
	assert.Equal(t, 270.0, data["totalAmount"])

	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, 250.0, items[0].(map[string]interface{})["amount"])
}

func TestCreateInvoiceAsGuest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newMemInvoiceRepo()
	h := NewInvoiceHandler(service.NewInvoiceService(repo, stubRenderer{}, stubMailer{}))

	// No auth middleware on create: anonymous callers get a guest record.
	router := gin.New()
	router.POST("/invoices", h.Create)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	_, hasOwner := data["userId"]
	assert.False(t, hasOwner)

	// Guest invoices stay readable by any authenticated caller.
	authRouter := newTestRouter(repo, uuid.New())
	w = doJSON(t, authRouter, http.MethodGet, "/invoices/"+data["id"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateInvoiceMissingClientDetails(t *testing.T) {
	router := newTestRouter(newMemInvoiceRepo(), uuid.New())

	payload := invoicePayload()
	payload["client"] = map[string]interface{}{"name": "Bob"}

	w := doJSON(t, router, http.MethodPost, "/invoices", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Client name and email are required", decodeBody(t, w)["message"])
}

func TestCreateInvoiceWithoutItems(t *testing.T) {
	router := newTestRouter(newMemInvoiceRepo(), uuid.New())

	payload := invoicePayload()
	payload["items"] = []map[string]interface{}{}

	w := doJSON(t, router, http.MethodPost, "/invoices", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invoice must have at least one item", decodeBody(t, w)["message"])
}

func TestGetInvoiceNotFound(t *testing.T) {
	router := newTestRouter(newMemInvoiceRepo(), uuid.New())

	w := doJSON(t, router, http.MethodGet, "/invoices/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetInvoiceInvalidID(t *testing.T) {
	router := newTestRouter(newMemInvoiceRepo(), uuid.New())

	w := doJSON(t, router, http.MethodGet, "/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInvoiceOwnedByAnotherUser(t *testing.T) {
	repo := newMemInvoiceRepo()
	owner := uuid.New()
	router := newTestRouter(repo, owner)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	otherRouter := newTestRouter(repo, uuid.New())
	w = doJSON(t, otherRouter, http.MethodGet, "/invoices/"+id, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized", decodeBody(t, w)["message"])
}

func TestUpdateInvoiceRecomputesTotals(t *testing.T) {
	repo := newMemInvoiceRepo()
	userID := uuid.New()
	router := newTestRouter(repo, userID)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	payload := invoicePayload()
	payload["items"] = []map[string]interface{}{
		{"description": "Design", "quantity": 2, "rate": 50},
	}
	payload["taxPercentage"] = 0
	payload["discount"] = 0

	w = doJSON(t, router, http.MethodPut, "/invoices/"+id, payload)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 100.0, data["subtotal"])
	assert.Equal(t, 100.0, data["totalAmount"])
}

func TestDeleteInvoice(t *testing.T) {
	repo := newMemInvoiceRepo()
	userID := uuid.New()
	router := newTestRouter(repo, userID)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	w = doJSON(t, router, http.MethodDelete, "/invoices/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Invoice removed", decodeBody(t, w)["message"])

	w = doJSON(t, router, http.MethodGet, "/invoices/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemInvoiceRepo()
	userID := uuid.New()
	router := newTestRouter(repo, userID)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	w = doJSON(t, router, http.MethodPatch, "/invoices/"+id+"/status", map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "paid", data["status"])

	w = doJSON(t, router, http.MethodPatch, "/invoices/"+id+"/status", map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadInvoice(t *testing.T) {
	repo := newMemInvoiceRepo()
	userID := uuid.New()
	router := newTestRouter(repo, userID)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	w = doJSON(t, router, http.MethodGet, "/invoices/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=invoice-INV-100.pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestSendInvoice(t *testing.T) {
	repo := newMemInvoiceRepo()
	userID := uuid.New()
	router := newTestRouter(repo, userID)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/invoices/"+id+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Invoice sent successfully", decodeBody(t, w)["message"])
}

func TestListInvoicesScopedToUser(t *testing.T) {
	repo := newMemInvoiceRepo()
	userID := uuid.New()
	router := newTestRouter(repo, userID)

	w := doJSON(t, router, http.MethodPost, "/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	otherRouter := newTestRouter(repo, uuid.New())
	payload := invoicePayload()
	payload["invoiceNumber"] = "INV-200"
	w = doJSON(t, otherRouter, http.MethodPost, "/invoices", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "INV-100", items[0].(map[string]interface{})["invoiceNumber"])
}

func TestListInvoicesInvalidStatus(t *testing.T) {
	router := newTestRouter(newMemInvoiceRepo(), uuid.New())

	w := doJSON(t, router, http.MethodGet, "/invoices?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewInvoiceHandler(service.NewInvoiceService(newMemInvoiceRepo(), stubRenderer{}, stubMailer{}))

	router := gin.New()
	router.GET("/invoices", h.List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/entity"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/enum"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/repository"
	"github.com/swiftinvoice/swift-invoice-api/pkg/apperror"
	"github.com/swiftinvoice/swift-invoice-api/pkg/pagination"
	"github.com/swiftinvoice/swift-invoice-api/pkg/totals"
	"github.com/swiftinvoice/swift-invoice-api/pkg/utils"
)

// InvoiceRenderer produces the PDF document for an invoice.
type InvoiceRenderer interface {
	Render(inv *entity.Invoice) ([]byte, error)
}

// InvoiceMailer delivers a rendered invoice to a recipient.
type InvoiceMailer interface {
	SendInvoiceEmail(toEmail, clientName, invoiceNumber string, pdf []byte) error
}

// InvoiceService handles invoice-related operations
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	renderer    InvoiceRenderer
	mailer      InvoiceMailer
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	renderer InvoiceRenderer,
	mailer InvoiceMailer,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		renderer:    renderer,
		mailer:      mailer,
	}
}

// InvoiceItemInput represents a line item input
type InvoiceItemInput struct {
	Description string
	Quantity    float64
	Rate        float64
}

// InvoiceInput represents the editable fields of an invoice. Totals
// are never taken from the caller; they are recomputed on every save.
type InvoiceInput struct {
	InvoiceNumber string
	IsDraft       bool
	Sender        entity.Sender
	Client        entity.Client
	Items         []InvoiceItemInput
	TaxName       string
	TaxPercentage float64
	Discount      float64
	Currency      string
	IssueDate     time.Time
	DueDate       *time.Time
	PaymentTerms  string
	Notes         string
	PaymentQr     string
	QrCodeImage   string
}

// CreateInvoiceInput represents the input for creating an invoice
type CreateInvoiceInput struct {
	UserID *uuid.UUID
	InvoiceInput
}

// validateInput enforces the non-draft content rules. Drafts may be
// saved with anything, including no items or parties at all.
func validateInput(input *InvoiceInput) error {
	if input.IsDraft {
		return nil
	}
	if len(input.Items) == 0 {
		return apperror.NewBadRequestError("Invoice must have at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return apperror.NewBadRequestError("Item quantity must be greater than 0")
		}
		if item.Rate < 0 {
			return apperror.NewBadRequestError("Item rate cannot be negative")
		}
	}
	if input.Sender.Name == "" || input.Sender.Email == "" {
		return apperror.NewBadRequestError("Sender name and email are required")
	}
	if input.Client.Name == "" || input.Client.Email == "" {
		return apperror.NewBadRequestError("Client name and email are required")
	}
	return nil
}

// applyInput copies editable fields onto the invoice and recomputes
// every derived financial field.
func applyInput(inv *entity.Invoice, input *InvoiceInput) {
	lines := make([]totals.Line, len(input.Items))
	for i, in := range input.Items {
		lines[i] = totals.Line{Quantity: in.Quantity, Rate: in.Rate}
	}
	breakdown := totals.Compute(lines, input.TaxPercentage, input.Discount)

	items := make([]entity.InvoiceItem, len(input.Items))
	for i, in := range input.Items {
		items[i] = entity.InvoiceItem{
			Position:    i,
			Description: in.Description,
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			Amount:      breakdown.Amounts[i],
		}
	}

	inv.InvoiceNumber = input.InvoiceNumber
	inv.IsDraft = input.IsDraft
	inv.Sender = input.Sender
	inv.Client = input.Client
	inv.Items = items
	inv.Subtotal = breakdown.Subtotal
	inv.TaxName = input.TaxName
	inv.TaxPercentage = input.TaxPercentage
	inv.TaxAmount = breakdown.TaxAmount
	inv.Discount = input.Discount
	inv.TotalAmount = breakdown.Total
	inv.Currency = input.Currency
	inv.IssueDate = input.IssueDate
	inv.DueDate = input.DueDate
	inv.PaymentTerms = input.PaymentTerms
	inv.Notes = input.Notes
	inv.PaymentQr = input.PaymentQr
	inv.QrCodeImage = input.QrCodeImage
}

// CreateInvoice creates a new invoice. Status always starts at
// pending; only the status operation can change it.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	if err := validateInput(&input.InvoiceInput); err != nil {
		return nil, err
	}

	if input.InvoiceNumber == "" {
		input.InvoiceNumber = utils.GenerateInvoiceNumber()
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if input.IssueDate.IsZero() {
		input.IssueDate = time.Now()
	}

	invoice := &entity.Invoice{
		UserID: input.UserID,
		Status: enum.InvoiceStatusPending,
	}
	applyInput(invoice, &input.InvoiceInput)

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetWithItems(ctx, invoice.ID)
}

// GetInvoice retrieves an invoice by ID, enforcing ownership
func (s *InvoiceService) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != nil && !invoice.IsOwnedBy(userID) {
		return nil, apperror.ErrNotAuthorized
	}
	return invoice, nil
}

// ListInvoicesInput represents the input for listing invoices
type ListInvoicesInput struct {
	UserID     uuid.UUID
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.InvoiceStatus
}

// ListInvoices lists the caller's invoices, most recently updated first
func (s *InvoiceService) ListInvoices(ctx context.Context, input *ListInvoicesInput) (*pagination.PaginatedResult[entity.Invoice], error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	input.Pagination.Validate()

	params := &repository.InvoiceFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		Status:     input.Status,
	}

	invoices, total, err := s.invoiceRepo.List(ctx, input.UserID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// UpdateInvoiceInput represents the input for updating an invoice
type UpdateInvoiceInput struct {
	UserID uuid.UUID
	ID     uuid.UUID
	InvoiceInput
}

// UpdateInvoice replaces the editable fields of an invoice and
// recomputes its totals. Ownership and id never change.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, input *UpdateInvoiceInput) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != nil && !invoice.IsOwnedBy(input.UserID) {
		return nil, apperror.ErrNotAuthorized
	}

	if err := validateInput(&input.InvoiceInput); err != nil {
		return nil, err
	}

	if input.InvoiceNumber == "" {
		input.InvoiceNumber = invoice.InvoiceNumber
	}
	if input.Currency == "" {
		input.Currency = invoice.Currency
	}
	if input.IssueDate.IsZero() {
		input.IssueDate = invoice.IssueDate
	}

	applyInput(invoice, &input.InvoiceInput)
	items := invoice.Items
	invoice.Items = nil

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.ReplaceItems(ctx, invoice.ID, items); err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetWithItems(ctx, invoice.ID)
}

// DeleteInvoice deletes an invoice, enforcing ownership
func (s *InvoiceService) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != nil && !invoice.IsOwnedBy(userID) {
		return apperror.ErrNotAuthorized
	}

	return s.invoiceRepo.Delete(ctx, id)
}

// UpdateInvoiceStatus changes only the status field of an invoice
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, userID, id uuid.UUID, status enum.InvoiceStatus) (*entity.Invoice, error) {
	if !status.Valid() {
		return nil, apperror.NewBadRequestError("Invalid invoice status")
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != nil && !invoice.IsOwnedBy(userID) {
		return nil, apperror.ErrNotAuthorized
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetWithItems(ctx, id)
}

// DownloadInvoice renders an invoice to PDF and returns the document
// bytes together with the download filename.
func (s *InvoiceService) DownloadInvoice(ctx context.Context, userID, id uuid.UUID) ([]byte, string, error) {
	invoice, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	pdf, err := s.renderer.Render(invoice)
	if err != nil {
		return nil, "", apperror.NewRenderError(err)
	}

	filename := fmt.Sprintf("invoice-%s.pdf", invoice.InvoiceNumber)
	return pdf, filename, nil
}

// SendInvoice renders an invoice and emails it to the client address
func (s *InvoiceService) SendInvoice(ctx context.Context, userID, id uuid.UUID) error {
	invoice, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return err
	}
	if invoice.Client.Email == "" {
		return apperror.NewBadRequestError("Invoice has no client email address")
	}

	pdf, err := s.renderer.Render(invoice)
	if err != nil {
		return apperror.NewRenderError(err)
	}

	if err := s.mailer.SendInvoiceEmail(invoice.Client.Email, invoice.Client.Name, invoice.InvoiceNumber, pdf); err != nil {
		return apperror.NewAppError(http.StatusInternalServerError, "Failed to send invoice email: "+err.Error())
	}

	return nil
}

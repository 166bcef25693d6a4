package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/entity"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/enum"
	"github.com/swiftinvoice/swift-invoice-api/pkg/pagination"
)

// InvoiceFilterParams holds filtering options for listing invoices
type InvoiceFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.InvoiceStatus
}

// InvoiceRepository defines the interface for invoice data operations.
// Get methods return (nil, nil) when the record does not exist.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.InvoiceStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns the owner's invoices ordered by most-recently-updated
	// first, plus the unpaginated total.
	List(ctx context.Context, userID uuid.UUID, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)
	// ReplaceItems swaps the full line-item set of an invoice.
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []entity.InvoiceItem) error
}

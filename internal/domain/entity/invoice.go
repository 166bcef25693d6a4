package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Sender holds the pay-to party printed on an invoice
type Sender struct {
	Name        string `gorm:"size:255" json:"name"`
	Email       string `gorm:"size:255" json:"email"`
	Address     string `gorm:"type:text" json:"address,omitempty"`
	Logo        string `gorm:"type:text" json:"logo,omitempty"`
	CompanyName string `gorm:"size:255" json:"companyName,omitempty"`
}

// Client holds the billed-to party printed on an invoice
type Client struct {
	Name    string `gorm:"size:255" json:"name"`
	Email   string `gorm:"size:255" json:"email"`
	Address string `gorm:"type:text" json:"address,omitempty"`
}

// Invoice is the persisted invoice document. All financial fields are
// derived server-side on every save; caller-supplied aggregates are
// advisory at best and never stored.
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	UserID        *uuid.UUID         `gorm:"type:uuid;index" json:"userId,omitempty"`
	InvoiceNumber string             `gorm:"size:100;not null;index" json:"invoiceNumber"`
	Status        enum.InvoiceStatus `gorm:"size:20;default:'pending'" json:"status"`
	IsDraft       bool               `gorm:"default:false" json:"isDraft"`

	Sender Sender `gorm:"embedded;embeddedPrefix:sender_" json:"sender"`
	Client Client `gorm:"embedded;embeddedPrefix:client_" json:"client"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	Subtotal      float64 `json:"subtotal"`
	TaxName       string  `gorm:"size:100" json:"taxName,omitempty"`
	TaxPercentage float64 `json:"taxPercentage"`
	TaxAmount     float64 `json:"taxAmount"`
	Discount      float64 `json:"discount"`
	TotalAmount   float64 `json:"totalAmount"`
	Currency      string  `gorm:"size:10;default:'USD'" json:"currency"`

	IssueDate    time.Time  `json:"issueDate"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	PaymentTerms string     `gorm:"type:text" json:"paymentTerms,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`

	PaymentQr   string `gorm:"size:255" json:"paymentQr,omitempty"`
	QrCodeImage string `gorm:"type:text" json:"qrCodeImage,omitempty"`
	// QrImageUrl is a legacy column kept so old rows still render their
	// auto-generated QR. It is never written by create or update.
	QrImageUrl string `gorm:"type:text" json:"qrImageUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// IsOwnedBy reports whether the invoice belongs to the given user. An
// invoice without an owner is a guest record and is owned by nobody.
func (i *Invoice) IsOwnedBy(userID uuid.UUID) bool {
	return i.UserID != nil && *i.UserID == userID
}

// InvoiceItem is one line on an invoice. Amount is always
// quantity*rate as of the last save.
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position    int       `gorm:"not null" json:"-"`
	Description string    `gorm:"type:text" json:"description"`
	Quantity    float64   `json:"quantity"`
	Rate        float64   `json:"rate"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

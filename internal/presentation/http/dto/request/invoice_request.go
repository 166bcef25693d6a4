package request

import "time"

// SenderRequest is the pay-to block of an invoice payload
type SenderRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Logo        string `json:"logo"`
	CompanyName string `json:"companyName"`
}

// ClientRequest is the billed-to block of an invoice payload
type ClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// InvoiceItemRequest is one line item of an invoice payload. Any
// caller-supplied amount is discarded; the server recomputes it.
type InvoiceItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// InvoiceRequest represents a create or full-update invoice payload
type InvoiceRequest struct {
	InvoiceNumber string               `json:"invoiceNumber"`
	IsDraft       bool                 `json:"isDraft"`
	Sender        SenderRequest        `json:"sender"`
	Client        ClientRequest        `json:"client"`
	Items         []InvoiceItemRequest `json:"items"`
	TaxName       string               `json:"taxName"`
	TaxPercentage float64              `json:"taxPercentage"`
	Discount      float64              `json:"discount"`
	Currency      string               `json:"currency"`
	IssueDate     *time.Time           `json:"issueDate"`
	DueDate       *time.Time           `json:"dueDate"`
	PaymentTerms  string               `json:"paymentTerms"`
	Notes         string               `json:"notes"`
	PaymentQr     string               `json:"paymentQr"`
	QrCodeImage   string               `json:"qrCodeImage"`
}

// UpdateInvoiceStatusRequest changes only the invoice status
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListInvoicesQuery holds the list endpoint's query parameters
type ListInvoicesQuery struct {
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	Search  string `form:"search"`
	Status  string `form:"status"`
}

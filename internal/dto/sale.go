package dto

import "time"

type CreateSaleRequest struct {
	Lines               []SaleLineRequest `json:"lines" validate:"required,min=1,max=200,dive"`
	CustomerType        string            `json:"customerType" validate:"required,oneof=WALK_IN REGISTERED"`
	CustomerID          *int              `json:"customerId" validate:"omitempty,gt=0"`
	PaymentType         string            `json:"paymentType" validate:"required,oneof=CASH STORE_CREDIT"`
	OverrideCreditLimit bool              `json:"overrideCreditLimit"`
	IssueInvoice        bool              `json:"issueInvoice"`
	PointOfSale         int               `json:"pointOfSale" validate:"gte=0"`
	Notes               string            `json:"notes" validate:"max=512"`
}

// SaleLineRequest carries no price: prices are always read server-side.
type SaleLineRequest struct {
	ProductID       int  `json:"productId" validate:"gt=0"`
	Quantity        int  `json:"quantity"`
	AllowBelowStock bool `json:"allowBelowStock"`
}

type PostCommitIssueDTO struct {
	Step      string `json:"step"`
	ProductID int    `json:"productId,omitempty"`
	Message   string `json:"message"`
}

type SaleResponse struct {
	TraceID          string               `json:"traceId"`
	SaleID           int64                `json:"saleId"`
	Total            string               `json:"total"`
	TotalInWords     string               `json:"totalInWords"`
	InvoiceNumber    *int64               `json:"invoiceNumber,omitempty"`
	PostCommitIssues []PostCommitIssueDTO `json:"postCommitIssues"`
	Timestamp        time.Time            `json:"timestamp"`
}

type ReceiptLineDTO struct {
	LineNo      int    `json:"lineNo"`
	ProductID   int    `json:"productId"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

type InvoiceDTO struct {
	PointOfSale      int    `json:"pointOfSale"`
	Number           int64  `json:"number"`
	CustomerName     string `json:"customerName"`
	CustomerDocument string `json:"customerDocument"`
	CustomerAddress  string `json:"customerAddress"`
}

type ReceiptResponse struct {
	SaleID       int64            `json:"saleId"`
	CreatedAt    time.Time        `json:"createdAt"`
	CustomerType string           `json:"customerType"`
	CustomerName string           `json:"customerName"`
	PaymentType  string           `json:"paymentType"`
	Status       string           `json:"status"`
	Total        string           `json:"total"`
	TotalInWords string           `json:"totalInWords"`
	Notes        *string          `json:"notes"`
	Lines        []ReceiptLineDTO `json:"lines"`
	Invoice      *InvoiceDTO      `json:"invoice"`
}

package llm

import "context"

// Party is one named party on a page (contract signatory, email sender or
// recipient, invoice counterparty).
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// InvoiceFields carries the invoice metadata for a page, when present.
// Money fields are decimal strings; dates are YYYY-MM-DD.
type InvoiceFields struct {
	Date     string `json:"date,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Subtotal string `json:"subtotal,omitempty"`
	Fees     string `json:"fees,omitempty"`
}

type LineItem struct {
	MerchantName string `json:"merchant_name,omitempty"`
	Description  string `json:"description,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	UnitPrice    string `json:"unit_price,omitempty"`
	Amount       string `json:"amount,omitempty"`
}

type Payment struct {
	MerchantName  string `json:"merchant_name,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentDate   string `json:"payment_date,omitempty"`
	Amount        string `json:"amount,omitempty"`
}

// PageExtraction is the normalized shape we want from the LLM for one page.
type PageExtraction struct {
	DocType         string         `json:"doc_type"` // contract | email | invoice | other
	Parties         []Party        `json:"parties,omitempty"`
	Invoice         *InvoiceFields `json:"invoice,omitempty"`
	LineItems       []LineItem     `json:"line_items,omitempty"`
	Payments        []Payment      `json:"payments,omitempty"`
	ModelConfidence float32        `json:"confidence,omitempty"` // optional (0..1)
}

type ExtractRequest struct {
	PageText       string
	PageIndex      int
	FilenameHint   string
	PrepConfidence float32
}

// PageExtractor is the interface the pipeline depends on.
type PageExtractor interface {
	ExtractPage(ctx context.Context, req ExtractRequest) (PageExtraction, []byte /*rawJSON*/, error)
}

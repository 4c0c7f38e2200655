package tables

import (
	"strings"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/llm"
)

// DocumentRecord is one row of the document summary table: one per page.
type DocumentRecord struct {
	PageIndex     int               `json:"page_index"`
	DocType       constants.DocType `json:"doc_type"`
	PartyNames    string            `json:"party_names"`
	PartyEmails   string            `json:"party_emails"`
	InvoiceDate   string            `json:"invoice_date"`
	InvoiceAmount string            `json:"invoice_amount"`
	Subtotal      string            `json:"subtotal"`
	Fees          string            `json:"fees"`
}

type LineItemRecord struct {
	PageIndex    int    `json:"page_index"`
	MerchantName string `json:"merchant_name"`
	Description  string `json:"description"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Amount       string `json:"amount"`
}

type PaymentRecord struct {
	PageIndex     int    `json:"page_index"`
	MerchantName  string `json:"merchant_name"`
	PaymentMethod string `json:"payment_method"`
	PaymentDate   string `json:"payment_date"`
	Amount        string `json:"amount"`
}

// Tables accumulates the three output tables across a pipeline run.
// Rows are linked only by the shared page index.
type Tables struct {
	Documents []DocumentRecord `json:"documents"`
	LineItems []LineItemRecord `json:"line_items"`
	Payments  []PaymentRecord  `json:"payments"`
}

func New() *Tables {
	return &Tables{}
}

// AppendPage flattens one page's extraction into table rows. Party names and
// emails are joined with "; " into the single summary row for the page.
func (t *Tables) AppendPage(pageIndex int, px llm.PageExtraction) {
	dt, _ := constants.CanonicalizeDocType(px.DocType)

	doc := DocumentRecord{
		PageIndex: pageIndex,
		DocType:   dt,
	}
	if len(px.Parties) > 0 {
		names := make([]string, 0, len(px.Parties))
		emails := make([]string, 0, len(px.Parties))
		for _, p := range px.Parties {
			if p.Name != "" {
				names = append(names, p.Name)
			}
			if p.Email != "" {
				emails = append(emails, p.Email)
			}
		}
		doc.PartyNames = strings.Join(names, "; ")
		doc.PartyEmails = strings.Join(emails, "; ")
	}
	if px.Invoice != nil {
		doc.InvoiceDate = px.Invoice.Date
		doc.InvoiceAmount = px.Invoice.Amount
		doc.Subtotal = px.Invoice.Subtotal
		doc.Fees = px.Invoice.Fees
	}
	t.Documents = append(t.Documents, doc)

	for _, li := range px.LineItems {
		t.LineItems = append(t.LineItems, LineItemRecord{
			PageIndex:    pageIndex,
			MerchantName: li.MerchantName,
			Description:  li.Description,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice,
			Amount:       li.Amount,
		})
	}
	for _, p := range px.Payments {
		t.Payments = append(t.Payments, PaymentRecord{
			PageIndex:     pageIndex,
			MerchantName:  p.MerchantName,
			PaymentMethod: p.PaymentMethod,
			PaymentDate:   p.PaymentDate,
			Amount:        p.Amount,
		})
	}
}

// AppendFailure records a placeholder summary row for a page whose extraction
// failed, so the document table still carries one row per page.
func (t *Tables) AppendFailure(pageIndex int) {
	t.Documents = append(t.Documents, DocumentRecord{
		PageIndex: pageIndex,
		DocType:   constants.OtherDoc,
	})
}

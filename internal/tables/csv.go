package tables

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// Fixed header rows for the delimited-text exports.
var (
	DocumentHeaders = []string{"page_index", "doc_type", "party_names", "party_emails", "invoice_date", "invoice_amount", "subtotal", "fees"}
	LineItemHeaders = []string{"page_index", "merchant_name", "description", "quantity", "unit_price", "amount"}
	PaymentHeaders  = []string{"page_index", "merchant_name", "payment_method", "payment_date", "amount"}
)

// DocumentsCSV renders the document summary table as delimited text.
func (t *Tables) DocumentsCSV() ([]byte, error) {
	rows := make([][]string, 0, len(t.Documents))
	for _, d := range t.Documents {
		rows = append(rows, []string{
			strconv.Itoa(d.PageIndex),
			string(d.DocType),
			d.PartyNames,
			d.PartyEmails,
			d.InvoiceDate,
			d.InvoiceAmount,
			d.Subtotal,
			d.Fees,
		})
	}
	return writeCSV(DocumentHeaders, rows)
}

// LineItemsCSV renders the line item table as delimited text.
func (t *Tables) LineItemsCSV() ([]byte, error) {
	rows := make([][]string, 0, len(t.LineItems))
	for _, li := range t.LineItems {
		rows = append(rows, []string{
			strconv.Itoa(li.PageIndex),
			li.MerchantName,
			li.Description,
			li.Quantity,
			li.UnitPrice,
			li.Amount,
		})
	}
	return writeCSV(LineItemHeaders, rows)
}

// PaymentsCSV renders the payment table as delimited text.
func (t *Tables) PaymentsCSV() ([]byte, error) {
	rows := make([][]string, 0, len(t.Payments))
	for _, p := range t.Payments {
		rows = append(rows, []string{
			strconv.Itoa(p.PageIndex),
			p.MerchantName,
			p.PaymentMethod,
			p.PaymentDate,
			p.Amount,
		})
	}
	return writeCSV(PaymentHeaders, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

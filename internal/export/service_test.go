package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/docsift/docsift/internal/llm"
	"github.com/docsift/docsift/internal/tables"
)

func sampleTables() *tables.Tables {
	t := tables.New()
	t.AppendPage(1, llm.PageExtraction{
		DocType: "invoice",
		Parties: []llm.Party{{Name: "Acme Corp", Email: "ap@acme.example"}},
		Invoice: &llm.InvoiceFields{Date: "2024-03-01", Amount: "99.00"},
		LineItems: []llm.LineItem{
			{MerchantName: "Acme Corp", Description: "Service", Amount: "99.00"},
		},
		Payments: []llm.Payment{
			{MerchantName: "Acme Corp", PaymentMethod: "CARD", PaymentDate: "2024-03-02", Amount: "99.00"},
		},
	})
	t.AppendPage(2, llm.PageExtraction{DocType: "email", Parties: []llm.Party{{Name: "Bob"}}})
	return t
}

func TestWorkbookXLSXSheets(t *testing.T) {
	svc := NewService(nil)
	b, err := svc.WorkbookXLSX(sampleTables())
	if err != nil {
		t.Fatalf("WorkbookXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	for _, sheet := range []string{SheetDocuments, SheetLineItems, SheetPayments} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
			t.Fatalf("missing sheet %q (idx=%d, err=%v)", sheet, idx, err)
		}
	}

	rows, err := f.GetRows(SheetDocuments)
	if err != nil {
		t.Fatalf("documents rows: %v", err)
	}
	if len(rows) != 3 { // header + 2 pages
		t.Fatalf("document rows: %d", len(rows))
	}
	if rows[0][1] != "Document Type" {
		t.Fatalf("header row: %v", rows[0])
	}
	if rows[1][1] != "invoice" || rows[2][1] != "email" {
		t.Fatalf("doc type cells: %v / %v", rows[1], rows[2])
	}

	rows, err = f.GetRows(SheetPayments)
	if err != nil {
		t.Fatalf("payments rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("payment rows: %d", len(rows))
	}
	if rows[1][2] != "CARD" {
		t.Fatalf("payment method cell: %v", rows[1])
	}
}

func TestWriteDir(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil)
	if err := svc.WriteDir(sampleTables(), filepath.Join(dir, "out")); err != nil {
		t.Fatalf("WriteDir: %v", err)
	}

	for _, name := range []string{"documents.csv", "line_items.csv", "payments.csv", "workbook.xlsx"} {
		st, err := os.Stat(filepath.Join(dir, "out", name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if st.Size() == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

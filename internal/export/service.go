package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docsift/docsift/internal/tables"
)

const (
	SheetDocuments = "Documents"
	SheetLineItems = "Line Items"
	SheetPayments  = "Payments"
)

// Service renders accumulated tables as an XLSX workbook or as CSV files.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WorkbookXLSX returns an XLSX workbook (as bytes) with one sheet per table.
func (s *Service) WorkbookXLSX(t *tables.Tables) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()

	if err := s.writeDocuments(f, t); err != nil {
		return nil, err
	}
	if err := s.writeLineItems(f, t); err != nil {
		return nil, err
	}
	if err := s.writePayments(f, t); err != nil {
		return nil, err
	}

	// drop the default sheet and activate Documents
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetDocuments); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(t.Documents),
		"line_items", len(t.LineItems),
		"payments", len(t.Payments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeDocuments(f *excelize.File, t *tables.Tables) error {
	if _, err := f.NewSheet(SheetDocuments); err != nil {
		return err
	}
	headers := []string{"Page", "Document Type", "Parties", "Party Emails", "Invoice Date", "Invoice Amount", "Subtotal", "Fees"}
	writeHeaders(f, SheetDocuments, headers)

	row := 2
	for _, d := range t.Documents {
		write := cellWriter(f, SheetDocuments, row)
		write(1, d.PageIndex)
		write(2, string(d.DocType))
		write(3, d.PartyNames)
		write(4, d.PartyEmails)
		write(5, d.InvoiceDate)
		write(6, d.InvoiceAmount)
		write(7, d.Subtotal)
		write(8, d.Fees)
		row++
	}

	_ = f.SetColWidth(SheetDocuments, "A", "A", 8)  // page
	_ = f.SetColWidth(SheetDocuments, "B", "B", 16) // type
	_ = f.SetColWidth(SheetDocuments, "C", "D", 40) // parties
	_ = f.SetColWidth(SheetDocuments, "E", "H", 14) // invoice fields
	return nil
}

func (s *Service) writeLineItems(f *excelize.File, t *tables.Tables) error {
	if _, err := f.NewSheet(SheetLineItems); err != nil {
		return err
	}
	headers := []string{"Page", "Merchant", "Description", "Quantity", "Unit Price", "Amount"}
	writeHeaders(f, SheetLineItems, headers)

	row := 2
	for _, li := range t.LineItems {
		write := cellWriter(f, SheetLineItems, row)
		write(1, li.PageIndex)
		write(2, li.MerchantName)
		write(3, li.Description)
		write(4, li.Quantity)
		write(5, li.UnitPrice)
		write(6, li.Amount)
		row++
	}

	_ = f.SetColWidth(SheetLineItems, "A", "A", 8)
	_ = f.SetColWidth(SheetLineItems, "B", "B", 28)
	_ = f.SetColWidth(SheetLineItems, "C", "C", 48)
	_ = f.SetColWidth(SheetLineItems, "D", "F", 12)
	return nil
}

func (s *Service) writePayments(f *excelize.File, t *tables.Tables) error {
	if _, err := f.NewSheet(SheetPayments); err != nil {
		return err
	}
	headers := []string{"Page", "Merchant", "Payment Method", "Payment Date", "Amount"}
	writeHeaders(f, SheetPayments, headers)

	row := 2
	for _, p := range t.Payments {
		write := cellWriter(f, SheetPayments, row)
		write(1, p.PageIndex)
		write(2, p.MerchantName)
		write(3, p.PaymentMethod)
		write(4, p.PaymentDate)
		write(5, p.Amount)
		row++
	}

	_ = f.SetColWidth(SheetPayments, "A", "A", 8)
	_ = f.SetColWidth(SheetPayments, "B", "B", 28)
	_ = f.SetColWidth(SheetPayments, "C", "D", 16)
	_ = f.SetColWidth(SheetPayments, "E", "E", 12)
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func cellWriter(f *excelize.File, sheet string, row int) func(col int, v any) {
	return func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// WriteDir drops the three CSV files and the XLSX workbook into dir.
func (s *Service) WriteDir(t *tables.Tables, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"documents.csv", t.DocumentsCSV},
		{"line_items.csv", t.LineItemsCSV},
		{"payments.csv", t.PaymentsCSV},
		{"workbook.xlsx", func() ([]byte, error) { return s.WorkbookXLSX(t) }},
	}
	for _, file := range files {
		b, err := file.render()
		if err != nil {
			return fmt.Errorf("render %s: %w", file.name, err)
		}
		path := filepath.Join(dir, file.name)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file.name, err)
		}
		s.logger.Info("export.file.ok", "path", path, "bytes", len(b))
	}
	return nil
}

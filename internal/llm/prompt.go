package llm

import (
	"fmt"
	"strings"
)

const pageTextLimit = 6000

// BuildSystemPrompt is the fixed instruction set for page extraction.
// Decoding is deterministic (temperature 0), so the wording here is the
// only lever for output stability.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a legal and financial document parser. Return ONLY JSON that matches the JSON Schema provided.",
		"Classify the page as exactly one doc_type: contract, email, invoice, or other.",
		"List every party (person or organization) named on the page with their email address when visible.",
		"For invoices, extract the invoice date, total amount, subtotal, and fees.",
		"Extract every billed line item with merchant name, description, quantity, unit price, and line amount.",
		"Extract every payment with merchant name, payment method, payment date, and amount.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Money values are plain decimal strings without currency symbols or thousands separators.",
		"Never output null. If a field is not present on the page, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps one page's OCR text with its provenance hints.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString("Filename: ")
	b.WriteString(req.FilenameHint)
	fmt.Fprintf(&b, "\nPage: %d", req.PageIndex)
	b.WriteString("\n\nOCR text:\n")
	if len(req.PageText) > pageTextLimit {
		b.WriteString(req.PageText[:pageTextLimit])
	} else {
		b.WriteString(req.PageText)
	}
	return b.String()
}

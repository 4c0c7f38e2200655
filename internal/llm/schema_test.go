package llm

import (
	"encoding/json"
	"testing"
)

func TestSchemaAcceptsWellFormedExtraction(t *testing.T) {
	schema := BuildPageJSONSchema()
	doc := []byte(`{
		"doc_type": "invoice",
		"parties": [{"name": "Acme Corp", "email": "billing@acme.example"}],
		"invoice": {"date": "2024-03-01", "amount": "1234.50", "subtotal": "1200.00", "fees": "34.50"},
		"line_items": [{"merchant_name": "Acme Corp", "description": "Widgets", "quantity": "2.00", "unit_price": "600.00", "amount": "1200.00"}],
		"payments": [{"merchant_name": "Acme Corp", "payment_method": "WIRE", "payment_date": "2024-03-05", "amount": "1234.50"}],
		"confidence": 0.92
	}`)
	if err := ValidateJSONAgainstSchema(schema, doc); err != nil {
		t.Fatalf("well-formed doc rejected: %v", err)
	}
}

func TestSchemaRejectsBadDocType(t *testing.T) {
	schema := BuildPageJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, []byte(`{"doc_type": "memo"}`)); err == nil {
		t.Fatalf("doc_type outside enum accepted")
	}
}

func TestSchemaRejectsUnknownKeys(t *testing.T) {
	schema := BuildPageJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, []byte(`{"doc_type": "other", "note": "x"}`)); err == nil {
		t.Fatalf("unknown key accepted")
	}
}

func TestSchemaRejectsMalformedMoney(t *testing.T) {
	schema := BuildPageJSONSchema()
	doc := []byte(`{"doc_type": "invoice", "invoice": {"amount": "$1,234.50"}}`)
	if err := ValidateJSONAgainstSchema(schema, doc); err == nil {
		t.Fatalf("money with currency symbol accepted")
	}
}

// Sanitized output must always satisfy the strict schema.
func TestSanitizeOutputValidates(t *testing.T) {
	schema := BuildPageJSONSchema()
	raws := [][]byte{
		[]byte(`{"doc_type": "brochure", "invoice": {"amount": "$1,234.50"}, "junk": 1}`),
		[]byte("```json\n{\"doc_type\": \"Bill\", \"payments\": [{\"payment_method\": \"credit card\", \"amount\": 7}]}\n```"),
		[]byte(`{"doc_type": "email", "parties": [{"name": "A"}, {"name": ""}]}`),
		[]byte(`{"doc_type": "invoice", "invoice": {"date": "03/01/2024", "amount": 5}, "payments": [{"payment_date": "next week", "amount": "5.00"}]}`),
	}
	for _, raw := range raws {
		cleaned, _, err := NormalizeAndSanitizeJSON(raw)
		if err != nil {
			t.Fatalf("sanitize %s: %v", raw, err)
		}
		if err := ValidateJSONAgainstSchema(schema, cleaned); err != nil {
			t.Fatalf("sanitized output rejected by schema: %v\n%s", err, cleaned)
		}
	}
}

// Absent optional fields decode to zero values.
func TestExtractionDecodeAbsentFields(t *testing.T) {
	var px PageExtraction
	if err := json.Unmarshal([]byte(`{"doc_type": "other"}`), &px); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if px.DocType != "other" {
		t.Fatalf("doc_type = %q", px.DocType)
	}
	if px.Invoice != nil || px.Parties != nil || px.LineItems != nil || px.Payments != nil {
		t.Fatalf("absent fields not zero: %+v", px)
	}
	if px.ModelConfidence != 0 {
		t.Fatalf("confidence = %v", px.ModelConfidence)
	}
}

// Round-tripping a decoded extraction through encode/decode is lossless.
func TestExtractionRoundTrip(t *testing.T) {
	in := PageExtraction{
		DocType: "invoice",
		Parties: []Party{{Name: "Acme", Email: "a@acme.example"}},
		Invoice: &InvoiceFields{Date: "2024-03-01", Amount: "10.00"},
		LineItems: []LineItem{
			{Description: "thing", Quantity: "1.00", UnitPrice: "10.00", Amount: "10.00"},
		},
		Payments: []Payment{{PaymentMethod: "CARD", Amount: "10.00"}},
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out PageExtraction
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b2, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(b) != string(b2) {
		t.Fatalf("round trip not stable:\n%s\n%s", b, b2)
	}
}

package llm

import "github.com/docsift/docsift/constants"

// BuildPageJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the LLM as an output constraint and also use it locally to validate.
func BuildPageJSONSchema() map[string]any {
	partyProps := map[string]any{
		"name":  map[string]any{"type": "string", "minLength": 1},
		"email": map[string]any{"type": "string"},
	}
	lineItemProps := map[string]any{
		"merchant_name": map[string]any{"type": "string"},
		"description":   map[string]any{"type": "string"},
		"quantity":      decimalProp(),
		"unit_price":    decimalProp(),
		"amount":        decimalProp(),
	}
	paymentProps := map[string]any{
		"merchant_name":  map[string]any{"type": "string"},
		"payment_method": map[string]any{"type": "string"},
		"payment_date":   dateProp(),
		"amount":         decimalProp(),
	}
	invoiceProps := map[string]any{
		"date":     dateProp(),
		"amount":   decimalProp(),
		"subtotal": decimalProp(),
		"fees":     decimalProp(),
	}

	props := map[string]any{
		"doc_type": map[string]any{
			"type": "string",
			"enum": constants.DocTypesAsStrings(),
		},
		"parties": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           partyProps,
				"required":             []string{"name"},
			},
		},
		"invoice": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           invoiceProps,
		},
		"line_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           lineItemProps,
			},
		},
		"payments": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           paymentProps,
			},
		},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"doc_type"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`, // decimal string, negatives allowed
	}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}
}

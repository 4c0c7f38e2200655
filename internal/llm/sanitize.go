package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docsift/docsift/constants"
)

// NormalizeAndSanitizeJSON makes a model response acceptable to the strict schema:
//   - strips markdown code fences
//   - canonicalizes doc_type onto the closed enum (unknown -> "other")
//   - drops null/empty optionals
//   - coerces numeric money/quantity values to decimal strings
//   - normalizes payment_method casing
//   - removes unknown keys (additionalProperties = false friendliness)
//
// Running it on its own output is a no-op.
func NormalizeAndSanitizeJSON(raw []byte) ([]byte, []string, error) {
	raw = StripCodeFences(raw)

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// doc_type must land on the enum
	if v, ok := m["doc_type"].(string); ok {
		dt, matched := constants.CanonicalizeDocType(v)
		if !matched {
			dropped = append(dropped, "doc_type("+v+")")
		}
		m["doc_type"] = string(dt)
	} else {
		m["doc_type"] = string(constants.OtherDoc)
		dropped = append(dropped, "doc_type(missing)")
	}

	// parties: keep name/email only, require a non-empty name
	if v, ok := m["parties"].([]any); ok {
		parties := make([]any, 0, len(v))
		for _, it := range v {
			p, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, "parties(entry)")
				continue
			}
			name, _ := p["name"].(string)
			name = strings.TrimSpace(name)
			if name == "" {
				dropped = append(dropped, "parties(no name)")
				continue
			}
			entry := map[string]any{"name": name}
			if email, ok := p["email"].(string); ok {
				if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
					entry["email"] = e
				}
			}
			parties = append(parties, entry)
		}
		if len(parties) == 0 {
			delete(m, "parties")
		} else {
			m["parties"] = parties
		}
	} else if _, present := m["parties"]; present {
		delete(m, "parties")
		dropped = append(dropped, "parties(type)")
	}

	// invoice: coerce money fields, drop when nothing survives
	if v, ok := m["invoice"].(map[string]any); ok {
		inv := sanitizeObject(v, map[string]kind{
			"date":     kindDate,
			"amount":   kindMoney,
			"subtotal": kindMoney,
			"fees":     kindMoney,
		}, &dropped)
		if len(inv) == 0 {
			delete(m, "invoice")
		} else {
			m["invoice"] = inv
		}
	} else if _, present := m["invoice"]; present {
		delete(m, "invoice")
		dropped = append(dropped, "invoice(type)")
	}

	sanitizeArray(m, "line_items", map[string]kind{
		"merchant_name": kindText,
		"description":   kindText,
		"quantity":      kindMoney,
		"unit_price":    kindMoney,
		"amount":        kindMoney,
	}, &dropped)

	sanitizeArray(m, "payments", map[string]kind{
		"merchant_name":  kindText,
		"payment_method": kindMethod,
		"payment_date":   kindDate,
		"amount":         kindMoney,
	}, &dropped)

	// confidence must be a number in 0..1
	if v, present := m["confidence"]; present {
		if f, ok := v.(float64); !ok || f < 0 || f > 1 {
			delete(m, "confidence")
			dropped = append(dropped, "confidence")
		}
	}

	// remove unknown top-level keys
	allowed := map[string]struct{}{
		"doc_type": {}, "parties": {}, "invoice": {},
		"line_items": {}, "payments": {}, "confidence": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// StripCodeFences removes a surrounding markdown code fence, a habit some
// models keep even when asked for bare JSON.
func StripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

type kind int

const (
	kindText kind = iota
	kindMoney
	kindDate
	kindMethod
)

func sanitizeArray(m map[string]any, key string, fields map[string]kind, dropped *[]string) {
	v, ok := m[key].([]any)
	if !ok {
		if _, present := m[key]; present {
			delete(m, key)
			*dropped = append(*dropped, key+"(type)")
		}
		return
	}
	out := make([]any, 0, len(v))
	for _, it := range v {
		obj, ok := it.(map[string]any)
		if !ok {
			*dropped = append(*dropped, key+"(entry)")
			continue
		}
		clean := sanitizeObject(obj, fields, dropped)
		if len(clean) > 0 {
			out = append(out, clean)
		}
	}
	if len(out) == 0 {
		delete(m, key)
	} else {
		m[key] = out
	}
}

// sanitizeObject keeps only the declared fields, coercing each to its kind.
func sanitizeObject(obj map[string]any, fields map[string]kind, dropped *[]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, knd := range fields {
		v, present := obj[k]
		if !present || v == nil {
			continue
		}
		switch knd {
		case kindMoney:
			if s, ok := coerceMoney(v); ok {
				out[k] = s
			} else {
				*dropped = append(*dropped, k)
			}
		case kindDate:
			if s, ok := coerceDate(v); ok {
				out[k] = s
			} else {
				*dropped = append(*dropped, k)
			}
		case kindMethod:
			if s, ok := v.(string); ok {
				pm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
				if pm != "" {
					out[k] = pm
				}
			}
		default:
			if s, ok := v.(string); ok {
				if t := strings.TrimSpace(s); t != "" {
					out[k] = t
				}
			}
		}
	}
	return out
}

// dateLayouts are the formats models actually produce; first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// coerceDate normalizes date-ish strings to YYYY-MM-DD. Anything that fits no
// known layout is dropped rather than left to fail revalidation.
func coerceDate(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// coerceMoney turns numeric or string money-ish values into "%.2f" strings.
func coerceMoney(v any) (string, bool) {
	switch t := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			return "", false
		}
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fmt.Sprintf("%.2f", f), true
		}
		return "", false
	default:
		return "", false
	}
}

package constants

import (
	"strings"
)

// DocType classifies a scanned page. The set is closed: every document
// summary row carries exactly one of these values.
type DocType string

const (
	Contract DocType = "contract"
	Email    DocType = "email"
	Invoice  DocType = "invoice"
	OtherDoc DocType = "other"
)

var allDocTypes = []DocType{
	Contract,
	Email,
	Invoice,
	OtherDoc,
}

func DocTypesAsStrings() []string {
	result := make([]string, len(allDocTypes))
	for i, dt := range allDocTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalizeDocType maps free-form model output onto the closed enum.
// The second return reports whether the input matched; unmatched labels
// fall back to OtherDoc.
func CanonicalizeDocType(input string) (DocType, bool) {
	if input == "" {
		return OtherDoc, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DocType{
		"agreement":      Contract,
		"lease":          Contract,
		"nda":            Contract,
		"e-mail":         Email,
		"email thread":   Email,
		"correspondence": Email,
		"bill":           Invoice,
		"receipt":        Invoice,
		"statement":      Invoice,
		"purchase order": Invoice,
		"misc":           OtherDoc,
		"unknown":        OtherDoc,
		"unclassified":   OtherDoc,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}

	return OtherDoc, false
}

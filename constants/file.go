package constants

import "strings"

// Format identifies the source format of an input file.
const (
	PDF = "PDF"
)

// AllowedExtensions holds the file extensions accepted by the pipeline.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the canonical format for an extension, or ""
// when the extension is not supported.
func MapExtToFormat(ext string) string {
	if _, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return PDF
	}
	return ""
}

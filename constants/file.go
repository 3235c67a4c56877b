package constants

import "strings"

// FileFormat is the canonical source-format tag for an uploaded document.
type FileFormat string

// Stable values (these exact strings appear in logs and extraction metadata).
const (
	PDF  FileFormat = "PDF"
	DOCX FileFormat = "DOCX"
	TXT  FileFormat = "TXT"
)

// AllowedExtensions holds the allowed file extensions for document upload.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
}

// SupportedExtensions returns the allowed extensions as dotted suffixes in
// stable order, for user-facing messages and capability listings.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".txt"}
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension (with or without dot, any case) to its
// FileFormat. Returns "" for extensions outside the supported set.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "txt":
		return TXT
	default:
		return ""
	}
}

// Package validate holds the upload acceptance checks and the fixed limits
// they enforce. Checks are pure: no I/O, first failing check wins.
package validate

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/common"
)

const (
	// MaxFileSizeBytes is the maximum accepted upload size (10 MiB)
	MaxFileSizeBytes = 10 * 1024 * 1024

	// MinTextChars is the minimum normalized text length worth analyzing
	MinTextChars = 50

	// MaxAnalyzeChars caps the text handed to the analyzer
	MaxAnalyzeChars = 100000
)

// CheckUpload validates a declared upload before any I/O-heavy work.
// Order matters: extension, then empty, then oversized.
func CheckUpload(filename string, sizeBytes int64) error {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return common.ValidationErrorf("Unsupported file type. Supported: %s",
			strings.Join(constants.SupportedExtensions(), ", "))
	}
	if sizeBytes <= 0 {
		return common.ValidationError("File is empty")
	}
	if sizeBytes > MaxFileSizeBytes {
		return common.ValidationErrorf("File too large. Maximum size: %dMB",
			MaxFileSizeBytes/(1024*1024))
	}
	return nil
}

// CheckTextLength enforces the post-extraction minimum. The extractor itself
// is best-effort; this gate belongs to the pipeline caller.
func CheckTextLength(chars int) error {
	if chars < MinTextChars {
		return common.ValidationErrorf(
			"Insufficient text extracted (%d chars). Minimum %d characters required.",
			chars, MinTextChars)
	}
	return nil
}

// CheckDocumentText bounds directly submitted (pre-extracted) text.
func CheckDocumentText(chars int) error {
	if chars < MinTextChars {
		return common.ValidationErrorf(
			"Document text too short (%d chars). Minimum %d characters required.",
			chars, MinTextChars)
	}
	if chars > MaxAnalyzeChars {
		return common.ValidationErrorf(
			"Document text too long (%d chars). Maximum %d characters allowed.",
			chars, MaxAnalyzeChars)
	}
	return nil
}

package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Caps for the content-stream fallback.
const (
	pdfPageCap    = 200        // maximum number of pages to process
	pdfPerPageCap = 128 * 1024 // per-page text cap in bytes
)

// extractPDFText is the primary PDF strategy: per-page plain text, pages
// that yield nothing are dropped, remaining pages joined with a blank line.
// The reader panics on some malformed files, so the whole pass is guarded.
func extractPDFText(_ context.Context, path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	var parts []string
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n"), total, nil
}

// extractPDFContentStream is the fallback strategy: dump raw page content
// streams and scrape their string literals. Cruder than the primary but
// survives files the structured reader cannot.
func extractPDFContentStream(_ context.Context, path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf content extraction panic: %v", r)
		}
	}()

	tmpDir, err := os.MkdirTemp("", "audit_pdfcpu_*")
	if err != nil {
		return "", 0, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContentFile(path, tmpDir, nil, nil); err != nil {
		return "", 0, fmt.Errorf("extract content streams: %w", err)
	}

	ents, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", 0, fmt.Errorf("read content dir: %w", err)
	}
	sort.Slice(ents, func(i, j int) bool { return ents[i].Name() < ents[j].Name() })

	var b strings.Builder
	processed := 0
	for _, de := range ents {
		if de.IsDir() || processed >= pdfPageCap {
			continue
		}
		data, _ := os.ReadFile(filepath.Join(tmpDir, de.Name()))
		if len(data) == 0 {
			continue
		}
		pageText := parseStringLiterals(string(data), pdfPerPageCap)
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
		processed++
	}
	return b.String(), processed, nil
}

// parseStringLiterals collects text within balanced parentheses in a PDF
// content stream, honoring backslash escapes, and caps output size.
func parseStringLiterals(s string, maxOut int) string {
	var out strings.Builder
	depth := 0
	escape := false
	in := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !in {
			if c == '(' {
				in = true
				depth = 1
			}
			continue
		}
		if escape {
			out.WriteByte(c)
			escape = false
			if out.Len() >= maxOut {
				return out.String()
			}
			continue
		}
		switch c {
		case '\\':
			escape = true
		case '(':
			depth++
			out.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				in = false
				out.WriteByte(' ')
			} else {
				out.WriteByte(c)
			}
		default:
			out.WriteByte(c)
		}
		if out.Len() >= maxOut {
			return out.String()
		}
	}
	return out.String()
}

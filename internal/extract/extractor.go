// Package extract turns an uploaded document into normalized plain text.
// Each format carries an ordered chain of strategies; the first one that
// yields non-empty text wins, and a strategy failure only means the next
// one is tried.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/common"
)

// Result carries the outcome of one document extraction.
type Result struct {
	Text        string               // normalized text
	Format      constants.FileFormat // source format tag
	Chars       int                  // rune count of Text
	Pages       int                  // pages or paragraph blocks seen, 0 where the format has none
	Method      string               // strategy that produced the text
	Duration    time.Duration
	ExtractedAt time.Time
}

// TextExtractor is the pipeline's view of extraction.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Strategy is one interchangeable extraction technique. Run returns raw
// (pre-normalization) text and the page/block count it saw.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, path string) (string, int, error)
}

// Extractor dispatches by file extension to an ordered strategy chain.
// Adding a strategy is a data change in defaultChains.
type Extractor struct {
	logger *slog.Logger
	chains map[constants.FileFormat][]Strategy
}

func defaultChains() map[constants.FileFormat][]Strategy {
	return map[constants.FileFormat][]Strategy{
		constants.PDF: {
			{Name: "pdf-text", Run: extractPDFText},
			{Name: "pdf-content-stream", Run: extractPDFContentStream},
		},
		constants.DOCX: {
			{Name: "docx-xml", Run: extractDOCXParagraphs},
			{Name: "docx-tag-strip", Run: extractDOCXTagStrip},
		},
		constants.TXT: {
			{Name: "txt-utf8", Run: extractTXTUTF8},
			{Name: "txt-latin1", Run: decodeTXTWith(charmapLatin1)},
			{Name: "txt-cp1252", Run: decodeTXTWith(charmapWindows1252)},
			{Name: "txt-iso8859-1", Run: decodeTXTWith(charmapISO8859_1)},
			{Name: "txt-chardet", Run: extractTXTDetect},
		},
	}
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		logger: logger,
		chains: defaultChains(),
	}
}

// Extract runs the strategy chain for the file's extension and normalizes
// the winner's text. The minimum-length gate is the caller's concern; an
// extraction that yields any non-empty text succeeds here.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return Result{}, common.ExtractionError(
			fmt.Sprintf("unsupported file extension %q", filepath.Ext(path)), nil)
	}

	var attempts []string
	for _, strat := range e.chains[format] {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		text, pages, err := strat.Run(ctx, path)
		if err != nil {
			e.logger.Warn("extract.strategy.failed",
				"format", string(format), "strategy", strat.Name, "error", err)
			attempts = append(attempts, strat.Name+": "+err.Error())
			continue
		}

		normalized := Normalize(text)
		if normalized == "" {
			e.logger.Warn("extract.strategy.empty",
				"format", string(format), "strategy", strat.Name)
			attempts = append(attempts, strat.Name+": produced no text")
			continue
		}

		res := Result{
			Text:        normalized,
			Format:      format,
			Chars:       utf8.RuneCountInString(normalized),
			Pages:       pages,
			Method:      strat.Name,
			Duration:    time.Since(start),
			ExtractedAt: time.Now().UTC(),
		}
		e.logger.Info("extract.ok",
			"format", string(format), "strategy", strat.Name,
			"chars", res.Chars, "pages", res.Pages,
			"elapsed_ms", res.Duration.Milliseconds())
		return res, nil
	}

	return Result{}, common.ExtractionError(fmt.Sprintf(
		"all %s extraction strategies failed (%s)",
		strings.ToLower(string(format)), strings.Join(attempts, "; ")), nil)
}

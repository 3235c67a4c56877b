package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/audit-agent/internal/llm"
)

// FlagRow is one row of the Flags sheet.
type FlagRow struct {
	Document    string
	Category    string
	Severity    string
	Description string
	Evidence    string
	Confidence  float64
	Amount      float64
}

// FlagRows flattens a document's flags into workbook rows.
func FlagRows(document string, flags []llm.AuditFlag) []FlagRow {
	rows := make([]FlagRow, 0, len(flags))
	for _, fl := range flags {
		rows = append(rows, FlagRow{
			Document:    document,
			Category:    fl.Category,
			Severity:    string(fl.Severity),
			Description: fl.Description,
			Evidence:    fl.Evidence,
			Confidence:  fl.Confidence,
			Amount:      fl.AmountInvolved,
		})
	}
	return rows
}

// Service produces XLSX bytes for flag exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Workbook returns an XLSX workbook (as bytes) listing every flag raised
// against the exported documents, plus a footer carrying the analyzer's
// total flagged amount.
func (s *Service) Workbook(rows []FlagRow, totalFlagged float64) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Flags"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document",
		"Category",
		"Severity",
		"Description",
		"Evidence",
		"Confidence",
		"Flagged Amount",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Document)
		write(2, r.Category)
		write(3, r.Severity)
		write(4, truncate(r.Description, 140))
		write(5, truncate(r.Evidence, 140))
		write(6, fmt.Sprintf("%.2f", r.Confidence))
		if r.Amount != 0 {
			write(7, r.Amount)
		} else {
			write(7, "")
		}

		row++
	}

	// Footer with the analyzer's own total, one blank row below the data.
	row++
	labelCell, _ := excelize.CoordinatesToCellName(6, row)
	_ = f.SetCellValue(sheet, labelCell, "Total Flagged")
	totalCell, _ := excelize.CoordinatesToCellName(7, row)
	_ = f.SetCellValue(sheet, totalCell, totalFlagged)

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // document
	_ = f.SetColWidth(sheet, "B", "B", 18) // category
	_ = f.SetColWidth(sheet, "C", "C", 10) // severity
	_ = f.SetColWidth(sheet, "D", "E", 48) // description, evidence
	_ = f.SetColWidth(sheet, "F", "F", 12) // confidence
	_ = f.SetColWidth(sheet, "G", "G", 14) // amount

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

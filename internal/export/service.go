package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// Service renders a finished job's findings as an XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// JobXLSX returns workbook bytes for a DONE job: one Findings sheet with a
// row per classified unit and one Summary sheet with per-type counts.
func (s *Service) JobXLSX(job *domain.Job) ([]byte, error) {
	if job == nil {
		return nil, fmt.Errorf("nil job")
	}
	if job.Status != domain.StatusDone || job.Results == nil {
		return nil, domain.WrapError(domain.ErrTerminalState, "export job",
			fmt.Errorf("job %s is %s, export needs DONE", job.ID, job.Status))
	}
	start := time.Now()

	f := excelize.NewFile()
	const findingsSheet = "Findings"
	const summarySheet = "Summary"

	if err := f.SetSheetName(f.GetSheetName(0), findingsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(findingsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headers := []string{"File", "Type", "Confidence", "Reasons", "Snippet"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(findingsSheet, cell, h)
	}

	for i, finding := range job.Results.Found {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(findingsSheet, cell, v)
		}
		write(1, finding.File)
		write(2, string(finding.Type))
		write(3, finding.Confidence)
		write(4, strings.Join(finding.Reasons, "; "))
		write(5, finding.Snippet)
	}

	_ = f.SetColWidth(findingsSheet, "A", "A", 32)
	_ = f.SetColWidth(findingsSheet, "B", "B", 16)
	_ = f.SetColWidth(findingsSheet, "C", "C", 12)
	_ = f.SetColWidth(findingsSheet, "D", "D", 48)
	_ = f.SetColWidth(findingsSheet, "E", "E", 80)

	summary := job.Results.Summary
	_ = f.SetCellValue(summarySheet, "A1", "Document Type")
	_ = f.SetCellValue(summarySheet, "B1", "Count")
	for i, label := range summary.FoundTypes {
		row := i + 2
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(summarySheet, cellA, string(label))
		_ = f.SetCellValue(summarySheet, cellB, summary.Counts[label])
	}
	totalRow := len(summary.FoundTypes) + 3
	cellA, _ := excelize.CoordinatesToCellName(1, totalRow)
	cellB, _ := excelize.CoordinatesToCellName(2, totalRow)
	_ = f.SetCellValue(summarySheet, cellA, "Total files")
	_ = f.SetCellValue(summarySheet, cellB, summary.FileCount)
	_ = f.SetColWidth(summarySheet, "A", "A", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"job_id", job.ID,
		"rows", len(job.Results.Found),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

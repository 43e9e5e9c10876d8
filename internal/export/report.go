// Package export renders conversion-job reports as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/learngvrk/claude-code-skills/internal/jobstore"
)

const sheet = "Conversions"

// Report returns an XLSX workbook (as bytes) listing the given jobs.
func Report(jobs []jobstore.Job, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	// NewFile starts with one default sheet; rename it in place so the
	// workbook ships exactly one sheet.
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Job ID",
		"Source File",
		"Status",
		"Pages Done",
		"Total Pages",
		"Output File",
		"Error",
		"Submitted At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, job := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, job.ID.String())
		write(2, job.SourceName)
		write(3, string(job.Status))
		write(4, job.Progress)
		write(5, job.Total)
		write(6, job.OutputFilename)
		write(7, job.Error)
		write(8, job.CreatedAt.Format("2006-01-02 15:04:05"))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	logger.Info("export.report.ok",
		"jobs", len(jobs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteReport writes the workbook for jobs at path.
func WriteReport(jobs []jobstore.Job, path string, logger *slog.Logger) error {
	data, err := Report(jobs, logger)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

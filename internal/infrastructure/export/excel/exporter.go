package excel

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

const (
	summarySheet = "Summary"
	authorsSheet = "Top Authors"
)

// Exporter renders collected statistics as an xlsx workbook with a summary
// sheet and a top-authors sheet.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Render(stats domain.Statistics) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	wb.SetSheetName(wb.GetSheetName(0), summarySheet)

	summary := [][]any{
		{"Document type", stats.Counts.DocType},
		{"Period from", formatBound(stats.Period.From)},
		{"Period to", formatBound(stats.Period.To)},
		{},
		{"Status", "Count"},
		{"SUBMITTED", stats.Counts.Submitted},
		{"APPROVED", stats.Counts.Approved},
		{"REJECTED", stats.Counts.Rejected},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary cell name: %w", err)
		}
		if err := wb.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	if _, err := wb.NewSheet(authorsSheet); err != nil {
		return nil, fmt.Errorf("create authors sheet: %w", err)
	}
	header := []any{"Author", "Submitted"}
	if err := wb.SetSheetRow(authorsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write authors header: %w", err)
	}
	for i, rank := range stats.TopAuthors {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("authors cell name: %w", err)
		}
		row := []any{rank.Author, rank.SubmittedCount}
		if err := wb.SetSheetRow(authorsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write author row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// formatBound renders an open period bound as an empty cell.
func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

func TestRenderProducesReadableWorkbook(t *testing.T) {
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	exporter := NewExporter()

	raw, err := exporter.Render(domain.Statistics{
		Period: domain.StatisticsPeriod{DocType: "INVOICE", From: to.AddDate(0, -3, 0), To: to},
		Counts: domain.StatusCounts{DocType: "INVOICE", Submitted: 7, Approved: 4, Rejected: 2},
		TopAuthors: []domain.AuthorRank{
			{Author: "alice", SubmittedCount: 5},
			{Author: "bob", SubmittedCount: 2},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer wb.Close()

	if got, _ := wb.GetCellValue(summarySheet, "B1"); got != "INVOICE" {
		t.Fatalf("summary doc type = %q", got)
	}
	if got, _ := wb.GetCellValue(summarySheet, "B6"); got != "7" {
		t.Fatalf("submitted count = %q", got)
	}
	if got, _ := wb.GetCellValue(authorsSheet, "A2"); got != "alice" {
		t.Fatalf("top author = %q", got)
	}
	if got, _ := wb.GetCellValue(authorsSheet, "B3"); got != "2" {
		t.Fatalf("second author count = %q", got)
	}
}

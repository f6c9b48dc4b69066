package reports

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// Summary aggregates tickets for the summary workbook.
type Summary struct {
	Total         int
	ByCategory    map[core.Category]int
	ByPriority    map[core.Priority]int
	AOGShare      float64
	AvgConfidence float64
}

// Summarize computes aggregate statistics over a ticket list.
func Summarize(tickets []*core.Ticket) Summary {
	s := Summary{
		ByCategory: make(map[core.Category]int),
		ByPriority: make(map[core.Priority]int),
	}

	var confidenceSum float64
	aog := 0
	for _, t := range tickets {
		s.Total++
		s.ByCategory[t.Category]++
		s.ByPriority[t.Priority]++
		confidenceSum += t.Confidence
		if t.Category == core.CategoryAOG {
			aog++
		}
	}
	if s.Total > 0 {
		s.AOGShare = float64(aog) / float64(s.Total)
		s.AvgConfidence = confidenceSum / float64(s.Total)
	}
	return s
}

var summaryCategories = []core.Category{
	core.CategoryAOG, core.CategoryMaintenance, core.CategoryParts,
	core.CategoryInvoice, core.CategoryGeneral,
}

var summaryPriorities = []core.Priority{
	core.PriorityCritical, core.PriorityHigh, core.PriorityNormal, core.PriorityLow,
}

// WriteSummaryWorkbook writes a summary XLSX under the exporter directory
// and returns the file path.
func (e *CSVExporter) WriteSummaryWorkbook(tickets []*core.Ticket, day time.Time) (string, error) {
	summary := Summarize(tickets)
	path := filepath.Join(e.dir, fmt.Sprintf("summary-%s.xlsx", day.Format("20060102")))

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Embassy Aviation ticket summary", day.Format("2006-01-02")},
		{},
		{"Total tickets", summary.Total},
		{"AOG share", summary.AOGShare},
		{"Average confidence", summary.AvgConfidence},
		{},
		{"Category", "Tickets"},
	}
	for _, cat := range summaryCategories {
		rows = append(rows, []interface{}{string(cat), summary.ByCategory[cat]})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Priority", "Tickets"})
	for _, p := range summaryPriorities {
		rows = append(rows, []interface{}{string(p), summary.ByPriority[p]})
	}

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return "", fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

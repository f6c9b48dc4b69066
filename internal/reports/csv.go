package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/embassy-aviation/mailbot/internal/core"
)

var ticketHeader = []string{
	"number", "created_at", "category", "priority", "status",
	"customer_email", "aircraft_registration", "confidence", "title",
	"response_due_at", "resolution_due_at",
}

// CSVExporter writes ticket exports under a reports directory.
type CSVExporter struct {
	dir string
}

// NewCSVExporter creates an exporter rooted at dir, creating it if needed.
func NewCSVExporter(dir string) (*CSVExporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &CSVExporter{dir: dir}, nil
}

// WriteTickets writes all tickets to tickets-YYYYMMDD.csv and returns the
// file path.
func (e *CSVExporter) WriteTickets(tickets []*core.Ticket, day time.Time) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("tickets-%s.csv", day.Format("20060102")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ticketHeader); err != nil {
		return "", fmt.Errorf("failed to write report header: %w", err)
	}

	for _, t := range tickets {
		record := []string{
			t.Number,
			t.CreatedAt.Format(time.RFC3339),
			string(t.Category),
			string(t.Priority),
			string(t.Status),
			t.CustomerEmail,
			t.AircraftRegistration,
			strconv.FormatFloat(t.Confidence, 'f', 4, 64),
			t.Title,
			t.ResponseDueAt.Format(time.RFC3339),
			t.ResolutionDueAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush report: %w", err)
	}
	return path, nil
}

// AppendTicket appends one ticket to a CSV file, writing the header first
// when the file is new. Used by the one-shot CLI.
func AppendTicket(path string, t *core.Ticket) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(ticketHeader); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	if err := w.Write([]string{
		t.Number,
		t.CreatedAt.Format(time.RFC3339),
		string(t.Category),
		string(t.Priority),
		string(t.Status),
		t.CustomerEmail,
		t.AircraftRegistration,
		strconv.FormatFloat(t.Confidence, 'f', 4, 64),
		t.Title,
		t.ResponseDueAt.Format(time.RFC3339),
		t.ResolutionDueAt.Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}

	w.Flush()
	return w.Error()
}

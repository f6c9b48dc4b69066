package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/core"
	"github.com/embassy-aviation/mailbot/internal/reports"
)

type listOnlyStore struct {
	tickets []*core.Ticket
}

func (s *listOnlyStore) SaveTicket(ctx context.Context, t *core.Ticket) error { return nil }

func (s *listOnlyStore) CountTicketsSince(ctx context.Context, t time.Time) (int, error) {
	return 0, nil
}

func (s *listOnlyStore) ListTickets(ctx context.Context, t time.Time) ([]*core.Ticket, error) {
	var out []*core.Ticket
	for _, ticket := range s.tickets {
		if !ticket.CreatedAt.Before(t) {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (s *listOnlyStore) IsProcessed(ctx context.Context, hash string) (bool, error) {
	return false, nil
}

func (s *listOnlyStore) MarkProcessed(ctx context.Context, hash string, seenAt time.Time) error {
	return nil
}

func (s *listOnlyStore) Cleanup(ctx context.Context) error { return nil }

func reportTicket(number string, createdAt time.Time) *core.Ticket {
	return &core.Ticket{
		Number:    number,
		Category:  core.CategoryMaintenance,
		Priority:  core.PriorityNormal,
		Status:    core.TicketNew,
		CreatedAt: createdAt,
	}
}

func TestWriteDailyReportsExcludesNextDayTickets(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	store := &listOnlyStore{tickets: []*core.Ticket{
		reportTicket("EMB-20260830-0001", day.Add(10*time.Hour)),
		reportTicket("EMB-20260830-0002", day.Add(23*time.Hour+59*time.Minute)),
		// Created after midnight, before the rollover tick fired. Belongs
		// to the next day's report, not this one.
		reportTicket("EMB-20260831-0001", day.Add(24*time.Hour+time.Minute)),
	}}

	dir := t.TempDir()
	exporter, err := reports.NewCSVExporter(dir)
	if err != nil {
		t.Fatalf("NewCSVExporter: %v", err)
	}

	writeDailyReports(context.Background(), zap.NewNop(), store, exporter, day)

	f, err := os.Open(filepath.Join(dir, "tickets-20260830.csv"))
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	for _, row := range records[1:] {
		if row[0] == "EMB-20260831-0001" {
			t.Error("next-day ticket leaked into previous day's report")
		}
	}
}

func TestWriteDailyReportsEmptyDay(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	store := &listOnlyStore{tickets: []*core.Ticket{
		reportTicket("EMB-20260831-0001", day.Add(24*time.Hour+time.Minute)),
	}}

	dir := t.TempDir()
	exporter, err := reports.NewCSVExporter(dir)
	if err != nil {
		t.Fatalf("NewCSVExporter: %v", err)
	}

	writeDailyReports(context.Background(), zap.NewNop(), store, exporter, day)

	if _, err := os.Stat(filepath.Join(dir, "tickets-20260830.csv")); !os.IsNotExist(err) {
		t.Error("report written for a day with no tickets")
	}
}

func TestSameDate(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same day",
			a:    time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC),
			b:    time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "consecutive days",
			a:    time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2026, 8, 31, 0, 1, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "same day of month in different months",
			a:    time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "same day of year in different years",
			a:    time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameDate(tt.a, tt.b); got != tt.want {
				t.Errorf("sameDate = %t, want %t", got, tt.want)
			}
		})
	}
}

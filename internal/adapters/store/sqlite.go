package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/embassy-aviation/mailbot/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the TicketStore interface.
type SQLiteStore struct {
	db          *sql.DB
	logger      *zap.Logger
	dedupeTTL   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dbPath string, logger *zap.Logger, dedupeTTL, cleanupFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			number TEXT PRIMARY KEY,
			title TEXT,
			description TEXT,
			category TEXT,
			priority TEXT,
			status TEXT,
			customer_email TEXT,
			customer_name TEXT,
			aircraft_registration TEXT,
			confidence REAL,
			created_at TIMESTAMP,
			response_due_at TIMESTAMP,
			resolution_due_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tickets table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_messages (
			content_hash TEXT PRIMARY KEY,
			seen_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create processed_messages table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		logger:      logger,
		dedupeTTL:   dedupeTTL,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go s.startCleanupTask()

	return s, nil
}

// SaveTicket stores a new ticket.
func (s *SQLiteStore) SaveTicket(ctx context.Context, t *core.Ticket) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (
			number, title, description, category, priority, status,
			customer_email, customer_name, aircraft_registration, confidence,
			created_at, response_due_at, resolution_due_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Number, t.Title, t.Description, string(t.Category), string(t.Priority), string(t.Status),
		t.CustomerEmail, t.CustomerName, t.AircraftRegistration, t.Confidence,
		t.CreatedAt.Format(time.RFC3339), t.ResponseDueAt.Format(time.RFC3339), t.ResolutionDueAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// CountTicketsSince returns the number of tickets created at or after t.
func (s *SQLiteStore) CountTicketsSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tickets WHERE created_at >= ?
	`, t.Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

// ListTickets returns tickets created at or after t, oldest first.
func (s *SQLiteStore) ListTickets(ctx context.Context, t time.Time) ([]*core.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, title, description, category, priority, status,
			customer_email, customer_name, aircraft_registration, confidence,
			created_at, response_due_at, resolution_due_at
		FROM tickets
		WHERE created_at >= ?
		ORDER BY created_at ASC
	`, t.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*core.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return tickets, nil
}

func scanTicket(rows *sql.Rows) (*core.Ticket, error) {
	var t core.Ticket
	var category, priority, status string
	var createdAt, responseDueAt, resolutionDueAt string

	err := rows.Scan(&t.Number, &t.Title, &t.Description, &category, &priority, &status,
		&t.CustomerEmail, &t.CustomerName, &t.AircraftRegistration, &t.Confidence,
		&createdAt, &responseDueAt, &resolutionDueAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}

	t.Category = core.Category(category)
	t.Priority = core.Priority(priority)
	t.Status = core.TicketStatus(status)

	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if t.ResponseDueAt, err = time.Parse(time.RFC3339, responseDueAt); err != nil {
		return nil, fmt.Errorf("failed to parse response_due_at: %w", err)
	}
	if t.ResolutionDueAt, err = time.Parse(time.RFC3339, resolutionDueAt); err != nil {
		return nil, fmt.Errorf("failed to parse resolution_due_at: %w", err)
	}

	return &t, nil
}

// IsProcessed reports whether a content hash is within the de-dup window.
func (s *SQLiteStore) IsProcessed(ctx context.Context, contentHash string) (bool, error) {
	var seenAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT seen_at FROM processed_messages WHERE content_hash = ?
	`, contentHash).Scan(&seenAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query message state: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, seenAt)
	if err != nil {
		s.logger.Error("Failed to parse seen_at timestamp", zap.Error(err))
		return false, nil
	}
	return time.Since(ts) <= s.dedupeTTL, nil
}

// MarkProcessed records a content hash as handled.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, contentHash string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed_messages (content_hash, seen_at)
		VALUES (?, ?)
	`, contentHash, seenAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// Cleanup removes processed-message marks older than the de-dup window.
func (s *SQLiteStore) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-s.dedupeTTL)
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM processed_messages WHERE seen_at < ?
	`, cutoff.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to prune processed messages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Pruned processed-message marks", zap.Int64("pruned_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to prune expired marks
func (s *SQLiteStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (s *SQLiteStore) Stop() {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

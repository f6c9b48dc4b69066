package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/embassy-aviation/mailbot/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the TicketStore interface. The
// DSN must include parseTime=true so DATETIME columns scan into time.Time.
type MySQLStore struct {
	db          *sql.DB
	logger      *zap.Logger
	dedupeTTL   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLStore creates a new MySQL-backed store.
func NewMySQLStore(dsn string, logger *zap.Logger, dedupeTTL, cleanupFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			number VARCHAR(50) PRIMARY KEY,
			title VARCHAR(500),
			description TEXT,
			category VARCHAR(20),
			priority VARCHAR(20),
			status VARCHAR(20),
			customer_email VARCHAR(255),
			customer_name VARCHAR(255),
			aircraft_registration VARCHAR(20),
			confidence FLOAT,
			created_at DATETIME,
			response_due_at DATETIME,
			resolution_due_at DATETIME,
			INDEX idx_created_at (created_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tickets table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_messages (
			content_hash VARCHAR(64) PRIMARY KEY,
			seen_at DATETIME,
			INDEX idx_seen_at (seen_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create processed_messages table: %w", err)
	}

	s := &MySQLStore{
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
func (s *MySQLStore) SaveTicket(ctx context.Context, t *core.Ticket) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (
			number, title, description, category, priority, status,
			customer_email, customer_name, aircraft_registration, confidence,
			created_at, response_due_at, resolution_due_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Number, t.Title, t.Description, string(t.Category), string(t.Priority), string(t.Status),
		t.CustomerEmail, t.CustomerName, t.AircraftRegistration, t.Confidence,
		t.CreatedAt, t.ResponseDueAt, t.ResolutionDueAt)

	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// CountTicketsSince returns the number of tickets created at or after t.
func (s *MySQLStore) CountTicketsSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tickets WHERE created_at >= ?
	`, t).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

// ListTickets returns tickets created at or after t, oldest first.
func (s *MySQLStore) ListTickets(ctx context.Context, t time.Time) ([]*core.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, title, description, category, priority, status,
			customer_email, customer_name, aircraft_registration, confidence,
			created_at, response_due_at, resolution_due_at
		FROM tickets
		WHERE created_at >= ?
		ORDER BY created_at ASC
	`, t)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*core.Ticket
	for rows.Next() {
		var ticket core.Ticket
		var category, priority, status string
		err := rows.Scan(&ticket.Number, &ticket.Title, &ticket.Description,
			&category, &priority, &status,
			&ticket.CustomerEmail, &ticket.CustomerName, &ticket.AircraftRegistration,
			&ticket.Confidence, &ticket.CreatedAt, &ticket.ResponseDueAt, &ticket.ResolutionDueAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		ticket.Category = core.Category(category)
		ticket.Priority = core.Priority(priority)
		ticket.Status = core.TicketStatus(status)
		tickets = append(tickets, &ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return tickets, nil
}

// IsProcessed reports whether a content hash is within the de-dup window.
func (s *MySQLStore) IsProcessed(ctx context.Context, contentHash string) (bool, error) {
	var seenAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT seen_at FROM processed_messages WHERE content_hash = ?
	`, contentHash).Scan(&seenAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query message state: %w", err)
	}
	return time.Since(seenAt) <= s.dedupeTTL, nil
}

// MarkProcessed records a content hash as handled.
func (s *MySQLStore) MarkProcessed(ctx context.Context, contentHash string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages (content_hash, seen_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE seen_at = VALUES(seen_at)
	`, contentHash, seenAt)
	if err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// Cleanup removes processed-message marks older than the de-dup window.
func (s *MySQLStore) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-s.dedupeTTL)
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM processed_messages WHERE seen_at < ?
	`, cutoff)
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
func (s *MySQLStore) startCleanupTask() {
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
func (s *MySQLStore) Stop() {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}

package core

import (
	"context"
	"time"
)

// Classifier assigns a category, priority and confidence to an email.
// Implementations must be total: any input, including empty text, yields a
// valid result and never an error. Implementations must also be safe for
// concurrent use, since batch processing fans classification out across
// workers.
type Classifier interface {
	Classify(email *Email) *ClassificationResult
}

// TicketStore persists tickets and the processed-message marks used for
// de-duplication.
type TicketStore interface {
	// SaveTicket stores a new ticket.
	SaveTicket(ctx context.Context, ticket *Ticket) error

	// CountTicketsSince returns the number of tickets created at or after t.
	CountTicketsSince(ctx context.Context, t time.Time) (int, error)

	// ListTickets returns tickets created at or after t, oldest first.
	ListTickets(ctx context.Context, t time.Time) ([]*Ticket, error)

	// IsProcessed reports whether an email content hash was already handled.
	IsProcessed(ctx context.Context, contentHash string) (bool, error)

	// MarkProcessed records an email content hash as handled.
	MarkProcessed(ctx context.Context, contentHash string, seenAt time.Time) error

	// Cleanup removes processed-message marks older than the retention window.
	Cleanup(ctx context.Context) error
}

// EmailSource fetches inbound emails from a mailbox or directory.
type EmailSource interface {
	// Fetch returns the next batch of emails to triage.
	Fetch(ctx context.Context) ([]*Email, error)

	// Close releases the underlying connection or handles.
	Close() error
}

// Notifier delivers customer-facing acknowledgements for opened tickets.
type Notifier interface {
	SendAcknowledgement(ctx context.Context, ticket *Ticket) error
}

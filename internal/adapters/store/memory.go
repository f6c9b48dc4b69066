package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/embassy-aviation/mailbot/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the TicketStore interface,
// intended for tests and single-run triage sessions.
type MemoryStore struct {
	tickets     []*core.Ticket
	processed   map[string]time.Time
	mu          sync.RWMutex
	logger      *zap.Logger
	dedupeTTL   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryStore creates a new in-memory store with background pruning of
// processed-message marks.
func NewMemoryStore(logger *zap.Logger, dedupeTTL, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		processed:   make(map[string]time.Time),
		logger:      logger,
		dedupeTTL:   dedupeTTL,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go s.startCleanupTask()

	return s
}

// SaveTicket stores a new ticket.
func (s *MemoryStore) SaveTicket(ctx context.Context, ticket *core.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *ticket
	s.tickets = append(s.tickets, &copied)
	return nil
}

// CountTicketsSince returns the number of tickets created at or after t.
func (s *MemoryStore) CountTicketsSince(ctx context.Context, t time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ticket := range s.tickets {
		if !ticket.CreatedAt.Before(t) {
			count++
		}
	}
	return count, nil
}

// ListTickets returns tickets created at or after t, oldest first.
func (s *MemoryStore) ListTickets(ctx context.Context, t time.Time) ([]*core.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Ticket
	for _, ticket := range s.tickets {
		if !ticket.CreatedAt.Before(t) {
			copied := *ticket
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// IsProcessed reports whether a content hash was already handled and is
// still within the de-duplication window.
func (s *MemoryStore) IsProcessed(ctx context.Context, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seenAt, ok := s.processed[contentHash]
	if !ok {
		return false, nil
	}
	if time.Since(seenAt) > s.dedupeTTL {
		return false, nil
	}
	return true, nil
}

// MarkProcessed records a content hash as handled.
func (s *MemoryStore) MarkProcessed(ctx context.Context, contentHash string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed[contentHash] = seenAt
	return nil
}

// Cleanup removes processed-message marks older than the de-dup window.
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.dedupeTTL)
	prunedCount := 0

	for hash, seenAt := range s.processed {
		if seenAt.Before(cutoff) {
			delete(s.processed, hash)
			prunedCount++
		}
	}

	s.logger.Debug("Pruned processed-message marks", zap.Int("pruned_count", prunedCount))
	return nil
}

// startCleanupTask starts a background task to prune expired marks
func (s *MemoryStore) startCleanupTask() {
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

// Stop stops the background cleanup task.
func (s *MemoryStore) Stop() {
	close(s.stopCh)
}

package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TriageService is the core service turning inbound emails into tickets.
type TriageService struct {
	classifier          Classifier
	store               TicketStore
	notifier            Notifier
	logger              *zap.Logger
	minTicketConfidence float64
	ackEnabled          bool
	senderPolicy        bool
	now                 func() time.Time
}

// NewTriageService creates a new triage service.
func NewTriageService(
	classifier Classifier,
	store TicketStore,
	notifier Notifier,
	logger *zap.Logger,
	minTicketConfidence float64,
	ackEnabled bool,
	senderPolicy bool,
) *TriageService {
	return &TriageService{
		classifier:          classifier,
		store:               store,
		notifier:            notifier,
		logger:              logger,
		minTicketConfidence: minTicketConfidence,
		ackEnabled:          ackEnabled,
		senderPolicy:        senderPolicy,
		now:                 time.Now,
	}
}

// TriageOutcome reports what happened to a single email.
type TriageOutcome struct {
	Email      *Email
	Result     *ClassificationResult
	Ticket     *Ticket
	Skipped    bool
	SkipReason string
}

// ProcessEmail classifies one email and runs the full triage on the result.
func (s *TriageService) ProcessEmail(ctx context.Context, email *Email) (*TriageOutcome, error) {
	return s.ProcessClassified(ctx, email, s.classifier.Classify(email))
}

// ProcessClassified runs triage on an already-classified email. It is split
// from ProcessEmail so the batch driver can fan classification out across
// workers and apply the (store-writing) triage sequentially.
func (s *TriageService) ProcessClassified(ctx context.Context, email *Email, result *ClassificationResult) (*TriageOutcome, error) {
	outcome := &TriageOutcome{Email: email, Result: result}

	hash := ContentHash(email)
	seen, err := s.store.IsProcessed(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check message state: %w", err)
	}
	if seen {
		outcome.Skipped = true
		outcome.SkipReason = "duplicate message"
		s.logger.Debug("Skipping duplicate message",
			zap.String("sender", email.From),
			zap.String("content_hash", hash))
		return outcome, nil
	}

	s.logger.Info("Classified email",
		zap.String("sender", email.From),
		zap.String("category", string(result.Category)),
		zap.String("priority", string(result.Priority)),
		zap.Float64("confidence", result.Confidence),
		zap.String("aircraft", result.AircraftRegistration()))

	if !s.shouldOpenTicket(result) {
		outcome.Skipped = true
		outcome.SkipReason = "not a service request"
		if err := s.store.MarkProcessed(ctx, hash, s.now()); err != nil {
			s.logger.Error("Failed to mark message processed", zap.Error(err))
		}
		return outcome, nil
	}

	ticket, err := s.createTicket(ctx, email, result)
	if err != nil {
		return nil, err
	}
	outcome.Ticket = ticket

	if err := s.store.MarkProcessed(ctx, hash, s.now()); err != nil {
		s.logger.Error("Failed to mark message processed", zap.Error(err))
	}

	if s.ackEnabled {
		if err := s.notifier.SendAcknowledgement(ctx, ticket); err != nil {
			// Acknowledgement failures never roll back the ticket.
			s.logger.Error("Failed to send acknowledgement",
				zap.Error(err),
				zap.String("ticket", ticket.Number))
		}
	}

	return outcome, nil
}

// shouldOpenTicket decides whether a classified email warrants a ticket.
// AOG always does; general inquiries only above the confidence floor.
func (s *TriageService) shouldOpenTicket(result *ClassificationResult) bool {
	if result.IsAOG() {
		return true
	}
	if result.Category == CategoryGeneral {
		return result.Confidence >= s.minTicketConfidence
	}
	return true
}

func (s *TriageService) createTicket(ctx context.Context, email *Email, result *ClassificationResult) (*Ticket, error) {
	now := s.now().UTC()

	number, err := s.nextTicketNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(email.Subject)
	if title == "" {
		title = "Service Request"
	}

	category, priority := result.Category, result.Priority
	if s.senderPolicy {
		category, priority = applySenderPolicy(email.From, category, priority)
	}

	ticket := &Ticket{
		Number:               number,
		Title:                title,
		Description:          email.Body,
		Category:             category,
		Priority:             priority,
		Status:               TicketNew,
		CustomerEmail:        email.From,
		CustomerName:         email.FromName,
		AircraftRegistration: result.AircraftRegistration(),
		Confidence:           result.Confidence,
		CreatedAt:            now,
		ResponseDueAt:        now.Add(responseSLA(result.Priority)),
		ResolutionDueAt:      now.Add(resolutionSLA(result.Priority)),
	}

	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	s.logger.Info("Ticket created",
		zap.String("ticket", ticket.Number),
		zap.String("category", string(ticket.Category)),
		zap.String("priority", string(ticket.Priority)))

	return ticket, nil
}

// nextTicketNumber generates numbers of the form EMB-YYYYMMDD-NNNN, where
// the sequence restarts each UTC day.
func (s *TriageService) nextTicketNumber(ctx context.Context, now time.Time) (string, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := s.store.CountTicketsSince(ctx, midnight)
	if err != nil {
		return "", fmt.Errorf("failed to count today's tickets: %w", err)
	}
	return fmt.Sprintf("EMB-%s-%04d", now.Format("20060102"), count+1), nil
}

func responseSLA(p Priority) time.Duration {
	switch p {
	case PriorityCritical:
		return 15 * time.Minute
	case PriorityHigh:
		return time.Hour
	case PriorityNormal:
		return 4 * time.Hour
	default:
		return 8 * time.Hour
	}
}

func resolutionSLA(p Priority) time.Duration {
	switch p {
	case PriorityCritical:
		return 2 * time.Hour
	case PriorityHigh:
		return 8 * time.Hour
	case PriorityNormal:
		return 24 * time.Hour
	default:
		return 48 * time.Hour
	}
}

// Sender-department keywords used by the optional ticket-level sender
// policy. The classification result itself is never modified; only the
// ticket fields are adjusted.
var (
	urgentDepartments  = []string{"emergency", "ops", "dispatch", "control"}
	billingDepartments = []string{"billing", "admin", "accounting", "finance"}
)

// applySenderPolicy nudges ticket routing by the sender's mailbox name:
// operations desks get a one-step priority bump below CRITICAL, and
// unclassified mail from billing desks is routed as invoice traffic.
func applySenderPolicy(from string, category Category, priority Priority) (Category, Priority) {
	local := strings.ToLower(from)
	if at := strings.Index(local, "@"); at > 0 {
		local = local[:at]
	}

	for _, dept := range urgentDepartments {
		if strings.Contains(local, dept) {
			switch priority {
			case PriorityLow:
				priority = PriorityNormal
			case PriorityNormal:
				priority = PriorityHigh
			}
			break
		}
	}

	if category == CategoryGeneral {
		for _, dept := range billingDepartments {
			if strings.Contains(local, dept) {
				category = CategoryInvoice
				break
			}
		}
	}

	return category, priority
}

// ContentHash returns a stable fingerprint for de-duplicating emails.
func ContentHash(email *Email) string {
	h := sha256.New()
	h.Write([]byte(email.From))
	h.Write([]byte{0})
	h.Write([]byte(email.Subject))
	h.Write([]byte{0})
	h.Write([]byte(email.Body))
	return hex.EncodeToString(h.Sum(nil))
}

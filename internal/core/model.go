package core

import (
	"time"
)

// Category is the operational category assigned to an inbound email.
type Category string

const (
	CategoryAOG         Category = "AOG"
	CategoryMaintenance Category = "MAINTENANCE"
	CategoryParts       Category = "PARTS"
	CategoryInvoice     Category = "INVOICE"
	CategoryGeneral     Category = "GENERAL"
)

// categoryRank is the fixed tie-break order between categories with equal
// scores. Higher rank wins.
var categoryRank = map[Category]int{
	CategoryAOG:         5,
	CategoryMaintenance: 4,
	CategoryParts:       3,
	CategoryInvoice:     2,
	CategoryGeneral:     1,
}

// Rank returns the tie-break rank of the category, or 0 for unknown values.
func (c Category) Rank() int {
	return categoryRank[c]
}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Priority is the urgency assigned to a classified email and its ticket.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var priorityRank = map[Priority]int{
	PriorityLow:      1,
	PriorityNormal:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// Rank returns the ordering rank of the priority, or 0 for unknown values.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// MaxPriority returns the higher-ranked of two priorities.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Email represents a decoded inbound email message. The ingestion adapter
// guarantees subject and body are decoded text and that From is a normalized
// address; the engine does not re-validate them.
type Email struct {
	MessageID  string
	From       string
	FromName   string
	To         []string
	Subject    string
	Body       string
	HTMLBody   string
	ReceivedAt time.Time
}

// Rule is a single weighted keyword rule contributing to one category's
// score. The rule table is loaded once at startup and read-only thereafter.
type Rule struct {
	Name         string
	Category     Category
	Keywords     []string
	Weight       float64
	PriorityHint Priority
}

// CategoryScore is one category's accumulated score for a single email.
type CategoryScore struct {
	Category        Category
	Score           float64
	MatchedKeywords []string
}

// EntityKind identifies the type of an extracted entity.
type EntityKind string

const (
	EntityAircraftRegistration EntityKind = "aircraft_registration"
	EntityTicketReference      EntityKind = "ticket_reference"
	EntityOther                EntityKind = "other"
)

// ExtractedEntity is a structured token pulled out of the email text.
// Country is set only for aircraft registrations.
type ExtractedEntity struct {
	Kind    EntityKind
	Value   string
	Country string
}

// ClassificationResult is the immutable outcome of classifying one email.
// Exactly one category and one priority; confidence is in [0,1]; the
// category is GENERAL only when no rule cleared the minimum score threshold.
type ClassificationResult struct {
	Category     Category
	Priority     Priority
	Confidence   float64
	Entities     []ExtractedEntity
	MatchedRules []Rule
	Reasoning    string
}

// IsAOG reports whether the email was classified as Aircraft on Ground.
func (r *ClassificationResult) IsAOG() bool {
	return r.Category == CategoryAOG
}

// AircraftRegistration returns the first extracted registration, or "".
func (r *ClassificationResult) AircraftRegistration() string {
	for _, e := range r.Entities {
		if e.Kind == EntityAircraftRegistration {
			return e.Value
		}
	}
	return ""
}

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketNew      TicketStatus = "new"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

// Ticket is a service-request ticket opened from a classified email.
type Ticket struct {
	Number               string
	Title                string
	Description          string
	Category             Category
	Priority             Priority
	Status               TicketStatus
	CustomerEmail        string
	CustomerName         string
	AircraftRegistration string
	Confidence           float64
	CreatedAt            time.Time
	ResponseDueAt        time.Time
	ResolutionDueAt      time.Time
}

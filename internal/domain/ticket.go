package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// TicketPriority enumerates complaint urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Escalates reports whether a ticket with this priority notifies staff on creation.
func (p TicketPriority) Escalates() bool {
	return p == TicketPriorityHigh || p == TicketPriorityUrgent
}

// OverdueAfter is the age after which an unresolved ticket counts as overdue.
func (p TicketPriority) OverdueAfter() time.Duration {
	switch p {
	case TicketPriorityUrgent:
		return 2 * time.Hour
	case TicketPriorityHigh:
		return 24 * time.Hour
	case TicketPriorityLow:
		return 168 * time.Hour
	default:
		return 72 * time.Hour
	}
}

// TicketCategory is the subject area of a complaint.
type TicketCategory string

const (
	CategoryMaintenance TicketCategory = "maintenance"
	CategoryCleaning    TicketCategory = "cleaning"
	CategoryMedical     TicketCategory = "medical"
	CategoryWifi        TicketCategory = "wifi"
	CategoryElectricity TicketCategory = "electricity"
	CategoryWater       TicketCategory = "water"
	CategorySecurity    TicketCategory = "security"
	CategoryOther       TicketCategory = "other"
)

// Categories lists every category in prompt order.
var Categories = []TicketCategory{
	CategoryMaintenance,
	CategoryCleaning,
	CategoryMedical,
	CategoryWifi,
	CategoryElectricity,
	CategoryWater,
	CategorySecurity,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ClassificationSource records where a category or priority came from.
type ClassificationSource string

const (
	SourceAI      ClassificationSource = "ai"
	SourceDefault ClassificationSource = "default"
	SourceManual  ClassificationSource = "manual"
)

// Location pins a complaint inside the hostel.
type Location struct {
	RoomNumber       string `json:"roomNumber,omitempty"`
	Block            string `json:"block,omitempty"`
	SpecificLocation string `json:"specificLocation,omitempty"`
}

// Image references an uploaded photo.
type Image struct {
	URL       string `json:"url"`
	StorageID string `json:"publicId"`
}

// AIAnalysis keeps the classifier output alongside the ticket.
type AIAnalysis struct {
	CategoryConfidence float64              `json:"categoryConfidence"`
	PriorityConfidence float64              `json:"priorityConfidence"`
	CategorySource     ClassificationSource `json:"categorySource"`
	PrioritySource     ClassificationSource `json:"prioritySource"`
	Keywords           []string             `json:"extractedKeywords"`
	SuggestedActions   []string             `json:"suggestedActions"`
	Reasoning          string               `json:"reasoning,omitempty"`
}

// Resolution is written when staff resolve a ticket with a description.
type Resolution struct {
	Description string    `json:"description"`
	ResolvedBy  string    `json:"resolvedBy"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

// Comment is an entry in a ticket's append-only discussion.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Message   string
	CreatedAt time.Time
	Author    *UserSummary
}

// Ticket is the aggregate for hostel complaints.
type Ticket struct {
	ID              string
	Title           string
	Description     string
	Category        TicketCategory
	Priority        TicketPriority
	Status          TicketStatus
	StudentID       string
	AssigneeID      *string
	Location        Location
	Images          []Image
	AIAnalysis      AIAnalysis
	Resolution      *Resolution
	Comments        []Comment
	EscalationLevel int
	LastEscalatedAt *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Student  *UserSummary
	Assignee *UserSummary
}

// IsOverdue reports whether an unresolved ticket has outlived its priority threshold.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.Status != TicketStatusOpen && t.Status != TicketStatusInProgress {
		return false
	}
	return now.Sub(t.CreatedAt) > t.Priority.OverdueAfter()
}

// ResolutionLatency is the time from creation to resolution, zero when unresolved.
func (t *Ticket) ResolutionLatency() time.Duration {
	if t.Resolution == nil {
		return 0
	}
	return t.Resolution.ResolvedAt.Sub(t.CreatedAt)
}

// DueForEscalation reports whether the sweeper should escalate the ticket again.
func (t *Ticket) DueForEscalation(now time.Time) bool {
	if !t.IsOverdue(now) {
		return false
	}
	if t.LastEscalatedAt == nil {
		return true
	}
	return now.Sub(*t.LastEscalatedAt) > t.Priority.OverdueAfter()
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusCancelled},
	TicketStatusClosed:     {},
	TicketStatusCancelled:  {},
}

// CanTransition reports whether the lifecycle allows moving from current to next.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

package events

import (
	"time"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated               EventType = "ticket_created"
	EventTicketStatusChanged         EventType = "ticket_status_changed"
	EventTicketAssigned              EventType = "ticket_assigned"
	EventTicketCommentAdded          EventType = "ticket_comment_added"
	EventTicketClassificationChanged EventType = "ticket_classification_changed"
	EventTicketEscalated             EventType = "ticket_escalated"
)

// Actor identifies who caused an event. Empty for system actions.
type Actor struct {
	UserID string      `json:"userId,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorOf builds the Actor for user.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticketId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	// Ticket is the state after the change.
	Ticket  *domain.Ticket `json:"-"`
	Payload any            `json:"payload,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"oldStatus"`
	NewStatus domain.TicketStatus `json:"newStatus"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAssigneeID *string `json:"previousAssigneeId,omitempty"`
	AssigneeID         string  `json:"assigneeId"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"commentId"`
	AuthorID    string `json:"authorId"`
	BodyPreview string `json:"bodyPreview"`
}

// TicketClassificationChangedPayload payload.
type TicketClassificationChangedPayload struct {
	OldCategory domain.TicketCategory `json:"oldCategory"`
	NewCategory domain.TicketCategory `json:"newCategory"`
	OldPriority domain.TicketPriority `json:"oldPriority"`
	NewPriority domain.TicketPriority `json:"newPriority"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Level int `json:"level"`
}

package dto

import (
	"time"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// CreateTicketRequest is the JSON form of ticket creation. Multipart requests
// carry the same fields, with location as a JSON string and images as files.
type CreateTicketRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    *domain.TicketCategory `json:"category"`
	Location    domain.Location        `json:"location"`
	Images      []domain.Image         `json:"images"`
}

// StatusUpdateRequest payload.
type StatusUpdateRequest struct {
	Status                domain.TicketStatus `json:"status"`
	AssignedTo            *string             `json:"assignedTo"`
	ResolutionDescription *string             `json:"resolutionDescription"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

// ClassificationRequest payload.
type ClassificationRequest struct {
	Category *domain.TicketCategory `json:"category"`
	Priority *domain.TicketPriority `json:"priority"`
}

// CommentRequest payload.
type CommentRequest struct {
	Message string `json:"message"`
}

// CommentResponse is one entry of the discussion.
type CommentResponse struct {
	ID        string              `json:"id"`
	User      *domain.UserSummary `json:"user"`
	Message   string              `json:"message"`
	CreatedAt time.Time           `json:"createdAt"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Category        domain.TicketCategory `json:"category"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	Student         *domain.UserSummary   `json:"student"`
	AssignedTo      *domain.UserSummary   `json:"assignedTo"`
	Location        domain.Location       `json:"location"`
	Images          []domain.Image        `json:"images"`
	AIAnalysis      domain.AIAnalysis     `json:"aiAnalysis"`
	Resolution      *domain.Resolution    `json:"resolution,omitempty"`
	Comments        []CommentResponse     `json:"comments"`
	EscalationLevel int                   `json:"escalationLevel"`
	Overdue         bool                  `json:"overdue"`
	Version         int                   `json:"version"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Tickets     []TicketResponse `json:"tickets"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Total       int              `json:"total"`
}

// TicketEnvelope wraps a ticket with a human readable message.
type TicketEnvelope struct {
	Message string         `json:"message"`
	Ticket  TicketResponse `json:"ticket"`
}

// NewTicketResponse renders t; overdue is evaluated at now.
func NewTicketResponse(t *domain.Ticket, now time.Time) TicketResponse {
	resp := TicketResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Category:        t.Category,
		Priority:        t.Priority,
		Status:          t.Status,
		Student:         t.Student,
		AssignedTo:      t.Assignee,
		Location:        t.Location,
		Images:          t.Images,
		AIAnalysis:      t.AIAnalysis,
		Resolution:      t.Resolution,
		Comments:        make([]CommentResponse, 0, len(t.Comments)),
		EscalationLevel: t.EscalationLevel,
		Overdue:         t.IsOverdue(now),
		Version:         t.Version,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []domain.Image{}
	}
	if resp.Student == nil {
		resp.Student = &domain.UserSummary{ID: t.StudentID}
	}
	if resp.AssignedTo == nil && t.AssigneeID != nil {
		resp.AssignedTo = &domain.UserSummary{ID: *t.AssigneeID}
	}
	for _, c := range t.Comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(&c))
	}
	return resp
}

// NewCommentResponse renders a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	author := c.Author
	if author == nil {
		author = &domain.UserSummary{ID: c.AuthorID}
	}
	return CommentResponse{ID: c.ID, User: author, Message: c.Message, CreatedAt: c.CreatedAt}
}

// NewTicketList renders a page of tickets.
func NewTicketList(tickets []domain.Ticket, total, totalPages, currentPage int, now time.Time) TicketListResponse {
	out := TicketListResponse{
		Tickets:     make([]TicketResponse, 0, len(tickets)),
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		Total:       total,
	}
	for i := range tickets {
		out.Tickets = append(out.Tickets, NewTicketResponse(&tickets[i], now))
	}
	return out
}

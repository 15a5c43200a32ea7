package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/classifier"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/events"
	"github.com/myhostelpal/complaint-service/internal/observability"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
	"github.com/myhostelpal/complaint-service/pkg/util/validation"
)

// Analyzer derives category and priority for a complaint.
type Analyzer interface {
	Analyze(ctx context.Context, title, description string, category *domain.TicketCategory) classifier.Analysis
}

// TicketService owns the ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	analyzer   Analyzer
	notifier   *NotificationService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Analyzer   Analyzer
	Notifier   *NotificationService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string                 `json:"title" validate:"required,min=5,max=100"`
	Description string                 `json:"description" validate:"required,min=10,max=1000"`
	Category    *domain.TicketCategory `json:"category" validate:"omitempty,oneof=maintenance cleaning medical wifi electricity water security other"`
	Location    domain.Location        `json:"location"`
	Images      []domain.Image         `json:"images" validate:"max=5"`
}

// UpdateStatusInput describes a staff status change.
type UpdateStatusInput struct {
	Status                domain.TicketStatus
	AssigneeID            *string
	ResolutionDescription *string
}

// TicketListFilter describes list filters shared by students and staff.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Category   *domain.TicketCategory
	Priority   *domain.TicketPriority
	AssigneeID *string
	Page       int
	Limit      int
}

// TicketPage is one page of tickets.
type TicketPage struct {
	Tickets     []domain.Ticket
	Total       int
	TotalPages  int
	CurrentPage int
}

const maxCommentLength = 500

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		analyzer:   deps.Analyzer,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        clock,
	}
}

// CreateTicket files a complaint. Classification runs before the first write;
// escalation, notification and event fan-out happen after it and never undo it.
func (s *TicketService) CreateTicket(ctx context.Context, student *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	location := input.Location
	if location.RoomNumber == "" {
		location.RoomNumber = student.RoomNumber
	}
	if location.Block == "" {
		location.Block = student.HostelBlock
	}

	analysis := s.analyzer.Analyze(ctx, input.Title, input.Description, input.Category)

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Category:    analysis.Category.Category,
		Priority:    analysis.Priority.Priority,
		Status:      domain.TicketStatusOpen,
		StudentID:   student.ID,
		Location:    location,
		Images:      input.Images,
		AIAnalysis:  analysis.ToDomain(),
	}
	if ticket.Images == nil {
		ticket.Images = []domain.Image{}
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "ticket", "")
	}
	ticket.Student = student.Summary()

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("category", string(ticket.Category)),
		zap.String("priority", string(ticket.Priority)),
		zap.Bool("category_default", analysis.Category.Default),
		zap.Bool("priority_default", analysis.Priority.Default),
	)

	if ticket.Priority.Escalates() {
		s.notifier.Escalate(ctx, ticket)
	}
	s.notify(ctx, NotifyInput{
		Recipient: student,
		TicketID:  &ticket.ID,
		Title:     "Ticket Created",
		Message: fmt.Sprintf("Your ticket %q has been created and categorized as %s with %s priority.",
			ticket.Title, ticket.Category, ticket.Priority),
		Type:     domain.NotificationTicketCreated,
		Priority: ticket.Priority,
	})
	s.publish(ctx, events.EventTicketCreated, student, ticket, nil)
	return ticket, nil
}

// GetTicket returns a ticket with its comments. Students only see their own.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string, viewer *domain.User) (*domain.Ticket, error) {
	if err := checkID("ticket", ticketID); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}
	if !viewer.Role.IsStaff() && ticket.StudentID != viewer.ID {
		return nil, apperrors.NewForbidden()
	}
	return ticket, nil
}

// AddComment appends a comment and notifies the other party.
func (s *TicketService) AddComment(ctx context.Context, ticketID string, author *domain.User, message string) (*domain.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewFieldError("message", "is required")
	}
	if len([]rune(message)) > maxCommentLength {
		return nil, apperrors.NewFieldError("message", fmt.Sprintf("must be at most %d characters", maxCommentLength))
	}
	if err := checkID("ticket", ticketID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}
	if !author.Role.IsStaff() && ticket.StudentID != author.ID {
		return nil, apperrors.NewForbidden()
	}

	comment := &domain.Comment{TicketID: ticket.ID, AuthorID: author.ID, Message: message}
	if err := s.tickets.AppendComment(ctx, comment); err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}
	comment.Author = author.Summary()

	switch {
	case author.Role.IsStaff() && author.ID != ticket.StudentID:
		if student := s.lookupUser(ctx, ticket.StudentID); student != nil {
			s.notify(ctx, NotifyInput{
				Recipient: student,
				TicketID:  &ticket.ID,
				Title:     "Staff Response",
				Message:   fmt.Sprintf("A staff member responded to your ticket %q.", ticket.Title),
				Type:      domain.NotificationTicketUpdated,
				Priority:  ticket.Priority,
			})
		}
	case ticket.AssigneeID != nil && *ticket.AssigneeID != author.ID:
		if assignee := s.lookupUser(ctx, *ticket.AssigneeID); assignee != nil {
			s.notify(ctx, NotifyInput{
				Recipient: assignee,
				TicketID:  &ticket.ID,
				Title:     "Student Comment",
				Message:   fmt.Sprintf("%s commented on ticket %q.", author.Name, ticket.Title),
				Type:      domain.NotificationTicketUpdated,
				Priority:  ticket.Priority,
			})
		}
	}

	s.publish(ctx, events.EventTicketCommentAdded, author, ticket, events.TicketCommentAddedPayload{
		CommentID:   comment.ID,
		AuthorID:    author.ID,
		BodyPreview: preview(message, 80),
	})
	return comment, nil
}

// UpdateStatus moves a ticket through the lifecycle. Checks run in order:
// role, status value, existence, transition, assignee; nothing is written
// unless all pass.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, actor *domain.User, input UpdateStatusInput) (*domain.Ticket, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden()
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewFieldError("status", "must be one of open, in_progress, resolved, closed, cancelled")
	}
	if err := checkID("ticket", ticketID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}
	oldStatus := ticket.Status
	if !domain.CanTransition(oldStatus, input.Status) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(input.Status))
	}

	var assignee *domain.User
	if input.AssigneeID != nil && *input.AssigneeID != "" {
		if assignee, err = s.resolveAssignee(ctx, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	previousAssignee := ticket.AssigneeID
	ticket.Status = input.Status
	if assignee != nil {
		ticket.AssigneeID = &assignee.ID
		ticket.Assignee = assignee.Summary()
	}
	if input.Status == domain.TicketStatusResolved && input.ResolutionDescription != nil {
		if desc := strings.TrimSpace(*input.ResolutionDescription); desc != "" {
			ticket.Resolution = &domain.Resolution{Description: desc, ResolvedBy: actor.ID, ResolvedAt: s.now()}
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}
	if ticket.Resolution != nil && input.Status == domain.TicketStatusResolved {
		s.metrics.RecordResolution(string(ticket.Priority), ticket.ResolutionLatency())
	}

	s.notifyStudentOfStatus(ctx, ticket)
	assigneeChanged := assignee != nil && (previousAssignee == nil || *previousAssignee != assignee.ID)
	if assigneeChanged {
		s.notifyAssignee(ctx, ticket, assignee)
	}

	s.publish(ctx, events.EventTicketStatusChanged, actor, ticket, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: ticket.Status,
	})
	if assigneeChanged {
		s.publish(ctx, events.EventTicketAssigned, actor, ticket, events.TicketAssignedPayload{
			PreviousAssigneeID: previousAssignee,
			AssigneeID:         assignee.ID,
		})
	}
	return ticket, nil
}

// ListMyTickets pages through the student's own tickets, newest first.
func (s *TicketService) ListMyTickets(ctx context.Context, student *domain.User, filter TicketListFilter) (*TicketPage, error) {
	filter.AssigneeID = nil
	repoFilter, err := toRepoFilter(filter)
	if err != nil {
		return nil, err
	}
	repoFilter.StudentID = &student.ID
	return s.list(ctx, repoFilter, filter)
}

// ListTickets pages through all tickets for staff, most urgent first.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) (*TicketPage, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden()
	}
	repoFilter, err := toRepoFilter(filter)
	if err != nil {
		return nil, err
	}
	repoFilter.ByPriority = true
	return s.list(ctx, repoFilter, filter)
}

func (s *TicketService) list(ctx context.Context, repoFilter repository.TicketFilter, filter TicketListFilter) (*TicketPage, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	repoFilter.Limit = limit
	repoFilter.Offset = (page - 1) * limit

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.tickets.Count(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return &TicketPage{
		Tickets:     tickets,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}, nil
}

// EscalateOverdue re-escalates unresolved tickets that outlived their
// priority threshold since creation or since their last escalation.
func (s *TicketService) EscalateOverdue(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.tickets.ListUnresolvedBefore(ctx, now.Add(-domain.TicketPriorityUrgent.OverdueAfter()))
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	escalated := 0
	for i := range candidates {
		ticket := &candidates[i]
		if !ticket.DueForEscalation(now) {
			continue
		}
		level := ticket.EscalationLevel + 1
		if err := s.tickets.MarkEscalated(ctx, ticket.ID, level, now); err != nil {
			s.logger.Error("mark ticket escalated", zap.Error(err), zap.String("ticket_id", ticket.ID))
			continue
		}
		ticket.EscalationLevel = level
		ticket.LastEscalatedAt = &now

		s.logger.Warn("ticket overdue, escalating",
			zap.String("ticket_id", ticket.ID),
			zap.String("priority", string(ticket.Priority)),
			zap.Int("level", level),
		)
		s.notifier.Escalate(ctx, ticket)
		s.publish(ctx, events.EventTicketEscalated, nil, ticket, events.TicketEscalatedPayload{Level: level})
		escalated++
	}
	return escalated, nil
}

func (s *TicketService) notifyStudentOfStatus(ctx context.Context, ticket *domain.Ticket) {
	student := s.lookupUser(ctx, ticket.StudentID)
	if student == nil {
		return
	}

	title, message := statusMessage(ticket)
	in := NotifyInput{
		Recipient: student,
		TicketID:  &ticket.ID,
		Title:     title,
		Message:   message,
		Type:      domain.NotificationTicketUpdated,
		Priority:  ticket.Priority,
	}
	switch ticket.Status {
	case domain.TicketStatusResolved:
		in.Type = domain.NotificationTicketResolved
		in.Channels = []domain.NotificationChannel{domain.ChannelEmail}
	case domain.TicketStatusClosed:
		in.Channels = []domain.NotificationChannel{domain.ChannelEmail}
	}
	s.notify(ctx, in)
}

func (s *TicketService) notifyAssignee(ctx context.Context, ticket *domain.Ticket, assignee *domain.User) {
	s.notify(ctx, NotifyInput{
		Recipient: assignee,
		TicketID:  &ticket.ID,
		Title:     "Ticket Assigned",
		Message:   fmt.Sprintf("You have been assigned ticket %q (%s priority).", ticket.Title, ticket.Priority),
		Type:      domain.NotificationTicketAssigned,
		Priority:  ticket.Priority,
	})
}

func statusMessage(ticket *domain.Ticket) (string, string) {
	switch ticket.Status {
	case domain.TicketStatusInProgress:
		return "Ticket In Progress", fmt.Sprintf("Your ticket %q is now being worked on.", ticket.Title)
	case domain.TicketStatusResolved:
		return "Ticket Resolved", fmt.Sprintf("Your ticket %q has been resolved.", ticket.Title)
	case domain.TicketStatusClosed:
		return "Ticket Closed", fmt.Sprintf("Your ticket %q has been closed.", ticket.Title)
	case domain.TicketStatusCancelled:
		return "Ticket Cancelled", fmt.Sprintf("Your ticket %q has been cancelled.", ticket.Title)
	}
	return "Ticket Updated", fmt.Sprintf("Your ticket %q has been updated.", ticket.Title)
}

// resolveAssignee loads a user that may own tickets.
func (s *TicketService) resolveAssignee(ctx context.Context, id string) (*domain.User, error) {
	return resolveAssignee(ctx, s.users, id)
}

func resolveAssignee(ctx context.Context, users repository.UserRepository, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewFieldError("assignedTo", "must be a valid id")
	}
	user, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewFieldError("assignedTo", "must be an active staff member")
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !user.Active || !user.Role.IsStaff() {
		return nil, apperrors.NewFieldError("assignedTo", "must be an active staff member")
	}
	return user, nil
}

func (s *TicketService) lookupUser(ctx context.Context, id string) *domain.User {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("load notification recipient", zap.Error(err), zap.String("user_id", id))
		return nil
	}
	return user
}

func (s *TicketService) notify(ctx context.Context, in NotifyInput) {
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.logger.Error("notification failed",
			zap.Error(err),
			zap.String("recipient_id", in.Recipient.ID),
			zap.String("type", string(in.Type)),
		)
	}
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, actor *domain.User, ticket *domain.Ticket, payload any) {
	publishTicketEvent(ctx, s.dispatcher, s.logger, s.now(), eventType, actor, ticket, payload)
}

func publishTicketEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, at time.Time,
	eventType events.EventType, actor *domain.User, ticket *domain.Ticket, payload any) {
	if dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Actor:     events.ActorOf(actor),
		Timestamp: at,
		Ticket:    ticket,
		Payload:   payload,
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.Error(err), zap.String("event_type", string(eventType)))
	}
}

func toRepoFilter(filter TicketListFilter) (repository.TicketFilter, error) {
	var out repository.TicketFilter
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return out, apperrors.NewFieldError("status", "unknown status")
		}
		out.Statuses = []domain.TicketStatus{*filter.Status}
	}
	if filter.Category != nil {
		if !filter.Category.Valid() {
			return out, apperrors.NewFieldError("category", "unknown category")
		}
		out.Categories = []domain.TicketCategory{*filter.Category}
	}
	if filter.Priority != nil {
		if !filter.Priority.Valid() {
			return out, apperrors.NewFieldError("priority", "unknown priority")
		}
		out.Priorities = []domain.TicketPriority{*filter.Priority}
	}
	if filter.AssigneeID != nil {
		if _, err := uuid.Parse(*filter.AssigneeID); err != nil {
			return out, apperrors.NewFieldError("assignedTo", "must be a valid id")
		}
		out.AssigneeID = filter.AssigneeID
	}
	return out, nil
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

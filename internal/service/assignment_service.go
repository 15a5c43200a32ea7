package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/events"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// AssignmentService handles staff triage: assignment and classification overrides.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	notifier   *NotificationService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Notifier   *NotificationService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ClassificationOverride carries the staff-chosen values; nil fields stay unchanged.
type ClassificationOverride struct {
	Category *domain.TicketCategory
	Priority *domain.TicketPriority
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// AssignTicket hands a ticket to an active staff member or admin.
func (s *AssignmentService) AssignTicket(ctx context.Context, ticketID string, actor *domain.User, assigneeID string) (*domain.Ticket, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden()
	}
	if assigneeID == "" {
		return nil, apperrors.NewFieldError("assignedTo", "is required")
	}
	if err := checkID("ticket", ticketID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("ticket is "+string(ticket.Status), map[string]any{"status": "cannot assign a finished ticket"})
	}

	assignee, err := resolveAssignee(ctx, s.users, assigneeID)
	if err != nil {
		return nil, err
	}
	previous := ticket.AssigneeID
	if previous != nil && *previous == assignee.ID {
		return ticket, nil
	}

	ticket.AssigneeID = &assignee.ID
	ticket.Assignee = assignee.Summary()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}

	s.notify(ctx, NotifyInput{
		Recipient: assignee,
		TicketID:  &ticket.ID,
		Title:     "Ticket Assigned",
		Message:   fmt.Sprintf("You have been assigned ticket %q (%s priority).", ticket.Title, ticket.Priority),
		Type:      domain.NotificationTicketAssigned,
		Priority:  ticket.Priority,
	})
	if student, err := s.users.GetByID(ctx, ticket.StudentID); err == nil {
		s.notify(ctx, NotifyInput{
			Recipient: student,
			TicketID:  &ticket.ID,
			Title:     "Ticket Assigned",
			Message:   fmt.Sprintf("Your ticket %q has been assigned to %s.", ticket.Title, assignee.Name),
			Type:      domain.NotificationTicketUpdated,
			Priority:  ticket.Priority,
		})
	}

	publishTicketEvent(ctx, s.dispatcher, s.logger, s.now(), events.EventTicketAssigned, actor, ticket, events.TicketAssignedPayload{
		PreviousAssigneeID: previous,
		AssigneeID:         assignee.ID,
	})
	return ticket, nil
}

// OverrideClassification replaces the classifier's category and/or priority.
// Raising a ticket into an escalating priority notifies staff again.
func (s *AssignmentService) OverrideClassification(ctx context.Context, ticketID string, actor *domain.User, in ClassificationOverride) (*domain.Ticket, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden()
	}
	if in.Category == nil && in.Priority == nil {
		return nil, apperrors.NewValidationError("category or priority is required", nil)
	}
	if in.Category != nil && !in.Category.Valid() {
		return nil, apperrors.NewFieldError("category", "unknown category")
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, apperrors.NewFieldError("priority", "unknown priority")
	}
	if err := checkID("ticket", ticketID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}

	payload := events.TicketClassificationChangedPayload{
		OldCategory: ticket.Category,
		NewCategory: ticket.Category,
		OldPriority: ticket.Priority,
		NewPriority: ticket.Priority,
	}
	if in.Category != nil {
		ticket.Category = *in.Category
		ticket.AIAnalysis.CategorySource = domain.SourceManual
		ticket.AIAnalysis.CategoryConfidence = 1
		payload.NewCategory = *in.Category
	}
	if in.Priority != nil {
		ticket.Priority = *in.Priority
		ticket.AIAnalysis.PrioritySource = domain.SourceManual
		ticket.AIAnalysis.PriorityConfidence = 1
		payload.NewPriority = *in.Priority
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "ticket", ticketID)
	}

	if payload.NewPriority.Escalates() && !payload.OldPriority.Escalates() && !ticket.Status.Terminal() {
		s.notifier.Escalate(ctx, ticket)
	}
	publishTicketEvent(ctx, s.dispatcher, s.logger, s.now(), events.EventTicketClassificationChanged, actor, ticket, payload)
	return ticket, nil
}

func (s *AssignmentService) notify(ctx context.Context, in NotifyInput) {
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.logger.Error("notification failed", zap.Error(err), zap.String("recipient_id", in.Recipient.ID))
	}
}

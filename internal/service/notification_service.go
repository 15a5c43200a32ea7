package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/channels"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/realtime"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// NotificationService persists notifications and fans delivery out to channels.
type NotificationService struct {
	notifications   repository.NotificationRepository
	users           repository.UserRepository
	channels        channels.Registry
	live            realtime.Publisher
	logger          *zap.Logger
	deliveryTimeout time.Duration
	now             func() time.Time
	inflight        sync.WaitGroup
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Channels         channels.Registry
	Live             realtime.Publisher
	Logger           *zap.Logger
	DeliveryTimeout  time.Duration
}

// NotifyInput describes a single notification.
type NotifyInput struct {
	Recipient *domain.User
	TicketID  *string
	Title     string
	Message   string
	Type      domain.NotificationType
	Priority  domain.TicketPriority
	// Channels lists extra out-of-band routes; push is always attempted.
	Channels []domain.NotificationChannel
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Notifications []domain.Notification
	Total         int
	Unread        int
	Page          int
	Limit         int
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	timeout := deps.DeliveryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NotificationService{
		notifications:   deps.NotificationRepo,
		users:           deps.UserRepo,
		channels:        deps.Channels,
		live:            deps.Live,
		logger:          deps.Logger,
		deliveryTimeout: timeout,
		now:             time.Now,
	}
}

// Notify persists the notification, then starts one delivery per channel in
// the background. Only a persistence failure is returned.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*domain.Notification, error) {
	if in.Recipient == nil {
		return nil, apperrors.NewValidationError("recipient is required", nil)
	}
	priority := in.Priority
	if !priority.Valid() {
		priority = domain.TicketPriorityMedium
	}

	n := &domain.Notification{
		UserID:   in.Recipient.ID,
		TicketID: in.TicketID,
		Title:    in.Title,
		Message:  in.Message,
		Type:     in.Type,
		Priority: priority,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	msg := channels.Message{Title: n.Title, Body: n.Message, Priority: n.Priority}
	if n.TicketID != nil {
		msg.TicketID = *n.TicketID
	}
	for _, name := range withPush(in.Channels) {
		ch, ok := s.channels[name]
		if !ok {
			continue
		}
		to, ok := ch.Target(in.Recipient)
		if !ok {
			continue
		}
		s.inflight.Add(1)
		go s.deliver(context.WithoutCancel(ctx), n.ID, ch, to, msg)
	}

	if s.live != nil {
		s.live.SendToUser(n.UserID, realtime.NotificationFrame(n))
	}
	return n, nil
}

func (s *NotificationService) deliver(ctx context.Context, notificationID string, ch channels.Channel, to string, msg channels.Message) {
	defer s.inflight.Done()
	ctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	logger := s.logger.With(
		zap.String("notification_id", notificationID),
		zap.String("channel", string(ch.Name())),
	)
	if err := ch.Send(ctx, to, msg); err != nil {
		logger.Warn("notification delivery failed", zap.Error(err))
		return
	}
	if err := s.notifications.AppendSentVia(ctx, notificationID, ch.Name()); err != nil {
		logger.Error("record notification delivery", zap.Error(err))
	}
}

// Wait blocks until every in-flight delivery has finished.
func (s *NotificationService) Wait() {
	s.inflight.Wait()
}

// Escalate alerts every active staff member and administrator about ticket.
// Failures for one recipient never stop the others.
func (s *NotificationService) Escalate(ctx context.Context, ticket *domain.Ticket) {
	recipients, err := s.users.ListActiveByRoles(ctx, domain.RoleAdmin, domain.RoleStaff)
	if err != nil {
		s.logger.Error("list escalation recipients", zap.Error(err), zap.String("ticket_id", ticket.ID))
		return
	}

	message := fmt.Sprintf("URGENT: %s priority ticket #%s - %s", ticket.Priority, ticket.ID, ticket.Title)
	routes := []domain.NotificationChannel{domain.ChannelPush, domain.ChannelEmail}
	if ticket.Priority == domain.TicketPriorityUrgent {
		routes = append(routes, domain.ChannelSMS)
	}

	ticketID := ticket.ID
	for i := range recipients {
		recipient := recipients[i]
		if _, err := s.Notify(ctx, NotifyInput{
			Recipient: &recipient,
			TicketID:  &ticketID,
			Title:     "High Priority Ticket",
			Message:   message,
			Type:      domain.NotificationEscalation,
			Priority:  domain.TicketPriorityUrgent,
			Channels:  routes,
		}); err != nil {
			s.logger.Error("escalation notification failed",
				zap.Error(err),
				zap.String("ticket_id", ticket.ID),
				zap.String("recipient_id", recipient.ID),
			)
		}
	}
}

// MarkRead marks one of the user's notifications as read. Repeated calls keep
// the first read time.
func (s *NotificationService) MarkRead(ctx context.Context, id string, user *domain.User) (*domain.Notification, error) {
	if err := checkID("notification", id); err != nil {
		return nil, err
	}
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "notification", id)
	}
	if n.UserID != user.ID {
		return nil, apperrors.NewForbidden()
	}
	if err := s.notifications.MarkRead(ctx, id, s.now()); err != nil {
		return nil, mapRepoErr(err, "notification", id)
	}
	updated, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "notification", id)
	}
	return updated, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, user *domain.User) (int64, error) {
	updated, err := s.notifications.MarkAllRead(ctx, user.ID, s.now())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return updated, nil
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, user *domain.User, unreadOnly bool, page, limit int) (*NotificationPage, error) {
	page, limit = normalizePage(page, limit)
	items, err := s.notifications.ListByUser(ctx, user.ID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.notifications.CountByUser(ctx, user.ID, unreadOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unread, err := s.notifications.CountByUser(ctx, user.ID, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return &NotificationPage{Notifications: items, Total: total, Unread: unread, Page: page, Limit: limit}, nil
}

func withPush(requested []domain.NotificationChannel) []domain.NotificationChannel {
	out := []domain.NotificationChannel{domain.ChannelPush}
	for _, ch := range requested {
		if ch != domain.ChannelPush {
			out = append(out, ch)
		}
	}
	return out
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

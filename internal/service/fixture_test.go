package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/channels"
	"github.com/myhostelpal/complaint-service/internal/classifier"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/events"
	"github.com/myhostelpal/complaint-service/internal/observability"
	"github.com/myhostelpal/complaint-service/internal/realtime"
	"github.com/myhostelpal/complaint-service/internal/repository/memstore"
)

// routedCompleter answers category and priority prompts with fixed replies.
type routedCompleter struct {
	mu            sync.Mutex
	categoryReply string
	priorityReply string
	calls         int
}

func (c *routedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if strings.Contains(prompt, "categorizes hostel complaints") {
		return c.categoryReply, nil
	}
	return c.priorityReply, nil
}

func (c *routedCompleter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// recordingChannel captures deliveries and fails for selected targets.
type recordingChannel struct {
	name   domain.NotificationChannel
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func newRecordingChannel(name domain.NotificationChannel) *recordingChannel {
	return &recordingChannel{name: name, failTo: map[string]bool{}}
}

func (c *recordingChannel) Name() domain.NotificationChannel { return c.name }

func (c *recordingChannel) Target(u *domain.User) (string, bool) {
	switch c.name {
	case domain.ChannelEmail:
		return u.Email, u.Email != ""
	case domain.ChannelSMS:
		if u.PhoneNumber == nil {
			return "", false
		}
		return *u.PhoneNumber, true
	default:
		if u.PushToken == nil {
			return "", false
		}
		return *u.PushToken, true
	}
}

func (c *recordingChannel) Send(_ context.Context, to string, _ channels.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTo[to] {
		return errors.New("smtp: connection refused")
	}
	c.sent = append(c.sent, to)
	return nil
}

func (c *recordingChannel) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// recordingPublisher captures live frames.
type recordingPublisher struct {
	mu     sync.Mutex
	toUser map[string][]realtime.Frame
	toRole []realtime.Frame
}

func (p *recordingPublisher) SendToUser(userID string, frame realtime.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.toUser == nil {
		p.toUser = map[string][]realtime.Frame{}
	}
	p.toUser[userID] = append(p.toUser[userID], frame)
}

func (p *recordingPublisher) BroadcastToRole(frame realtime.Frame, _ ...domain.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toRole = append(p.toRole, frame)
}

func (p *recordingPublisher) FramesFor(userID string) []realtime.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Frame(nil), p.toUser[userID]...)
}

type fixture struct {
	ctx        context.Context
	now        time.Time
	store      *memstore.Store
	completer  *routedCompleter
	email      *recordingChannel
	sms        *recordingChannel
	push       *recordingChannel
	live       *recordingPublisher
	metrics    *observability.Metrics
	published  []events.Event
	notifier   *NotificationService
	tickets    *TicketService
	assignment *AssignmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx: context.Background(),
		now: time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC),
		completer: &routedCompleter{
			categoryReply: `{"category":"maintenance","confidence":0.8,"keywords":["leak"]}`,
			priorityReply: `{"priority":"medium","confidence":0.6,"reasoning":"routine"}`,
		},
		email:   newRecordingChannel(domain.ChannelEmail),
		sms:     newRecordingChannel(domain.ChannelSMS),
		push:    newRecordingChannel(domain.ChannelPush),
		live:    &recordingPublisher{},
		metrics: observability.NewMetrics(),
	}
	f.store = memstore.New().WithClock(func() time.Time { return f.now })

	logger := zap.NewNop()
	registry := channels.Registry{}
	registry.Add(f.email)
	registry.Add(f.sms)
	registry.Add(f.push)

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
		events.EventTicketClassificationChanged,
		events.EventTicketEscalated,
	} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	f.notifier = NewNotificationService(NotificationDependencies{
		NotificationRepo: f.store.Notifications(),
		UserRepo:         f.store.Users(),
		Channels:         registry,
		Live:             f.live,
		Logger:           logger,
		DeliveryTimeout:  time.Second,
	})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Analyzer:   classifier.New(f.completer, classifier.Options{RetryDelay: time.Millisecond}, logger, f.metrics),
		Notifier:   f.notifier,
		Dispatcher: dispatcher,
		Metrics:    f.metrics,
		Logger:     logger,
		Clock:      func() time.Time { return f.now },
	})
	f.assignment = NewAssignmentService(AssignmentDependencies{
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Notifier:   f.notifier,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	t.Cleanup(f.notifier.Wait)
	return f
}

func (f *fixture) user(t *testing.T, name string, role domain.Role, active bool) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:        name,
		Email:       strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@hostel.test",
		Role:        role,
		RoomNumber:  "A-101",
		HostelBlock: "A",
		Active:      active,
	}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) ticket(t *testing.T, student *domain.User) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, student, TicketCreateInput{
		Title:       "Leaking tap in bathroom",
		Description: "The tap in the shared bathroom keeps dripping all night.",
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) notificationsFor(t *testing.T, user *domain.User) []domain.Notification {
	t.Helper()
	f.notifier.Wait()
	items, err := f.store.Notifications().ListByUser(f.ctx, user.ID, false, 100, 0)
	require.NoError(t, err)
	return items
}

func (f *fixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

func countType(items []domain.Notification, typ domain.NotificationType) int {
	n := 0
	for _, item := range items {
		if item.Type == typ {
			n++
		}
	}
	return n
}

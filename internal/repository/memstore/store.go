// Package memstore keeps every repository in process memory. It backs demo
// mode when no database is configured and the service tests.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
)

// Store holds the shared state behind the repository views.
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         map[string]*domain.User
	tickets       map[string]*domain.Ticket
	comments      map[string][]domain.Comment
	notifications map[string]*domain.Notification

	// insertion order, used for deterministic listings
	userOrder         []string
	ticketOrder       []string
	notificationOrder []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[string]*domain.User),
		tickets:       make(map[string]*domain.Ticket),
		comments:      make(map[string][]domain.Comment),
		notifications: make(map[string]*domain.Notification),
	}
}

// WithClock overrides the time source used for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }

// Notifications returns the notification repository view.
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s} }

// Reports returns the report repository view.
func (s *Store) Reports() repository.ReportRepository { return &reportRepo{s} }

func newID() string {
	return uuid.NewString()
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.PhoneNumber != nil {
		v := *u.PhoneNumber
		c.PhoneNumber = &v
	}
	if u.PushToken != nil {
		v := *u.PushToken
		c.PushToken = &v
	}
	return &c
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		c.AssigneeID = &v
	}
	c.Images = append([]domain.Image(nil), t.Images...)
	c.AIAnalysis.Keywords = append([]string(nil), t.AIAnalysis.Keywords...)
	c.AIAnalysis.SuggestedActions = append([]string(nil), t.AIAnalysis.SuggestedActions...)
	if t.Resolution != nil {
		r := *t.Resolution
		c.Resolution = &r
	}
	if t.LastEscalatedAt != nil {
		v := *t.LastEscalatedAt
		c.LastEscalatedAt = &v
	}
	c.Comments = nil
	c.Student = nil
	c.Assignee = nil
	return &c
}

func cloneNotification(n *domain.Notification) *domain.Notification {
	c := *n
	if n.TicketID != nil {
		v := *n.TicketID
		c.TicketID = &v
	}
	if n.ReadAt != nil {
		v := *n.ReadAt
		c.ReadAt = &v
	}
	c.SentVia = append([]domain.NotificationChannel(nil), n.SentVia...)
	return &c
}

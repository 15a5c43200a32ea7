package memstore

import (
	"context"
	"time"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
)

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = newID()
	n.CreatedAt = r.s.now()
	n.SentVia = []domain.NotificationChannel{}
	r.s.notifications[n.ID] = cloneNotification(n)
	r.s.notificationOrder = append(r.s.notificationOrder, n.ID)
	return nil
}

func (r *notificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.IsRead = true
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var updated int64
	for _, n := range r.s.notifications {
		if n.UserID != userID || n.IsRead {
			continue
		}
		readAt := at
		n.IsRead = true
		n.ReadAt = &readAt
		updated++
	}
	return updated, nil
}

func (r *notificationRepo) AppendSentVia(_ context.Context, id string, channel domain.NotificationChannel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !n.Delivered(channel) {
		n.SentVia = append(n.SentVia, channel)
	}
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.match(userID, unreadOnly)
	return page(matched, limit, offset), nil
}

func (r *notificationRepo) CountByUser(_ context.Context, userID string, unreadOnly bool) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.match(userID, unreadOnly)), nil
}

// match returns newest first; the lock must be held.
func (r *notificationRepo) match(userID string, unreadOnly bool) []domain.Notification {
	var out []domain.Notification
	for i := len(r.s.notificationOrder) - 1; i >= 0; i-- {
		n := r.s.notifications[r.s.notificationOrder[i]]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *cloneNotification(n))
	}
	return out
}

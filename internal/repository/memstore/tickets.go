package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[ticket.StudentID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	ticket.ID = newID()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.s.tickets[ticket.ID] = cloneTicket(ticket)
	r.s.ticketOrder = append(r.s.ticketOrder, ticket.ID)
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}

	src := cloneTicket(ticket)
	next := cloneTicket(stored)
	next.Category = src.Category
	next.Priority = src.Priority
	next.Status = src.Status
	next.AIAnalysis = src.AIAnalysis
	next.AssigneeID = src.AssigneeID
	next.Resolution = src.Resolution
	next.Version++
	next.UpdatedAt = r.s.now()
	r.s.tickets[ticket.ID] = next

	ticket.Version = next.Version
	ticket.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := r.hydrate(stored)
	for _, c := range r.s.comments[id] {
		if author, ok := r.s.users[c.AuthorID]; ok {
			c.Author = author.Summary()
		}
		ticket.Comments = append(ticket.Comments, c)
	}
	return ticket, nil
}

func (r *ticketRepo) AppendComment(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[comment.TicketID]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	comment.ID = newID()
	comment.CreatedAt = now
	c := *comment
	c.Author = nil
	r.s.comments[comment.TicketID] = append(r.s.comments[comment.TicketID], c)
	stored.UpdatedAt = now
	return nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.match(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		if filter.ByPriority {
			ri, rj := priorityRank(matched[i].Priority), priorityRank(matched[j].Priority)
			if ri != rj {
				return ri < rj
			}
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

func (r *ticketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.match(filter)), nil
}

func (r *ticketRepo) ListUnresolvedBefore(_ context.Context, createdBefore time.Time) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.match(repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
	})
	out := matched[:0]
	for _, t := range matched {
		if t.CreatedAt.Before(createdBefore) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *ticketRepo) MarkEscalated(_ context.Context, id string, level int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.EscalationLevel = level
	stored.LastEscalatedAt = &at
	return nil
}

// match must be called with the lock held. Results are in creation order.
func (r *ticketRepo) match(filter repository.TicketFilter) []domain.Ticket {
	var out []domain.Ticket
	for _, id := range r.s.ticketOrder {
		t := r.s.tickets[id]
		if filter.StudentID != nil && t.StudentID != *filter.StudentID {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
			continue
		}
		if len(filter.Categories) > 0 && !contains(filter.Categories, t.Category) {
			continue
		}
		if len(filter.Priorities) > 0 && !contains(filter.Priorities, t.Priority) {
			continue
		}
		out = append(out, *r.hydrate(t))
	}
	return out
}

func (r *ticketRepo) hydrate(stored *domain.Ticket) *domain.Ticket {
	ticket := cloneTicket(stored)
	if student, ok := r.s.users[ticket.StudentID]; ok {
		ticket.Student = student.Summary()
	}
	if ticket.AssigneeID != nil {
		if assignee, ok := r.s.users[*ticket.AssigneeID]; ok {
			ticket.Assignee = assignee.Summary()
		}
	}
	return ticket
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

func priorityRank(p domain.TicketPriority) int {
	switch p {
	case domain.TicketPriorityUrgent:
		return 0
	case domain.TicketPriorityHigh:
		return 1
	case domain.TicketPriorityMedium:
		return 2
	default:
		return 3
	}
}

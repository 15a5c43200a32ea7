package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
)

type reportRepo struct{ s *Store }

func (r *reportRepo) CountTickets(_ context.Context, from, to time.Time) (int, error) {
	return len(r.between(from, to)), nil
}

func (r *reportRepo) CountTicketsBy(_ context.Context, column string, from, to time.Time) ([]repository.Count, error) {
	key := map[string]func(*domain.Ticket) string{
		"status":   func(t *domain.Ticket) string { return string(t.Status) },
		"category": func(t *domain.Ticket) string { return string(t.Category) },
		"priority": func(t *domain.Ticket) string { return string(t.Priority) },
	}[column]
	if key == nil {
		return nil, repository.ErrNotFound
	}
	buckets := make(map[string]int)
	for _, t := range r.between(from, to) {
		buckets[key(t)]++
	}
	return sortedCounts(buckets), nil
}

func (r *reportRepo) CountOverdue(_ context.Context, now time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for _, t := range r.s.tickets {
		if t.IsOverdue(now) {
			total++
		}
	}
	return total, nil
}

func (r *reportRepo) AverageResolutionHours(_ context.Context, from, to time.Time) (float64, error) {
	var sum time.Duration
	n := 0
	for _, t := range r.between(from, to) {
		if t.Resolution == nil {
			continue
		}
		sum += t.ResolutionLatency()
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return (sum / time.Duration(n)).Hours(), nil
}

func (r *reportRepo) UserCounts(_ context.Context, since time.Time) (repository.UserCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out repository.UserCounts
	byRole := make(map[string]int)
	for _, u := range r.s.users {
		byRole[string(u.Role)]++
		out.TotalUsers++
		if u.Active {
			out.Active++
		}
		if !u.CreatedAt.Before(since) {
			out.NewSince++
		}
	}
	out.ByRole = sortedCounts(byRole)
	return out, nil
}

func (r *reportRepo) between(from, to time.Time) []*domain.Ticket {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Ticket
	for _, t := range r.s.tickets {
		if !t.CreatedAt.Before(from) && t.CreatedAt.Before(to) {
			out = append(out, cloneTicket(t))
		}
	}
	return out
}

func sortedCounts(buckets map[string]int) []repository.Count {
	out := make([]repository.Count, 0, len(buckets))
	for k, v := range buckets {
		out = append(out, repository.Count{Key: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from TicketStatus
		to   TicketStatus
		want bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusOpen, TicketStatusResolved, true},
		{TicketStatusOpen, TicketStatusClosed, true},
		{TicketStatusOpen, TicketStatusCancelled, true},
		{TicketStatusOpen, TicketStatusOpen, false},
		{TicketStatusInProgress, TicketStatusResolved, true},
		{TicketStatusInProgress, TicketStatusClosed, true},
		{TicketStatusInProgress, TicketStatusOpen, false},
		{TicketStatusResolved, TicketStatusClosed, true},
		{TicketStatusResolved, TicketStatusCancelled, true},
		{TicketStatusResolved, TicketStatusOpen, false},
		{TicketStatusResolved, TicketStatusInProgress, false},
		{TicketStatusClosed, TicketStatusOpen, false},
		{TicketStatusClosed, TicketStatusCancelled, false},
		{TicketStatusCancelled, TicketStatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTicketIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		priority TicketPriority
		status   TicketStatus
		age      time.Duration
		want     bool
	}{
		{"urgent past two hours", TicketPriorityUrgent, TicketStatusOpen, 3 * time.Hour, true},
		{"urgent within two hours", TicketPriorityUrgent, TicketStatusOpen, time.Hour, false},
		{"high past a day", TicketPriorityHigh, TicketStatusInProgress, 25 * time.Hour, true},
		{"medium within three days", TicketPriorityMedium, TicketStatusOpen, 71 * time.Hour, false},
		{"low past a week", TicketPriorityLow, TicketStatusOpen, 169 * time.Hour, true},
		{"resolved never overdue", TicketPriorityUrgent, TicketStatusResolved, 100 * time.Hour, false},
		{"cancelled never overdue", TicketPriorityUrgent, TicketStatusCancelled, 100 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &Ticket{Priority: tt.priority, Status: tt.status, CreatedAt: now.Add(-tt.age)}
			assert.Equal(t, tt.want, ticket.IsOverdue(now))
		})
	}
}

func TestTicketDueForEscalation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticket := &Ticket{Priority: TicketPriorityUrgent, Status: TicketStatusOpen, CreatedAt: now.Add(-5 * time.Hour)}
	assert.True(t, ticket.DueForEscalation(now))

	recent := now.Add(-time.Hour)
	ticket.LastEscalatedAt = &recent
	assert.False(t, ticket.DueForEscalation(now))

	stale := now.Add(-3 * time.Hour)
	ticket.LastEscalatedAt = &stale
	assert.True(t, ticket.DueForEscalation(now))
}

func TestResolutionLatency(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created}
	assert.Zero(t, ticket.ResolutionLatency())

	ticket.Resolution = &Resolution{ResolvedAt: created.Add(90 * time.Minute)}
	assert.Equal(t, 90*time.Minute, ticket.ResolutionLatency())
}

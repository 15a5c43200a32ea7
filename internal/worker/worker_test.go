package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/events"
	"github.com/myhostelpal/complaint-service/internal/realtime"
)

type sent struct {
	userID string
	roles  []domain.Role
	frame  realtime.Frame
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []sent
}

func (p *fakePublisher) SendToUser(userID string, frame realtime.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sent{userID: userID, frame: frame})
}

func (p *fakePublisher) BroadcastToRole(frame realtime.Frame, roles ...domain.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sent{roles: roles, frame: frame})
}

func TestLiveUpdateWorker_NewTicketGoesToStaff(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	pub := &fakePublisher{}
	StartLiveUpdateWorker(dispatcher, pub)

	ticket := &domain.Ticket{ID: "t-1", StudentID: "s-1", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Ticket:    ticket,
		Timestamp: time.Now(),
	}))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, []domain.Role{domain.RoleStaff, domain.RoleAdmin}, pub.sent[0].roles)
	assert.Equal(t, realtime.FrameNewTicket, pub.sent[0].frame.Type)
	rendered, ok := pub.sent[0].frame.Ticket.(dto.TicketResponse)
	require.True(t, ok)
	assert.Equal(t, "t-1", rendered.ID)
}

func TestLiveUpdateWorker_StatusChangeReachesStudentAndStaff(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	pub := &fakePublisher{}
	StartLiveUpdateWorker(dispatcher, pub)

	ticket := &domain.Ticket{ID: "t-1", StudentID: "s-1", Status: domain.TicketStatusResolved}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Ticket:   ticket,
		Payload:  events.TicketStatusChangedPayload{OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusResolved},
	}))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "s-1", pub.sent[0].userID)
	assert.Equal(t, realtime.FrameTicketUpdate, pub.sent[0].frame.Type)
	update := pub.sent[0].frame.Update.(TicketUpdate)
	assert.Equal(t, domain.TicketStatusResolved, update.Status)
	assert.Equal(t, []domain.Role{domain.RoleStaff, domain.RoleAdmin}, pub.sent[1].roles)
}

type countingEscalator struct{ calls atomic.Int32 }

func (c *countingEscalator) EscalateOverdue(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, nil
}

func TestRunEscalationSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	esc := &countingEscalator{}
	done := make(chan struct{})
	go func() {
		RunEscalationSweeper(ctx, esc, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return esc.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunEscalationSweeper_DisabledReturnsImmediately(t *testing.T) {
	esc := &countingEscalator{}
	RunEscalationSweeper(context.Background(), esc, 0, zap.NewNop())
	assert.Zero(t, esc.calls.Load())
}

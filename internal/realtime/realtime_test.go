package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	block  chan struct{}
	err    error
}

func (f *fakeConn) WriteJSON(v any) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, v.(Frame))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, fr := range f.frames {
		out[i] = fr.Type
	}
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestBroadcaster(buffer int) *Broadcaster {
	return NewBroadcaster(NewMemoryStore(), buffer, zap.NewNop())
}

func TestBroadcaster_SendToUserAndRoles(t *testing.T) {
	b := newTestBroadcaster(8)
	student, staff, admin := &fakeConn{}, &fakeConn{}, &fakeConn{}
	b.Register("c1", "u-student", domain.RoleStudent, student)
	b.Register("c2", "u-staff", domain.RoleStaff, staff)
	b.Register("c3", "u-admin", domain.RoleAdmin, admin)

	b.BroadcastToRole(NewTicketFrame(map[string]string{"id": "t1"}), domain.RoleStaff, domain.RoleAdmin)
	b.SendToUser("u-student", NotificationFrame(map[string]string{"id": "n1"}))
	b.SendToUser("nobody", NotificationFrame(nil))

	assert.Eventually(t, func() bool {
		return len(staff.types()) == 1 && len(admin.types()) == 1 && len(student.types()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{FrameNewTicket}, staff.types())
	assert.Equal(t, []string{FrameNotification}, student.types())
}

func TestBroadcaster_ReplacedSessionSurvivesStaleUnregister(t *testing.T) {
	b := newTestBroadcaster(8)
	first, second := &fakeConn{}, &fakeConn{}
	b.Register("c1", "u1", domain.RoleStudent, first)
	b.Register("c2", "u1", domain.RoleStudent, second)

	assert.Eventually(t, first.isClosed, time.Second, 5*time.Millisecond)

	b.Unregister("c1")
	b.SendToUser("u1", ConnectionFrame())
	assert.Eventually(t, func() bool { return len(second.types()) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, second.isClosed())

	b.Unregister("c2")
	assert.Eventually(t, second.isClosed, time.Second, 5*time.Millisecond)
}

func TestBroadcaster_FullQueueDropsFrames(t *testing.T) {
	b := newTestBroadcaster(1)
	conn := &fakeConn{block: make(chan struct{})}
	s := b.Register("c1", "u1", domain.RoleStaff, conn)

	accepted := 0
	for i := 0; i < 10; i++ {
		if b.Send(s, TicketUpdateFrame("t1", nil)) {
			accepted++
		}
	}
	// one frame can be held by the writer, one in the queue
	assert.LessOrEqual(t, accepted, 2)
	close(conn.block)
}

func TestBroadcaster_WriteErrorClosesConn(t *testing.T) {
	b := newTestBroadcaster(4)
	conn := &fakeConn{err: errors.New("broken pipe")}
	b.Register("c1", "u1", domain.RoleStaff, conn)

	b.SendToUser("u1", ConnectionFrame())
	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
}

type recordingPublisher struct {
	toUser  []string
	toRoles [][]domain.Role
}

func (r *recordingPublisher) SendToUser(userID string, _ Frame) { r.toUser = append(r.toUser, userID) }
func (r *recordingPublisher) BroadcastToRole(_ Frame, roles ...domain.Role) {
	r.toRoles = append(r.toRoles, roles)
}

func TestRelay(t *testing.T) {
	student := &Session{UserID: "s1", Role: domain.RoleStudent}
	staff := &Session{UserID: "st1", Role: domain.RoleStaff}

	pub := &recordingPublisher{}
	Relay(pub, student, Frame{Type: FrameTicketUpdate, TicketID: "t1"})
	Relay(pub, student, Frame{Type: FrameNotification, UserID: "victim"})
	Relay(pub, staff, Frame{Type: FrameNotification, UserID: "s1"})
	Relay(pub, staff, Frame{Type: "unknown"})

	assert.Equal(t, [][]domain.Role{{domain.RoleStaff, domain.RoleAdmin}}, pub.toRoles)
	assert.Equal(t, []string{"s1"}, pub.toUser)
}

func TestRedisRelay_FansOutToLocalSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	local := newTestBroadcaster(8)
	staff := &fakeConn{}
	student := &fakeConn{}
	local.Register("c1", "u-staff", domain.RoleStaff, staff)
	local.Register("c2", "u-student", domain.RoleStudent, student)

	relay := NewRedisRelay(client, "live", local, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("live")) == 1
	}, time.Second, 5*time.Millisecond)

	relay.BroadcastToRole(NewTicketFrame(map[string]string{"id": "t1"}), domain.RoleStaff)
	relay.SendToUser("u-student", NotificationFrame(map[string]string{"id": "n1"}))

	assert.Eventually(t, func() bool {
		return len(staff.types()) == 1 && len(student.types()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{FrameNewTicket}, staff.types())
	assert.Equal(t, []string{FrameNotification}, student.types())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

package realtime

import (
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// Publisher pushes frames to live sessions. Delivery is best effort.
type Publisher interface {
	SendToUser(userID string, frame Frame)
	BroadcastToRole(frame Frame, roles ...domain.Role)
}

// Broadcaster delivers frames to sessions connected to this process.
type Broadcaster struct {
	store      SessionStore
	sendBuffer int
	logger     *zap.Logger
}

// NewBroadcaster creates a broadcaster over store.
func NewBroadcaster(store SessionStore, sendBuffer int, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{store: store, sendBuffer: sendBuffer, logger: logger}
}

// Register starts delivering to conn on behalf of userID. An existing session
// for the same user is closed and replaced.
func (b *Broadcaster) Register(connID, userID string, role domain.Role, conn Conn) *Session {
	s := &Session{
		ConnID: connID,
		UserID: userID,
		Role:   role,
		client: newClient(conn, b.sendBuffer, b.logger),
	}
	if previous := b.store.Register(s); previous != nil {
		b.logger.Info("live session replaced", zap.String("user_id", userID), zap.String("conn_id", previous.ConnID))
		previous.client.close()
	}
	return s
}

// Unregister drops the session if connID is still current.
func (b *Broadcaster) Unregister(connID string) {
	if s, ok := b.store.Unregister(connID); ok {
		s.client.close()
	}
}

// Send enqueues a frame on a single session.
func (b *Broadcaster) Send(s *Session, frame Frame) bool {
	return s.client.enqueue(frame)
}

// SendToUser delivers frame to the local session of userID, if one is open.
func (b *Broadcaster) SendToUser(userID string, frame Frame) {
	if s, ok := b.store.Lookup(userID); ok {
		s.client.enqueue(frame)
	}
}

// BroadcastToRole delivers frame to every local session whose user has one of roles.
func (b *Broadcaster) BroadcastToRole(frame Frame, roles ...domain.Role) {
	b.store.ForEach(func(s *Session) {
		for _, role := range roles {
			if s.Role == role {
				s.client.enqueue(frame)
				return
			}
		}
	})
}

// Relay handles a frame received from a client. Ticket updates fan out to
// staff and admins; notification frames are forwarded to the addressed user
// only when the sender is staff or admin.
func Relay(pub Publisher, sender *Session, in Frame) {
	switch in.Type {
	case FrameTicketUpdate:
		pub.BroadcastToRole(Frame{Type: FrameTicketUpdate, TicketID: in.TicketID, Data: in.Ticket}, domain.RoleStaff, domain.RoleAdmin)
	case FrameNotification:
		if !sender.Role.IsStaff() || in.UserID == "" {
			return
		}
		pub.SendToUser(in.UserID, Frame{Type: FrameNotification, Data: in.Notification})
	}
}

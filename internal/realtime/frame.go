package realtime

// Frame types exchanged over the live-update channel.
const (
	FrameConnection   = "connection"
	FrameError        = "error"
	FrameNewTicket    = "new_ticket"
	FrameTicketUpdate = "ticket_update"
	FrameNotification = "notification"
)

// Frame is a JSON message pushed to, or received from, a live session.
type Frame struct {
	Type         string `json:"type"`
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	TicketID     string `json:"ticketId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Ticket       any    `json:"ticket,omitempty"`
	Update       any    `json:"update,omitempty"`
	Notification any    `json:"notification,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// ConnectionFrame acknowledges a successful handshake.
func ConnectionFrame() Frame {
	return Frame{Type: FrameConnection, Status: "success"}
}

// AuthFailedFrame is sent before closing an unauthenticated socket.
func AuthFailedFrame() Frame {
	return Frame{Type: FrameError, Message: "Authentication failed"}
}

// NewTicketFrame announces a freshly filed ticket to staff.
func NewTicketFrame(ticket any) Frame {
	return Frame{Type: FrameNewTicket, Ticket: ticket}
}

// TicketUpdateFrame describes a change to an existing ticket.
func TicketUpdateFrame(ticketID string, update any) Frame {
	return Frame{Type: FrameTicketUpdate, TicketID: ticketID, Update: update}
}

// NotificationFrame carries a persisted notification to its recipient.
func NotificationFrame(notification any) Frame {
	return Frame{Type: FrameNotification, Data: notification}
}

package domain

import "time"

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationTicketCreated  NotificationType = "ticket_created"
	NotificationTicketUpdated  NotificationType = "ticket_updated"
	NotificationTicketAssigned NotificationType = "ticket_assigned"
	NotificationTicketResolved NotificationType = "ticket_resolved"
	NotificationEscalation     NotificationType = "escalation"
	NotificationSystem         NotificationType = "system"
)

// NotificationChannel is an out-of-band delivery route.
type NotificationChannel string

const (
	ChannelPush  NotificationChannel = "push"
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// Notification is a persisted, user-addressed message about a ticket event.
type Notification struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	TicketID  *string               `json:"ticketId,omitempty"`
	Title     string                `json:"title"`
	Message   string                `json:"message"`
	Type      NotificationType      `json:"type"`
	Priority  TicketPriority        `json:"priority"`
	IsRead    bool                  `json:"isRead"`
	ReadAt    *time.Time            `json:"readAt,omitempty"`
	SentVia   []NotificationChannel `json:"sentVia"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Delivered reports whether the channel delivered successfully.
func (n *Notification) Delivered(channel NotificationChannel) bool {
	for _, c := range n.SentVia {
		if c == channel {
			return true
		}
	}
	return false
}

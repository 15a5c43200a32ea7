// Package channels delivers notifications out of band: email, SMS and push.
package channels

import (
	"context"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// Message is the channel-agnostic content of a notification.
type Message struct {
	Title    string
	Body     string
	TicketID string
	Priority domain.TicketPriority
}

// Channel is one delivery route.
type Channel interface {
	Name() domain.NotificationChannel
	// Target returns the address for the recipient on this channel, if any.
	Target(user *domain.User) (string, bool)
	Send(ctx context.Context, to string, msg Message) error
}

func targetFor(name domain.NotificationChannel, user *domain.User) (string, bool) {
	if user == nil {
		return "", false
	}
	switch name {
	case domain.ChannelEmail:
		return user.Email, user.Email != ""
	case domain.ChannelSMS:
		if user.PhoneNumber == nil || *user.PhoneNumber == "" {
			return "", false
		}
		return *user.PhoneNumber, true
	case domain.ChannelPush:
		if user.PushToken == nil || *user.PushToken == "" {
			return "", false
		}
		return *user.PushToken, true
	}
	return "", false
}

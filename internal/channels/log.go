package channels

import (
	"context"

	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// LogChannel stands in for an unconfigured channel and only logs deliveries.
type LogChannel struct {
	name   domain.NotificationChannel
	logger *zap.Logger
}

// NewLogChannel creates a logging stand-in for name.
func NewLogChannel(name domain.NotificationChannel, logger *zap.Logger) *LogChannel {
	return &LogChannel{name: name, logger: logger}
}

func (c *LogChannel) Name() domain.NotificationChannel { return c.name }

func (c *LogChannel) Target(user *domain.User) (string, bool) {
	return targetFor(c.name, user)
}

func (c *LogChannel) Send(_ context.Context, to string, msg Message) error {
	c.logger.Info("notification delivery (log only)",
		zap.String("channel", string(c.name)),
		zap.String("to", to),
		zap.String("title", msg.Title),
		zap.String("ticket_id", msg.TicketID),
	)
	return nil
}

package channels

import (
	"context"
	"fmt"

	"gopkg.in/mail.v2"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// Sender abstracts the SMTP transport.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// EmailChannel sends notifications over SMTP.
type EmailChannel struct {
	sender Sender
	from   string
}

// NewEmailChannel dials host:port with the given credentials for every send.
func NewEmailChannel(host string, port int, username, password, from string) *EmailChannel {
	return NewEmailChannelWithSender(mail.NewDialer(host, port, username, password), from)
}

// NewEmailChannelWithSender wires a custom transport.
func NewEmailChannelWithSender(sender Sender, from string) *EmailChannel {
	return &EmailChannel{sender: sender, from: from}
}

func (c *EmailChannel) Name() domain.NotificationChannel { return domain.ChannelEmail }

func (c *EmailChannel) Target(user *domain.User) (string, bool) {
	return targetFor(domain.ChannelEmail, user)
}

func (c *EmailChannel) Send(ctx context.Context, to string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", msg.Title)
	body := msg.Body
	if msg.TicketID != "" {
		body = fmt.Sprintf("%s\n\nTicket: %s", msg.Body, msg.TicketID)
	}
	message.SetBody("text/plain", body)

	errCh := make(chan error, 1)
	go func() { errCh <- c.sender.DialAndSend(message) }()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

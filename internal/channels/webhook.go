package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// WebhookChannel relays SMS or push messages to an HTTP gateway as JSON.
type WebhookChannel struct {
	name   domain.NotificationChannel
	url    string
	token  string
	client *http.Client
}

type webhookPayload struct {
	To       string `json:"to"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	TicketID string `json:"ticketId,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// NewWebhookChannel creates a channel named name posting to url.
func NewWebhookChannel(name domain.NotificationChannel, url, token string, client *http.Client) *WebhookChannel {
	if client == nil {
		client = &http.Client{}
	}
	return &WebhookChannel{name: name, url: url, token: token, client: client}
}

func (c *WebhookChannel) Name() domain.NotificationChannel { return c.name }

func (c *WebhookChannel) Target(user *domain.User) (string, bool) {
	return targetFor(c.name, user)
}

func (c *WebhookChannel) Send(ctx context.Context, to string, msg Message) error {
	body, err := json.Marshal(webhookPayload{
		To:       to,
		Title:    msg.Title,
		Body:     msg.Body,
		TicketID: msg.TicketID,
		Priority: string(msg.Priority),
	})
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s gateway error: %s", c.name, resp.Status)
	}
	return nil
}

package channels

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/myhostelpal/complaint-service/internal/config"
	"github.com/myhostelpal/complaint-service/internal/domain"
)

func TestWebhookChannel_Send(t *testing.T) {
	var got webhookPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(domain.ChannelSMS, srv.URL, "secret", srv.Client())
	err := ch.Send(context.Background(), "+15550100", Message{
		Title: "Escalation", Body: "Urgent ticket", TicketID: "t1", Priority: domain.TicketPriorityUrgent,
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, webhookPayload{To: "+15550100", Title: "Escalation", Body: "Urgent ticket", TicketID: "t1", Priority: "urgent"}, got)
}

func TestWebhookChannel_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(domain.ChannelPush, srv.URL, "", srv.Client())
	err := ch.Send(context.Background(), "token", Message{Title: "x"})
	assert.ErrorContains(t, err, "push gateway error")
}

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailChannel_Send(t *testing.T) {
	sender := &fakeSender{}
	ch := NewEmailChannelWithSender(sender, "noreply@hostel.test")

	require.NoError(t, ch.Send(context.Background(), "warden@hostel.test", Message{Title: "Ticket Resolved", Body: "Fixed"}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"Ticket Resolved"}, sender.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"warden@hostel.test"}, sender.sent[0].GetHeader("To"))

	sender.err = errors.New("smtp down")
	assert.ErrorContains(t, ch.Send(context.Background(), "warden@hostel.test", Message{Title: "x"}), "smtp down")
}

func TestTargets(t *testing.T) {
	phone := "+15550100"
	empty := ""
	user := &domain.User{Email: "a@hostel.test", PhoneNumber: &phone, PushToken: &empty}

	to, ok := NewLogChannel(domain.ChannelSMS, zap.NewNop()).Target(user)
	assert.True(t, ok)
	assert.Equal(t, phone, to)

	_, ok = NewLogChannel(domain.ChannelPush, zap.NewNop()).Target(user)
	assert.False(t, ok)

	to, ok = NewEmailChannelWithSender(&fakeSender{}, "x").Target(user)
	assert.True(t, ok)
	assert.Equal(t, "a@hostel.test", to)
}

func TestNewRegistry_FallsBackToLogChannels(t *testing.T) {
	reg := NewRegistry(config.NotificationConfig{SMSWebhookURL: "http://sms.local/send"}, zap.NewNop())

	require.Len(t, reg, 3)
	assert.IsType(t, &LogChannel{}, reg[domain.ChannelEmail])
	assert.IsType(t, &WebhookChannel{}, reg[domain.ChannelSMS])
	assert.IsType(t, &LogChannel{}, reg[domain.ChannelPush])
}

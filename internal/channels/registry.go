package channels

import (
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/config"
	"github.com/myhostelpal/complaint-service/internal/domain"
)

// Registry maps channel names to implementations.
type Registry map[domain.NotificationChannel]Channel

// NewRegistry wires real channels where configured and log stand-ins elsewhere.
func NewRegistry(cfg config.NotificationConfig, logger *zap.Logger) Registry {
	reg := Registry{}

	if cfg.SMTPHost != "" {
		reg.Add(NewEmailChannel(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom))
	} else {
		logger.Warn("SMTP not configured; email notifications are logged only")
		reg.Add(NewLogChannel(domain.ChannelEmail, logger))
	}

	if cfg.SMSWebhookURL != "" {
		reg.Add(NewWebhookChannel(domain.ChannelSMS, cfg.SMSWebhookURL, cfg.WebhookToken, nil))
	} else {
		reg.Add(NewLogChannel(domain.ChannelSMS, logger))
	}

	if cfg.PushWebhookURL != "" {
		reg.Add(NewWebhookChannel(domain.ChannelPush, cfg.PushWebhookURL, cfg.WebhookToken, nil))
	} else {
		reg.Add(NewLogChannel(domain.ChannelPush, logger))
	}

	return reg
}

// Add registers ch under its name, replacing any previous channel.
func (r Registry) Add(ch Channel) {
	r[ch.Name()] = ch
}

package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

type envelope struct {
	UserID string        `json:"userId,omitempty"`
	Roles  []domain.Role `json:"roles,omitempty"`
	Frame  Frame         `json:"frame"`
}

// RedisRelay publishes frames through a Redis channel so every instance
// delivers them to its own sessions.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Broadcaster
	logger  *zap.Logger
}

// NewRedisRelay creates a relay that fans frames in to local.
func NewRedisRelay(client *redis.Client, channel string, local *Broadcaster, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local, logger: logger}
}

// SendToUser publishes frame for userID so every instance can deliver it.
func (r *RedisRelay) SendToUser(userID string, frame Frame) {
	r.publish(envelope{UserID: userID, Frame: frame})
}

// BroadcastToRole publishes frame for the given roles to every instance.
func (r *RedisRelay) BroadcastToRole(frame Frame, roles ...domain.Role) {
	r.publish(envelope{Roles: roles, Frame: frame})
}

func (r *RedisRelay) publish(env envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Warn("encode relay frame", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("publish relay frame", zap.Error(err), zap.String("type", env.Frame.Type))
	}
}

// Run subscribes to the relay channel and delivers frames locally until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("live relay subscribed", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("decode relay frame", zap.Error(err))
				continue
			}
			if env.UserID != "" {
				r.local.SendToUser(env.UserID, env.Frame)
				continue
			}
			r.local.BroadcastToRole(env.Frame, env.Roles...)
		}
	}
}

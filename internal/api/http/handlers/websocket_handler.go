package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/realtime"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// WebSocketHandler upgrades /ws connections into live-update sessions.
type WebSocketHandler struct {
	auth   Authenticator
	hub    *realtime.Broadcaster
	pub    realtime.Publisher
	logger *zap.Logger
}

// NewWebSocketHandler constructs handler. pub receives relayed client frames
// and may fan out across instances; hub owns the local sessions.
func NewWebSocketHandler(auth Authenticator, hub *realtime.Broadcaster, pub realtime.Publisher, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{auth: auth, hub: hub, pub: pub, logger: logger}
}

// Upgrade rejects plain HTTP requests to the socket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve returns the socket handler.
func (h *WebSocketHandler) Serve() fiber.Handler {
	return websocket.New(h.session)
}

func (h *WebSocketHandler) session(conn *websocket.Conn) {
	user, err := h.auth.Authenticate(context.Background(), conn.Query("token"))
	if err != nil {
		_ = conn.WriteJSON(realtime.AuthFailedFrame())
		_ = conn.Close()
		return
	}

	connID := uuid.NewString()
	session := h.hub.Register(connID, user.ID, user.Role, conn)
	defer h.hub.Unregister(connID)
	h.hub.Send(session, realtime.ConnectionFrame())

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in realtime.Frame
		if err := json.Unmarshal(raw, &in); err != nil {
			h.logger.Debug("dropping malformed frame", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		realtime.Relay(h.pub, session, in)
	}
}

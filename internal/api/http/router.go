package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/api/http/handlers"
	"github.com/myhostelpal/complaint-service/internal/auth"
)

// Rate-limit buckets.
const (
	bucketAPI  = "api"
	bucketAuth = "auth"
	bucketAI   = "ai"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Admin          *handlers.AdminHandler
	AI             *handlers.AIHandler
	WebSocket      *handlers.WebSocketHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
	Limits         Limits
	UploadsDir     string
}

// Limits caps requests per client per window for each bucket; zero disables a bucket.
type Limits struct {
	API  int
	Auth int
	AI   int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadsDir != "" {
		app.Static("/uploads", cfg.UploadsDir)
	}
	if cfg.WebSocket != nil {
		app.Get("/ws", cfg.WebSocket.Upgrade, cfg.WebSocket.Serve())
	}

	api := app.Group("/api", cfg.limit(bucketAPI, cfg.Limits.API))

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.limit(bucketAuth, cfg.Limits.Auth), cfg.Auth.Register)
	authGroup.Post("/login", cfg.limit(bucketAuth, cfg.Limits.Auth), cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Put("/me/push-token", cfg.AuthMiddleware.Handle, cfg.Auth.UpdatePushToken)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/my-tickets", cfg.Tickets.ListMyTickets)
	tickets.Get("/", auth.RequireStaff(), cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Put("/:id/status", auth.RequireStaff(), cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assign", auth.RequireStaff(), cfg.Tickets.Assign)
	tickets.Put("/:id/classification", auth.RequireStaff(), cfg.Tickets.OverrideClassification)

	notifications := api.Group("/notifications", cfg.AuthMiddleware.Handle)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Put("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)

	ai := api.Group("/ai", cfg.AuthMiddleware.Handle, cfg.limit(bucketAI, cfg.Limits.AI))
	ai.Post("/analyze", cfg.AI.Analyze)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id/role", cfg.Admin.ChangeRole)
	admin.Delete("/users/:id", cfg.Admin.Deactivate)

	reports := api.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	reports.Get("/users", cfg.Admin.UserStats)
	reports.Get("/:period", cfg.Admin.TicketReport)

	api.Get("/metrics", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Admin.Metrics)
}

func (cfg RouteConfig) limit(bucket string, max int) fiber.Handler {
	if cfg.RateLimiter == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return cfg.RateLimiter.Limit(bucket, max)
}

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/service"
)

// NotificationsHandler serves the caller's notification inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	page, err := h.notifications.List(c.UserContext(), user, unreadOnly,
		parseIntQuery(c, "page", 1), parseIntQuery(c, "limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(dto.NotificationListResponse{
		Notifications: page.Notifications,
		Total:         page.Total,
		UnreadCount:   page.Unread,
		Page:          page.Page,
		Limit:         page.Limit,
	})
}

// MarkRead PUT /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkRead(c.UserContext(), c.Params("id"), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read", "notification": n})
}

// MarkAllRead PUT /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	updated, err := h.notifications.MarkAllRead(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read", "updated": updated})
}

package dto

import "github.com/myhostelpal/complaint-service/internal/domain"

// NotificationListResponse is one page of notifications.
type NotificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	UnreadCount   int                   `json:"unreadCount"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

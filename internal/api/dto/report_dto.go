package dto

import "time"

// TicketReportResponse aggregates ticket activity over a period.
type TicketReportResponse struct {
	Period             string         `json:"period"`
	From               time.Time      `json:"from"`
	To                 time.Time      `json:"to"`
	TotalTickets       int            `json:"totalTickets"`
	ByStatus           map[string]int `json:"byStatus"`
	ByCategory         map[string]int `json:"byCategory"`
	ByPriority         map[string]int `json:"byPriority"`
	OverdueCount       int            `json:"overdueCount"`
	AvgResolutionHours float64        `json:"avgResolutionHours"`
}

// UserStatsResponse summarizes accounts.
type UserStatsResponse struct {
	TotalUsers  int            `json:"totalUsers"`
	ActiveUsers int            `json:"activeUsers"`
	NewUsers    int            `json:"newUsersLast30Days"`
	ByRole      map[string]int `json:"byRole"`
}

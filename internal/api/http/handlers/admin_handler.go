package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/observability"
	"github.com/myhostelpal/complaint-service/internal/service"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// AdminHandler exposes user management, reports and metrics.
type AdminHandler struct {
	users   *service.UserService
	reports *service.ReportService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService, reports *service.ReportService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{users: users, reports: reports, metrics: metrics}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	page, err := h.users.ListUsers(c.UserContext(), actor, parseUserListFilters(c))
	if err != nil {
		return err
	}
	resp := dto.UserListResponse{
		Users: make([]dto.UserResponse, 0, len(page.Users)),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
	for i := range page.Users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&page.Users[i]))
	}
	return c.JSON(resp)
}

// ChangeRole PATCH /admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.RoleChangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.ChangeRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Role updated successfully", "user": dto.NewUserResponse(user)})
}

// Deactivate DELETE /admin/users/:id.
func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Deactivate(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deactivated successfully", "user": dto.NewUserResponse(user)})
}

// TicketReport GET /reports/:period.
func (h *AdminHandler) TicketReport(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	period := service.ReportPeriod(c.Params("period"))
	if !period.Valid() {
		return apperrors.NewFieldError("period", "must be one of daily, weekly, monthly")
	}
	report, err := h.reports.TicketReport(c.UserContext(), actor, period)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketReportResponse{
		Period:             string(report.Period),
		From:               report.From,
		To:                 report.To,
		TotalTickets:       report.TotalTickets,
		ByStatus:           report.ByStatus,
		ByCategory:         report.ByCategory,
		ByPriority:         report.ByPriority,
		OverdueCount:       report.OverdueCount,
		AvgResolutionHours: report.AvgResolutionHours,
	})
}

// UserStats GET /reports/users.
func (h *AdminHandler) UserStats(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.reports.UserStats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserStatsResponse{
		TotalUsers:  stats.TotalUsers,
		ActiveUsers: stats.ActiveUsers,
		NewUsers:    stats.NewUsers30d,
		ByRole:      stats.ByRole,
	})
}

// Metrics GET /metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

func parseUserListFilters(c *fiber.Ctx) service.UserListFilters {
	filters := service.UserListFilters{
		Role:  queryEnum[domain.Role](c, "role"),
		Page:  parseIntQuery(c, "page", 1),
		Limit: parseIntQuery(c, "limit", 20),
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filters.Active = &val
		}
	}
	return filters
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

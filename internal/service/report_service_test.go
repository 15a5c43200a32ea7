package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myhostelpal/complaint-service/internal/domain"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

func TestReportPeriodWindow(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)
	today := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	from, to := PeriodDaily.Window(now)
	assert.Equal(t, today, from)
	assert.Equal(t, today.AddDate(0, 0, 1), to)

	from, to = PeriodWeekly.Window(now)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, today, to)

	from, to = PeriodMonthly.Window(now)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestTicketReport_Daily(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	admin := f.user(t, "Warden Admin", domain.RoleAdmin, true)
	first := f.ticket(t, student)
	f.ticket(t, student)

	f.now = f.now.Add(3 * time.Hour)
	desc := "fixed"
	_, err := f.tickets.UpdateStatus(f.ctx, first.ID, admin, UpdateStatusInput{Status: domain.TicketStatusResolved, ResolutionDescription: &desc})
	require.NoError(t, err)

	svc := NewReportService(f.store.Reports())
	svc.now = func() time.Time { return f.now }

	report, err := svc.TicketReport(f.ctx, admin, PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTickets)
	assert.Equal(t, map[string]int{"open": 1, "resolved": 1}, report.ByStatus)
	assert.Equal(t, map[string]int{"maintenance": 2}, report.ByCategory)
	assert.Equal(t, map[string]int{"medium": 2}, report.ByPriority)
	assert.InDelta(t, 3.0, report.AvgResolutionHours, 1e-9)
	assert.Zero(t, report.OverdueCount)

	_, err = svc.TicketReport(f.ctx, student, PeriodDaily)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	_, err = svc.TicketReport(f.ctx, admin, ReportPeriod("yearly"))
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUserStats(t *testing.T) {
	f := newFixture(t)
	f.user(t, "Asha Rao", domain.RoleStudent, true)
	f.user(t, "Vikram Singh", domain.RoleStudent, false)
	admin := f.user(t, "Warden Admin", domain.RoleAdmin, true)

	svc := NewReportService(f.store.Reports())
	svc.now = func() time.Time { return f.now }
	stats, err := svc.UserStats(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 3, stats.NewUsers30d)
	assert.Equal(t, map[string]int{"admin": 1, "student": 2}, stats.ByRole)
}

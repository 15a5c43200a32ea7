package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// ReportPeriod selects the reporting window.
type ReportPeriod string

const (
	PeriodDaily   ReportPeriod = "daily"
	PeriodWeekly  ReportPeriod = "weekly"
	PeriodMonthly ReportPeriod = "monthly"
)

// Valid reports whether p is a known period.
func (p ReportPeriod) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// Window returns the half-open [from, to) range for the period around now.
// Daily covers today, weekly the seven days before today, monthly the calendar month.
func (p ReportPeriod) Window(now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodWeekly:
		return today.AddDate(0, 0, -7), today
	case PeriodMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0)
	default:
		return today, today.AddDate(0, 0, 1)
	}
}

// TicketReport aggregates ticket activity over a window.
type TicketReport struct {
	Period             ReportPeriod
	From               time.Time
	To                 time.Time
	TotalTickets       int
	ByStatus           map[string]int
	ByCategory         map[string]int
	ByPriority         map[string]int
	OverdueCount       int
	AvgResolutionHours float64
}

// UserStats summarizes the user base.
type UserStats struct {
	TotalUsers  int
	ActiveUsers int
	NewUsers30d int
	ByRole      map[string]int
}

// ReportService produces admin reports.
type ReportService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

// NewReportService constructs the service.
func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

// TicketReport builds the report for period. Queries run concurrently.
func (s *ReportService) TicketReport(ctx context.Context, actor *domain.User, period ReportPeriod) (*TicketReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !period.Valid() {
		return nil, apperrors.NewFieldError("period", "must be one of daily, weekly, monthly")
	}

	now := s.now()
	from, to := period.Window(now)
	report := &TicketReport{Period: period, From: from, To: to}

	var byStatus, byCategory, byPriority []repository.Count
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.TotalTickets, err = s.reports.CountTickets(gctx, from, to)
		if err != nil {
			return fmt.Errorf("count tickets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.reports.CountTicketsBy(gctx, "status", from, to)
		if err != nil {
			return fmt.Errorf("count by status: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.reports.CountTicketsBy(gctx, "category", from, to)
		if err != nil {
			return fmt.Errorf("count by category: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byPriority, err = s.reports.CountTicketsBy(gctx, "priority", from, to)
		if err != nil {
			return fmt.Errorf("count by priority: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		report.OverdueCount, err = s.reports.CountOverdue(gctx, now)
		if err != nil {
			return fmt.Errorf("count overdue: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		report.AvgResolutionHours, err = s.reports.AverageResolutionHours(gctx, from, to)
		if err != nil {
			return fmt.Errorf("average resolution: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	report.ByStatus = countMap(byStatus)
	report.ByCategory = countMap(byCategory)
	report.ByPriority = countMap(byPriority)
	return report, nil
}

// UserStats reports account counts by role, active accounts and sign-ups in the last 30 days.
func (s *ReportService) UserStats(ctx context.Context, actor *domain.User) (*UserStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	counts, err := s.reports.UserCounts(ctx, s.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &UserStats{
		TotalUsers:  counts.TotalUsers,
		ActiveUsers: counts.Active,
		NewUsers30d: counts.NewSince,
		ByRole:      countMap(counts.ByRole),
	}, nil
}

func countMap(counts []repository.Count) map[string]int {
	out := make(map[string]int, len(counts))
	for _, c := range counts {
		out[c.Key] = c.Total
	}
	return out
}

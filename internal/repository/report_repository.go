package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
)

// Count is a single group-by bucket.
type Count struct {
	Key   string
	Total int
}

// UserCounts summarizes the user base.
type UserCounts struct {
	ByRole     []Count
	Active     int
	NewSince   int
	TotalUsers int
}

// ReportRepository runs aggregate queries over tickets and users.
type ReportRepository interface {
	CountTickets(ctx context.Context, from, to time.Time) (int, error)
	// CountTicketsBy groups tickets created in [from, to) by column: status, category or priority.
	CountTicketsBy(ctx context.Context, column string, from, to time.Time) ([]Count, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
	AverageResolutionHours(ctx context.Context, from, to time.Time) (float64, error)
	UserCounts(ctx context.Context, since time.Time) (UserCounts, error)
}

var groupableTicketColumns = map[string]struct{}{
	"status":   {},
	"category": {},
	"priority": {},
}

type reportRepository struct {
	db Querier
}

// NewReportRepository returns a Postgres-backed implementation.
func NewReportRepository(db Querier) ReportRepository {
	return &reportRepository{db: db}
}

func createdBetween(from, to time.Time) squirrel.And {
	return squirrel.And{squirrel.GtOrEq{"created_at": from}, squirrel.Lt{"created_at": to}}
}

func (r *reportRepository) CountTickets(ctx context.Context, from, to time.Time) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("tickets").Where(createdBetween(from, to)).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	err = r.db.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (r *reportRepository) CountTicketsBy(ctx context.Context, column string, from, to time.Time) ([]Count, error) {
	if _, ok := groupableTicketColumns[column]; !ok {
		return nil, ErrNotFound
	}
	query, args, err := psql.Select(column, "COUNT(*)").
		From("tickets").
		Where(createdBetween(from, to)).
		GroupBy(column).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.counts(ctx, query, args...)
}

func (r *reportRepository) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE status IN ('open', 'in_progress')
          AND created_at < $1 - (CASE priority
                WHEN 'urgent' THEN INTERVAL '2 hours'
                WHEN 'high' THEN INTERVAL '24 hours'
                WHEN 'medium' THEN INTERVAL '72 hours'
                ELSE INTERVAL '168 hours' END)`
	var total int
	err := r.db.QueryRow(ctx, query, now).Scan(&total)
	return total, err
}

func (r *reportRepository) AverageResolutionHours(ctx context.Context, from, to time.Time) (float64, error) {
	query, args, err := psql.
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM ((resolution->>'resolvedAt')::timestamptz - created_at)) / 3600), 0)::float8").
		From("tickets").
		Where(createdBetween(from, to)).
		Where("resolution IS NOT NULL").
		ToSql()
	if err != nil {
		return 0, err
	}
	var avg float64
	err = r.db.QueryRow(ctx, query, args...).Scan(&avg)
	return avg, err
}

func (r *reportRepository) UserCounts(ctx context.Context, since time.Time) (UserCounts, error) {
	var out UserCounts
	byRole, err := r.counts(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role ORDER BY role`)
	if err != nil {
		return out, err
	}
	out.ByRole = byRole

	const totals = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE active),
               COUNT(*) FILTER (WHERE created_at >= $1)
        FROM users`
	if err := r.db.QueryRow(ctx, totals, since).Scan(&out.TotalUsers, &out.Active, &out.NewSince); err != nil {
		return out, err
	}
	return out, nil
}

func (r *reportRepository) counts(ctx context.Context, query string, args ...any) ([]Count, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Total); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

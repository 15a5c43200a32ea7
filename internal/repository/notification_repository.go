package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// NotificationRepository stores user-addressed notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	// AppendSentVia records a successful delivery; repeated channels are ignored.
	AppendSentVia(ctx context.Context, id string, channel domain.NotificationChannel) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	CountByUser(ctx context.Context, userID string, unreadOnly bool) (int, error)
}

const notificationColumns = "id, user_id, ticket_id, title, message, type, priority, is_read, read_at, sent_via, created_at"

type notificationRepository struct {
	db Querier
}

// NewNotificationRepository returns a Postgres-backed implementation.
func NewNotificationRepository(db Querier) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, ticket_id, title, message, type, priority)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		n.UserID,
		n.TicketID,
		n.Title,
		n.Message,
		n.Type,
		n.Priority,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	return scanNotification(r.db.QueryRow(ctx, query, id))
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET is_read=TRUE, read_at=COALESCE(read_at, $1) WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	const query = `UPDATE notifications SET is_read=TRUE, read_at=$1 WHERE user_id=$2 AND is_read=FALSE`
	cmd, err := r.db.Exec(ctx, query, at, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) AppendSentVia(ctx context.Context, id string, channel domain.NotificationChannel) error {
	const query = `
        UPDATE notifications SET sent_via = array_append(sent_via, $1)
        WHERE id=$2 AND NOT ($1 = ANY(sent_via))`
	_, err := r.db.Exec(ctx, query, string(channel), id)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	l, o := pageBounds(limit, offset)
	query, args, err := psql.Select(notificationColumns).
		From("notifications").
		Where(notificationScope(userID, unreadOnly)).
		OrderBy("created_at DESC").
		Limit(l).
		Offset(o).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountByUser(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("notifications").Where(notificationScope(userID, unreadOnly)).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func notificationScope(userID string, unreadOnly bool) squirrel.Sqlizer {
	scope := squirrel.Eq{"user_id": userID}
	if unreadOnly {
		scope["is_read"] = false
	}
	return scope
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n       domain.Notification
		sentVia []string
	)
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.TicketID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.Priority,
		&n.IsRead,
		&n.ReadAt,
		&sentVia,
		&n.CreatedAt,
	); err != nil {
		return nil, wrapNoRows(err)
	}
	n.SentVia = make([]domain.NotificationChannel, 0, len(sentVia))
	for _, ch := range sentVia {
		n.SentVia = append(n.SentVia, domain.NotificationChannel(ch))
	}
	return &n, nil
}

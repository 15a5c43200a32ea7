package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// TicketFilter captures list parameters for students and staff.
type TicketFilter struct {
	StudentID  *string
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Categories []domain.TicketCategory
	Priorities []domain.TicketPriority
	// ByPriority orders urgent tickets first, then newest.
	ByPriority bool
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes mutable fields when ticket.Version still matches the stored row,
	// then bumps ticket.Version.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	AppendComment(ctx context.Context, comment *domain.Comment) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	ListUnresolvedBefore(ctx context.Context, createdBefore time.Time) ([]domain.Ticket, error)
	MarkEscalated(ctx context.Context, id string, level int, at time.Time) error
}

const ticketColumns = `t.id, t.title, t.description, t.category, t.priority, t.status, t.student_id, t.assignee_id,
    t.location, t.images, t.ai_analysis, t.resolution, t.escalation_level, t.last_escalated_at, t.version,
    t.created_at, t.updated_at,
    s.name, s.email, s.room_number,
    a.name, a.email`

const priorityRank = "CASE t.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db Querier) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status, student_id, assignee_id, location, images, ai_analysis)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, version, created_at, updated_at`

	doc, err := encodeTicketDocs(ticket)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.StudentID,
		ticket.AssigneeID,
		doc.location,
		doc.images,
		doc.analysis,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=$1, priority=$2, status=$3, assignee_id=$4, ai_analysis=$5, resolution=$6,
            version=version+1, updated_at=NOW()
        WHERE id=$7 AND version=$8
        RETURNING version, updated_at`

	doc, err := encodeTicketDocs(ticket)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, query,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		doc.analysis,
		doc.resolution,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query, args, err := ticketSelect().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	comments, err := r.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Comments = comments
	return ticket, nil
}

func (r *ticketRepository) listComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, c.message, c.created_at, u.name, u.email, u.role
        FROM ticket_comments c JOIN users u ON u.id = c.author_id
        WHERE c.ticket_id=$1
        ORDER BY c.created_at`

	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		author := domain.UserSummary{}
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Message, &c.CreatedAt,
			&author.Name, &author.Email, &author.Role); err != nil {
			return nil, err
		}
		author.ID = c.AuthorID
		c.Author = &author
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *ticketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	const query = `
        WITH inserted AS (
            INSERT INTO ticket_comments (ticket_id, author_id, message)
            VALUES ($1, $2, $3)
            RETURNING id, created_at
        ), touched AS (
            UPDATE tickets SET updated_at=NOW() WHERE id=$1
        )
        SELECT id, created_at FROM inserted`

	return r.db.QueryRow(ctx, query, comment.TicketID, comment.AuthorID, comment.Message).
		Scan(&comment.ID, &comment.CreatedAt)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	builder := applyTicketFilter(ticketSelect(), filter).Limit(limit).Offset(offset)
	if filter.ByPriority {
		builder = builder.OrderBy(priorityRank, "t.created_at DESC")
	} else {
		builder = builder.OrderBy("t.created_at DESC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	query, args, err := applyTicketFilter(psql.Select("COUNT(*)").From("tickets t"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ticketRepository) ListUnresolvedBefore(ctx context.Context, createdBefore time.Time) ([]domain.Ticket, error) {
	query, args, err := ticketSelect().
		Where(squirrel.Eq{"t.status": []string{string(domain.TicketStatusOpen), string(domain.TicketStatusInProgress)}}).
		Where(squirrel.Lt{"t.created_at": createdBefore}).
		OrderBy("t.created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) MarkEscalated(ctx context.Context, id string, level int, at time.Time) error {
	const query = `UPDATE tickets SET escalation_level=$1, last_escalated_at=$2 WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, level, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func ticketSelect() squirrel.SelectBuilder {
	return psql.Select(ticketColumns).
		From("tickets t").
		Join("users s ON s.id = t.student_id").
		LeftJoin("users a ON a.id = t.assignee_id")
}

func applyTicketFilter(builder squirrel.SelectBuilder, filter TicketFilter) squirrel.SelectBuilder {
	if filter.StudentID != nil {
		builder = builder.Where(squirrel.Eq{"t.student_id": *filter.StudentID})
	}
	if filter.AssigneeID != nil {
		builder = builder.Where(squirrel.Eq{"t.assignee_id": *filter.AssigneeID})
	}
	if len(filter.Statuses) > 0 {
		builder = builder.Where(squirrel.Eq{"t.status": filter.Statuses})
	}
	if len(filter.Categories) > 0 {
		builder = builder.Where(squirrel.Eq{"t.category": filter.Categories})
	}
	if len(filter.Priorities) > 0 {
		builder = builder.Where(squirrel.Eq{"t.priority": filter.Priorities})
	}
	return builder
}

type ticketDocs struct {
	location   []byte
	images     []byte
	analysis   []byte
	resolution []byte
}

func encodeTicketDocs(ticket *domain.Ticket) (ticketDocs, error) {
	var doc ticketDocs
	var err error
	if doc.location, err = json.Marshal(ticket.Location); err != nil {
		return doc, fmt.Errorf("encode location: %w", err)
	}
	images := ticket.Images
	if images == nil {
		images = []domain.Image{}
	}
	if doc.images, err = json.Marshal(images); err != nil {
		return doc, fmt.Errorf("encode images: %w", err)
	}
	if doc.analysis, err = json.Marshal(ticket.AIAnalysis); err != nil {
		return doc, fmt.Errorf("encode ai analysis: %w", err)
	}
	if ticket.Resolution != nil {
		if doc.resolution, err = json.Marshal(ticket.Resolution); err != nil {
			return doc, fmt.Errorf("encode resolution: %w", err)
		}
	}
	return doc, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket                      domain.Ticket
		doc                         ticketDocs
		student                     domain.UserSummary
		assigneeName, assigneeEmail *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.StudentID,
		&ticket.AssigneeID,
		&doc.location,
		&doc.images,
		&doc.analysis,
		&doc.resolution,
		&ticket.EscalationLevel,
		&ticket.LastEscalatedAt,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&student.Name,
		&student.Email,
		&student.RoomNumber,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, wrapNoRows(err)
	}

	if err := json.Unmarshal(doc.location, &ticket.Location); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	if err := json.Unmarshal(doc.images, &ticket.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal(doc.analysis, &ticket.AIAnalysis); err != nil {
		return nil, fmt.Errorf("decode ai analysis: %w", err)
	}
	if len(doc.resolution) > 0 {
		ticket.Resolution = &domain.Resolution{}
		if err := json.Unmarshal(doc.resolution, ticket.Resolution); err != nil {
			return nil, fmt.Errorf("decode resolution: %w", err)
		}
	}

	student.ID = ticket.StudentID
	student.Role = domain.RoleStudent
	ticket.Student = &student
	if ticket.AssigneeID != nil && assigneeName != nil {
		ticket.Assignee = &domain.UserSummary{ID: *ticket.AssigneeID, Name: *assigneeName}
		if assigneeEmail != nil {
			ticket.Assignee.Email = *assigneeEmail
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

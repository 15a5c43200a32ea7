package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// UserFilter narrows administrative user listings.
type UserFilter struct {
	Role   *domain.Role
	Active *bool
	Limit  int
	Offset int
}

// UserRepository defines persistence access for hostel users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListActiveByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
}

const userColumns = "id, name, email, password_hash, role, room_number, hostel_block, phone_number, push_token, active, created_at, updated_at"

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, room_number, hostel_block, phone_number, push_token, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.RoomNumber,
		user.HostelBlock,
		user.PhoneNumber,
		user.PushToken,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return wrapUnique(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, room_number=$5, hostel_block=$6,
            phone_number=$7, push_token=$8, active=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.RoomNumber,
		user.HostelBlock,
		user.PhoneNumber,
		user.PushToken,
		user.Active,
		user.ID,
	).Scan(&user.UpdatedAt)
	return wrapNoRows(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) ListActiveByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	query, args, err := psql.Select(userColumns).
		From("users").
		Where(squirrel.Eq{"active": true, "role": roleStrings(roles)}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	where := squirrel.And{}
	if filter.Role != nil {
		where = append(where, squirrel.Eq{"role": *filter.Role})
	}
	if filter.Active != nil {
		where = append(where, squirrel.Eq{"active": *filter.Active})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query, args, err := psql.Select(userColumns).
		From("users").
		Where(where).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users, err := scanUsers(rows)
	return users, total, err
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.RoomNumber,
		&user.HostelBlock,
		&user.PhoneNumber,
		&user.PushToken,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, wrapNoRows(err)
	}
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

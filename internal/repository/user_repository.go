package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextread/library-service/internal/domain"
)

// UserRepository defines persistence access for library members.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, student_id, email, phone, password_hash, role, membership_status, join_date`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	q := querierFrom(ctx, r.pool)
	var err error
	if user.ID == 0 {
		const query = `
        INSERT INTO users (name, student_id, email, phone, password_hash, role, membership_status, join_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
		err = q.QueryRow(ctx, query,
			user.Name,
			user.StudentID,
			user.Email,
			user.Phone,
			user.PasswordHash,
			user.Role,
			user.MembershipStatus,
			user.JoinDate,
		).Scan(&user.ID)
	} else {
		const query = `
        UPDATE users SET name=$1, student_id=$2, email=$3, phone=$4, password_hash=$5, role=$6,
            membership_status=$7
        WHERE id=$8`
		var tag pgconn.CommandTag
		tag, err = q.Exec(ctx, query,
			user.Name,
			user.StudentID,
			user.Email,
			user.Phone,
			user.PasswordHash,
			user.Role,
			user.MembershipStatus,
			user.ID,
		)
		if err == nil && tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	_, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.StudentID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.MembershipStatus,
		&user.JoinDate,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

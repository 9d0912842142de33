package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextread/library-service/internal/domain"
)

// ReservationRepository encapsulates reservation persistence.
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Save(ctx context.Context, reservation *domain.Reservation) error
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]domain.Reservation, error)
	FindByUserAndStatus(ctx context.Context, userID int64, status domain.ReservationStatus) ([]domain.Reservation, error)
	FindByBookAndStatus(ctx context.Context, bookID int64, status domain.ReservationStatus) ([]domain.Reservation, error)
	DeleteByBook(ctx context.Context, bookID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository instantiates repository.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

const reservationColumns = `id, user_id, book_id, reserved_date, due_date, status, position, estimated_wait`

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := scanReservation(querierFrom(ctx, r.pool).QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

func (r *reservationRepository) Save(ctx context.Context, res *domain.Reservation) error {
	q := querierFrom(ctx, r.pool)
	if res.ID == 0 {
		const query = `
        INSERT INTO reservations (user_id, book_id, reserved_date, due_date, status, position, estimated_wait)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
		return q.QueryRow(ctx, query,
			res.UserID,
			res.BookID,
			res.ReservedDate,
			res.DueDate,
			res.Status,
			res.Position,
			res.EstimatedWait,
		).Scan(&res.ID)
	}

	const query = `
        UPDATE reservations SET user_id=$1, book_id=$2, reserved_date=$3, due_date=$4, status=$5,
            position=$6, estimated_wait=$7
        WHERE id=$8`
	cmd, err := q.Exec(ctx, query,
		res.UserID,
		res.BookID,
		res.ReservedDate,
		res.DueDate,
		res.Status,
		res.Position,
		res.EstimatedWait,
		res.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reservationRepository) Delete(ctx context.Context, id int64) error {
	_, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	return err
}

func (r *reservationRepository) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id`)
}

func (r *reservationRepository) FindByUserAndStatus(ctx context.Context, userID int64, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id=$1 AND status=$2 ORDER BY id`, userID, status)
}

func (r *reservationRepository) FindByBookAndStatus(ctx context.Context, bookID int64, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE book_id=$1 AND status=$2 ORDER BY id`, bookID, status)
}

func (r *reservationRepository) DeleteByBook(ctx context.Context, bookID int64) error {
	_, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM reservations WHERE book_id=$1`, bookID)
	return err
}

func (r *reservationRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM reservations WHERE user_id=$1`, userID)
	return err
}

func (r *reservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}
	return result, rows.Err()
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.BookID,
		&res.ReservedDate,
		&res.DueDate,
		&res.Status,
		&res.Position,
		&res.EstimatedWait,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

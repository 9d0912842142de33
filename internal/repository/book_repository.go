package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextread/library-service/internal/domain"
)

// BookRepository defines persistence access for catalogue books.
type BookRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	Save(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]domain.Book, error)
	FindByGenre(ctx context.Context, genre string) ([]domain.Book, error)
}

type bookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository returns a Postgres-backed implementation.
func NewBookRepository(pool *pgxpool.Pool) BookRepository {
	return &bookRepository{pool: pool}
}

const bookColumns = `id, title, author, isbn, genre, rating, total_copies, available_copies, in_queue,
               description, status, created_at, updated_at`

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id=$1`

	book, err := scanBook(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return book, nil
}

func (r *bookRepository) Save(ctx context.Context, book *domain.Book) error {
	q := querierFrom(ctx, r.pool)
	if book.ID == 0 {
		const query = `
        INSERT INTO books (title, author, isbn, genre, rating, total_copies, available_copies, in_queue, description, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
		return q.QueryRow(ctx, query,
			book.Title,
			book.Author,
			book.ISBN,
			book.Genre,
			book.Rating,
			book.TotalCopies,
			book.AvailableCopies,
			book.InQueue,
			book.Description,
			book.Status,
		).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
	}

	const query = `
        UPDATE books SET title=$1, author=$2, isbn=$3, genre=$4, rating=$5, total_copies=$6,
            available_copies=$7, in_queue=$8, description=$9, status=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	err := q.QueryRow(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Rating,
		book.TotalCopies,
		book.AvailableCopies,
		book.InQueue,
		book.Description,
		book.Status,
		book.ID,
	).Scan(&book.UpdatedAt)
	return notFound(err)
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	_, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	return err
}

func (r *bookRepository) FindAll(ctx context.Context) ([]domain.Book, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (r *bookRepository) FindByGenre(ctx context.Context, genre string) ([]domain.Book, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, `SELECT `+bookColumns+` FROM books WHERE genre=$1 ORDER BY id`, genre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var book domain.Book
	if err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Genre,
		&book.Rating,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.InQueue,
		&book.Description,
		&book.Status,
		&book.CreatedAt,
		&book.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &book, nil
}

func scanBooks(rows pgx.Rows) ([]domain.Book, error) {
	result := []domain.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *book)
	}
	return result, rows.Err()
}

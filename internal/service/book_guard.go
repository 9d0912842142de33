package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nextread/library-service/internal/domain"
	"github.com/nextread/library-service/internal/lock"
	"github.com/nextread/library-service/internal/repository"
	apperrors "github.com/nextread/library-service/pkg/util/errorutil"
)

// bookGuard makes a multi-step update of one book's counters and queue a single unit:
// the book lock is held for the whole sequence and the store writes share one transaction.
type bookGuard struct {
	locker lock.Locker
	tx     repository.TxManager
}

func (g bookGuard) run(ctx context.Context, bookID int64, fn func(ctx context.Context) error) error {
	return g.runLocked(ctx, []string{lock.BookKey(bookID)}, fn)
}

// runForUser also pins the member so they cannot be deleted mid-update. Lock order is
// book then user.
func (g bookGuard) runForUser(ctx context.Context, bookID, userID int64, fn func(ctx context.Context) error) error {
	return g.runLocked(ctx, []string{lock.BookKey(bookID), lock.UserKey(userID)}, fn)
}

func (g bookGuard) runLocked(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	for _, key := range keys {
		unlock, err := g.locker.Lock(ctx, key)
		if err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		defer unlock()
	}
	return g.tx.WithinTx(ctx, fn)
}

func findBook(ctx context.Context, books repository.BookRepository, id int64) (*domain.Book, error) {
	book, err := books.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("book", map[string]any{"book_id": id})
	}
	return book, err
}

func findUser(ctx context.Context, users repository.UserRepository, id int64) (*domain.User, error) {
	user, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	return user, err
}

func findReservation(ctx context.Context, reservations repository.ReservationRepository, id int64) (*domain.Reservation, error) {
	res, err := reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("reservation", map[string]any{"reservation_id": id})
	}
	return res, err
}

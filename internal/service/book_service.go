package service

import (
	"context"
	"strings"

	"github.com/nextread/library-service/internal/domain"
	"github.com/nextread/library-service/internal/events"
	"github.com/nextread/library-service/internal/lock"
	"github.com/nextread/library-service/internal/repository"
	apperrors "github.com/nextread/library-service/pkg/util/errorutil"
)

// BookInput carries the fields of a new catalogue entry.
type BookInput struct {
	Title       string
	Author      string
	ISBN        string
	Genre       string
	Rating      float64
	TotalCopies int
	Description string
}

// BookUpdate carries optional catalogue changes; nil fields are left alone.
type BookUpdate struct {
	Title       *string
	Author      *string
	ISBN        *string
	Genre       *string
	Rating      *float64
	Description *string
	TotalCopies *int
}

// BookService manages the catalogue. Copy counts are owned by the reservation engine.
type BookService struct {
	books        repository.BookRepository
	reservations repository.ReservationRepository
	guard        bookGuard
	engine       *ReservationService
}

// BookDependencies bundles collaborators for the book service.
type BookDependencies struct {
	BookRepo        repository.BookRepository
	ReservationRepo repository.ReservationRepository
	TxManager       repository.TxManager
	Locker          lock.Locker
	Engine          *ReservationService
}

// NewBookService constructs the service.
func NewBookService(deps BookDependencies) *BookService {
	return &BookService{
		books:        deps.BookRepo,
		reservations: deps.ReservationRepo,
		guard:        bookGuard{locker: deps.Locker, tx: deps.TxManager},
		engine:       deps.Engine,
	}
}

// ListBooks returns the catalogue, narrowed to one genre when genre is non-empty.
func (s *BookService) ListBooks(ctx context.Context, genre string) ([]domain.Book, error) {
	var (
		books []domain.Book
		err   error
	)
	if genre = strings.TrimSpace(genre); genre != "" {
		books, err = s.books.FindByGenre(ctx, genre)
	} else {
		books, err = s.books.FindAll(ctx)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return books, nil
}

// GetBook fetches one book.
func (s *BookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := findBook(ctx, s.books, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return book, nil
}

// CreateBook adds a title with every copy on the shelf and an empty queue.
func (s *BookService) CreateBook(ctx context.Context, input BookInput) (*domain.Book, error) {
	if input.TotalCopies < 0 {
		return nil, apperrors.NewValidationError("total copies must not be negative",
			map[string]any{"total_copies": input.TotalCopies})
	}
	book := &domain.Book{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		ISBN:        strings.TrimSpace(input.ISBN),
		Genre:       strings.TrimSpace(input.Genre),
		Rating:      input.Rating,
		TotalCopies: input.TotalCopies,
		Description: input.Description,
	}
	book.SetAvailability(input.TotalCopies)
	if err := s.books.Save(ctx, book); err != nil {
		return nil, apperrors.MapError(err)
	}
	return book, nil
}

// UpdateBook applies metadata changes and, when TotalCopies is set, resizes the stock the way
// the reservation engine does. The whole update runs under the book lock.
func (s *BookService) UpdateBook(ctx context.Context, id int64, update BookUpdate) (*domain.Book, error) {
	var updated *domain.Book
	var pending []events.Event

	err := s.guard.run(ctx, id, func(ctx context.Context) error {
		book, err := findBook(ctx, s.books, id)
		if err != nil {
			return err
		}
		applyBookUpdate(book, update)

		if update.TotalCopies == nil {
			if err := s.books.Save(ctx, book); err != nil {
				return err
			}
			updated = book
			return nil
		}

		promoted, err := s.engine.resizeStock(ctx, book, *update.TotalCopies)
		if err != nil {
			return err
		}
		pending = promoted
		updated = book
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.engine.publish(ctx, pending)
	return updated, nil
}

// DeleteBook removes a book and its reservation history. Books that are lent out or have a
// queue cannot be deleted.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	err := s.guard.run(ctx, id, func(ctx context.Context) error {
		if _, err := findBook(ctx, s.books, id); err != nil {
			return err
		}
		for _, status := range []domain.ReservationStatus{domain.ReservationStatusActive, domain.ReservationStatusQueue} {
			held, err := s.reservations.FindByBookAndStatus(ctx, id, status)
			if err != nil {
				return err
			}
			if len(held) > 0 {
				return apperrors.NewConflict("book has open reservations",
					map[string]any{"book_id": id, "status": status, "count": len(held)})
			}
		}
		if err := s.reservations.DeleteByBook(ctx, id); err != nil {
			return err
		}
		return s.books.Delete(ctx, id)
	})
	return apperrors.MapError(err)
}

func applyBookUpdate(book *domain.Book, update BookUpdate) {
	if update.Title != nil {
		book.Title = strings.TrimSpace(*update.Title)
	}
	if update.Author != nil {
		book.Author = strings.TrimSpace(*update.Author)
	}
	if update.ISBN != nil {
		book.ISBN = strings.TrimSpace(*update.ISBN)
	}
	if update.Genre != nil {
		book.Genre = strings.TrimSpace(*update.Genre)
	}
	if update.Rating != nil {
		book.Rating = *update.Rating
	}
	if update.Description != nil {
		book.Description = *update.Description
	}
}

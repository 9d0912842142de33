package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nextread/library-service/internal/config"
	"github.com/nextread/library-service/internal/domain"
	"github.com/nextread/library-service/internal/events"
	"github.com/nextread/library-service/internal/lock"
	"github.com/nextread/library-service/internal/repository"
	apperrors "github.com/nextread/library-service/pkg/util/errorutil"
)

// ReservationService runs the reservation lifecycle: reserve, cancel, return and queue promotion.
// Every mutation of a book's copies or queue happens under that book's lock.
type ReservationService struct {
	books        repository.BookRepository
	users        repository.UserRepository
	reservations repository.ReservationRepository
	guard        bookGuard
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
	borrowDays   int
	waitDays     int
}

// ReservationDependencies bundles collaborators for the reservation service.
type ReservationDependencies struct {
	BookRepo        repository.BookRepository
	UserRepo        repository.UserRepository
	ReservationRepo repository.ReservationRepository
	TxManager       repository.TxManager
	Locker          lock.Locker
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Clock           func() time.Time
}

// NewReservationService constructs the service.
func NewReservationService(cfg config.ReservationConfig, deps ReservationDependencies) *ReservationService {
	s := &ReservationService{
		books:        deps.BookRepo,
		users:        deps.UserRepo,
		reservations: deps.ReservationRepo,
		guard:        bookGuard{locker: deps.Locker, tx: deps.TxManager},
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		now:          deps.Clock,
		borrowDays:   cfg.DefaultBorrowDays,
		waitDays:     cfg.WaitDaysPerPosition,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.borrowDays <= 0 {
		s.borrowDays = 14
	}
	if s.waitDays <= 0 {
		s.waitDays = 14
	}
	return s
}

// Reserve gives the user a copy of the book when one is free, otherwise appends them to the
// book's queue. Queueing is a successful outcome. borrowDays <= 0 selects the default loan length.
func (s *ReservationService) Reserve(ctx context.Context, userID, bookID int64, borrowDays int) (*domain.Reservation, error) {
	var created *domain.Reservation
	var pending []events.Event

	err := s.guard.runForUser(ctx, bookID, userID, func(ctx context.Context) error {
		book, err := findBook(ctx, s.books, bookID)
		if err != nil {
			return err
		}
		if _, err := findUser(ctx, s.users, userID); err != nil {
			return err
		}
		if err := s.ensureNoHold(ctx, userID, bookID); err != nil {
			return err
		}

		now := s.now()
		res := &domain.Reservation{UserID: userID, BookID: bookID, ReservedDate: now}
		if book.AvailableCopies > 0 {
			res.Activate(now.AddDate(0, 0, s.loanDays(borrowDays)))
			book.AdjustAvailability(-1)
		} else {
			queue, err := s.reservations.FindByBookAndStatus(ctx, bookID, domain.ReservationStatusQueue)
			if err != nil {
				return err
			}
			res.Enqueue(len(queue)+1, s.waitDays)
			book.IncrementQueue()
		}

		if err := s.books.Save(ctx, book); err != nil {
			return err
		}
		if err := s.reservations.Save(ctx, res); err != nil {
			return err
		}

		if res.Status == domain.ReservationStatusActive {
			pending = append(pending, reservationEvent(events.EventReservationReserved, res,
				events.ReservedPayload{DueDate: *res.DueDate}))
		} else {
			pending = append(pending, reservationEvent(events.EventReservationQueued, res,
				events.QueuedPayload{Position: res.QueuePosition(), EstimatedWait: *res.EstimatedWait}))
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, pending)
	return created, nil
}

// Cancel removes a reservation. Cancelling an Active reservation frees its copy, which goes
// straight to the head of the queue if there is one; cancelling a queued one closes the gap
// it leaves. A missing reservation is reported as NotFound and changes nothing.
func (s *ReservationService) Cancel(ctx context.Context, id int64) error {
	res, err := findReservation(ctx, s.reservations, id)
	if err != nil {
		return apperrors.MapError(err)
	}

	var pending []events.Event
	err = s.guard.run(ctx, res.BookID, func(ctx context.Context) error {
		res, err := findReservation(ctx, s.reservations, id)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusActive:
			book, err := findBook(ctx, s.books, res.BookID)
			if err != nil {
				return err
			}
			book.AdjustAvailability(1)
			if err := s.books.Save(ctx, book); err != nil {
				return err
			}
			promoted, err := s.promoteNextInQueue(ctx, book)
			if err != nil {
				return err
			}
			pending = append(pending, promoted...)
		case domain.ReservationStatusQueue:
			if err := s.closeQueueGap(ctx, res); err != nil {
				return err
			}
		}

		if err := s.reservations.Delete(ctx, res.ID); err != nil {
			return err
		}
		pending = append([]events.Event{reservationEvent(events.EventReservationCancelled, res,
			events.CancelledPayload{PreviousStatus: res.Status})}, pending...)
		return nil
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, pending)
	return nil
}

// Return moves an Active reservation to History and passes the copy to the queue head.
// A missing reservation yields NotFound, a non-Active one yields a conflict; neither changes state.
func (s *ReservationService) Return(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := findReservation(ctx, s.reservations, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var returned *domain.Reservation
	var pending []events.Event
	err = s.guard.run(ctx, res.BookID, func(ctx context.Context) error {
		res, err := findReservation(ctx, s.reservations, id)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusActive {
			return apperrors.NewConflictWithCode(apperrors.CodeNotActive, "reservation is not active",
				map[string]any{"reservation_id": id, "status": res.Status})
		}

		res.Status = domain.ReservationStatusHistory
		if err := s.reservations.Save(ctx, res); err != nil {
			return err
		}

		book, err := findBook(ctx, s.books, res.BookID)
		if err != nil {
			return err
		}
		book.AdjustAvailability(1)
		if err := s.books.Save(ctx, book); err != nil {
			return err
		}

		promoted, err := s.promoteNextInQueue(ctx, book)
		if err != nil {
			return err
		}
		pending = append([]events.Event{reservationEvent(events.EventReservationReturned, res, nil)}, promoted...)
		returned = res
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, pending)
	return returned, nil
}

// SetTotalCopies changes how many copies the library owns. Copies lent out stay lent out, so the
// total may not drop below the number of Active reservations; new free copies go to the queue first.
func (s *ReservationService) SetTotalCopies(ctx context.Context, bookID int64, total int) (*domain.Book, error) {
	var updated *domain.Book
	var pending []events.Event

	err := s.guard.run(ctx, bookID, func(ctx context.Context) error {
		book, err := findBook(ctx, s.books, bookID)
		if err != nil {
			return err
		}
		pending, err = s.resizeStock(ctx, book, total)
		if err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, pending)
	return updated, nil
}

// QueueForBook lists the book's queued reservations in position order.
func (s *ReservationService) QueueForBook(ctx context.Context, bookID int64) ([]domain.Reservation, error) {
	if _, err := findBook(ctx, s.books, bookID); err != nil {
		return nil, apperrors.MapError(err)
	}
	queue, err := s.reservations.FindByBookAndStatus(ctx, bookID, domain.ReservationStatusQueue)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sortByPosition(queue)
	return queue, nil
}

// GetReservationsByUserAndStatus returns the user's reservations in the given state.
func (s *ReservationService) GetReservationsByUserAndStatus(ctx context.Context, userID int64, status domain.ReservationStatus) ([]domain.Reservation, error) {
	list, err := s.reservations.FindByUserAndStatus(ctx, userID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// GetAllReservations returns every reservation.
func (s *ReservationService) GetAllReservations(ctx context.Context) ([]domain.Reservation, error) {
	list, err := s.reservations.FindAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// GetReservationByID fetches one reservation.
func (s *ReservationService) GetReservationByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := findReservation(ctx, s.reservations, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return res, nil
}

// resizeStock expects the book lock to be held. It saves the book.
func (s *ReservationService) resizeStock(ctx context.Context, book *domain.Book, total int) ([]events.Event, error) {
	active, err := s.reservations.FindByBookAndStatus(ctx, book.ID, domain.ReservationStatusActive)
	if err != nil {
		return nil, err
	}
	if total < len(active) {
		return nil, apperrors.NewValidationError("total copies below copies currently lent out",
			map[string]any{"total_copies": total, "active_reservations": len(active)})
	}

	book.TotalCopies = total
	book.SetAvailability(total - len(active))
	if err := s.books.Save(ctx, book); err != nil {
		return nil, err
	}

	var pending []events.Event
	for book.AvailableCopies > 0 && book.InQueue > 0 {
		promoted, err := s.promoteNextInQueue(ctx, book)
		if err != nil {
			return nil, err
		}
		if len(promoted) == 0 {
			break
		}
		pending = append(pending, promoted...)
	}
	return pending, nil
}

// promoteNextInQueue hands the copy just freed on book to the lowest queue position, renumbers
// the rest of the queue from 1 and saves the book. It is a no-op on an empty queue.
func (s *ReservationService) promoteNextInQueue(ctx context.Context, book *domain.Book) ([]events.Event, error) {
	queue, err := s.reservations.FindByBookAndStatus(ctx, book.ID, domain.ReservationStatusQueue)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, nil
	}
	sortByPosition(queue)

	head := queue[0]
	head.Activate(s.now().AddDate(0, 0, s.borrowDays))
	if err := s.reservations.Save(ctx, &head); err != nil {
		return nil, err
	}

	rest := queue[1:]
	for i := range rest {
		rest[i].Enqueue(i+1, s.waitDays)
		if err := s.reservations.Save(ctx, &rest[i]); err != nil {
			return nil, err
		}
	}

	book.AdjustAvailability(-1)
	book.DecrementQueue()
	if err := s.books.Save(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("queue head promoted",
		zap.Int64("book_id", book.ID),
		zap.Int64("reservation_id", head.ID),
		zap.Int64("user_id", head.UserID),
		zap.Int("remaining_in_queue", len(rest)))

	return []events.Event{reservationEvent(events.EventReservationPromoted, &head,
		events.PromotedPayload{DueDate: *head.DueDate, RemainingInQueue: len(rest)})}, nil
}

// closeQueueGap shifts every queued reservation behind res forward by one and shrinks the book's queue count.
func (s *ReservationService) closeQueueGap(ctx context.Context, res *domain.Reservation) error {
	cancelled := res.QueuePosition()
	queue, err := s.reservations.FindByBookAndStatus(ctx, res.BookID, domain.ReservationStatusQueue)
	if err != nil {
		return err
	}
	for i := range queue {
		other := &queue[i]
		if other.ID == res.ID || other.QueuePosition() <= cancelled {
			continue
		}
		other.Enqueue(other.QueuePosition()-1, s.waitDays)
		if err := s.reservations.Save(ctx, other); err != nil {
			return err
		}
	}

	book, err := findBook(ctx, s.books, res.BookID)
	if err != nil {
		return err
	}
	book.DecrementQueue()
	return s.books.Save(ctx, book)
}

func (s *ReservationService) ensureNoHold(ctx context.Context, userID, bookID int64) error {
	for _, status := range []domain.ReservationStatus{domain.ReservationStatusActive, domain.ReservationStatusQueue} {
		held, err := s.reservations.FindByUserAndStatus(ctx, userID, status)
		if err != nil {
			return err
		}
		for _, r := range held {
			if r.BookID == bookID && r.Holds() {
				return apperrors.NewConflictWithCode(apperrors.CodeDuplicateReservation,
					"user already holds a reservation for this book",
					map[string]any{"reservation_id": r.ID, "status": r.Status})
			}
		}
	}
	return nil
}

func (s *ReservationService) loanDays(requested int) int {
	if requested <= 0 {
		return s.borrowDays
	}
	return requested
}

func (s *ReservationService) publish(ctx context.Context, pending []events.Event) {
	if s.dispatcher == nil {
		return
	}
	for _, event := range pending {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = s.now()
		}
		_ = s.dispatcher.Publish(ctx, event)
	}
}

func reservationEvent(eventType events.EventType, res *domain.Reservation, payload any) events.Event {
	return events.Event{
		Type:          eventType,
		ReservationID: res.ID,
		BookID:        res.BookID,
		UserID:        res.UserID,
		Payload:       payload,
	}
}

func sortByPosition(queue []domain.Reservation) {
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].QueuePosition() < queue[j].QueuePosition()
	})
}

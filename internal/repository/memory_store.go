package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nextread/library-service/internal/domain"
)

// MemoryStore keeps books, users and reservations in process memory. Records are copied on
// the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	books        map[int64]domain.Book
	users        map[int64]domain.User
	reservations map[int64]domain.Reservation
	nextBookID   int64
	nextUserID   int64
	nextResID    int64
	now          func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:        make(map[int64]domain.Book),
		users:        make(map[int64]domain.User),
		reservations: make(map[int64]domain.Reservation),
		now:          time.Now,
	}
}

// Books returns the book repository view of the store.
func (s *MemoryStore) Books() BookRepository { return memoryBooks{s} }

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Reservations returns the reservation repository view of the store.
func (s *MemoryStore) Reservations() ReservationRepository { return memoryReservations{s} }

// TxManager returns a pass-through transaction manager; each store call is atomic on its own.
func (s *MemoryStore) TxManager() TxManager { return passThroughTx{} }

type passThroughTx struct{}

func (passThroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryBooks struct{ s *MemoryStore }

func (r memoryBooks) GetByID(_ context.Context, id int64) (*domain.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	book, ok := r.s.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &book, nil
}

func (r memoryBooks) Save(_ context.Context, book *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if book.ID == 0 {
		r.s.nextBookID++
		book.ID = r.s.nextBookID
		book.CreatedAt = now
	} else if _, ok := r.s.books[book.ID]; !ok {
		return ErrNotFound
	}
	book.UpdatedAt = now
	r.s.books[book.ID] = *book
	return nil
}

func (r memoryBooks) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.books, id)
	return nil
}

func (r memoryBooks) FindAll(_ context.Context) ([]domain.Book, error) {
	return r.filter(func(domain.Book) bool { return true }), nil
}

func (r memoryBooks) FindByGenre(_ context.Context, genre string) ([]domain.Book, error) {
	return r.filter(func(b domain.Book) bool { return b.Genre == genre }), nil
}

func (r memoryBooks) filter(keep func(domain.Book) bool) []domain.Book {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Book{}
	for _, b := range r.s.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryUsers) Save(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if user.ID == 0 {
		r.s.nextUserID++
		user.ID = r.s.nextUserID
	} else if _, ok := r.s.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memoryUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

func (r memoryUsers) FindAll(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryReservations struct{ s *MemoryStore }

func (r memoryReservations) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneReservation(res)
	return &clone, nil
}

func (r memoryReservations) Save(_ context.Context, res *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if res.ID == 0 {
		r.s.nextResID++
		res.ID = r.s.nextResID
	} else if _, ok := r.s.reservations[res.ID]; !ok {
		return ErrNotFound
	}
	r.s.reservations[res.ID] = cloneReservation(*res)
	return nil
}

func (r memoryReservations) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.reservations, id)
	return nil
}

func (r memoryReservations) FindAll(_ context.Context) ([]domain.Reservation, error) {
	return r.filter(func(domain.Reservation) bool { return true }), nil
}

func (r memoryReservations) FindByUserAndStatus(_ context.Context, userID int64, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool {
		return res.UserID == userID && res.Status == status
	}), nil
}

func (r memoryReservations) FindByBookAndStatus(_ context.Context, bookID int64, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool {
		return res.BookID == bookID && res.Status == status
	}), nil
}

func (r memoryReservations) DeleteByBook(_ context.Context, bookID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, res := range r.s.reservations {
		if res.BookID == bookID {
			delete(r.s.reservations, id)
		}
	}
	return nil
}

func (r memoryReservations) DeleteByUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, res := range r.s.reservations {
		if res.UserID == userID {
			delete(r.s.reservations, id)
		}
	}
	return nil
}

func (r memoryReservations) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Reservation{}
	for _, res := range r.s.reservations {
		if keep(res) {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneReservation(res domain.Reservation) domain.Reservation {
	if res.DueDate != nil {
		due := *res.DueDate
		res.DueDate = &due
	}
	if res.Position != nil {
		pos := *res.Position
		res.Position = &pos
	}
	if res.EstimatedWait != nil {
		wait := *res.EstimatedWait
		res.EstimatedWait = &wait
	}
	return res
}

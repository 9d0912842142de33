package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nextread/library-service/internal/domain"
	"github.com/nextread/library-service/internal/lock"
	"github.com/nextread/library-service/internal/repository"
	apperrors "github.com/nextread/library-service/pkg/util/errorutil"
)

// UserUpdate carries optional profile changes; nil fields are left alone.
type UserUpdate struct {
	Name      *string
	StudentID *string
	Email     *string
	Phone     *string
}

// UserService manages member profiles.
type UserService struct {
	users        repository.UserRepository
	reservations repository.ReservationRepository
	tx           repository.TxManager
	locker       lock.Locker
}

// NewUserService constructs the service. locker must be the one the reservation engine uses.
func NewUserService(users repository.UserRepository, reservations repository.ReservationRepository, tx repository.TxManager, locker lock.Locker) *UserService {
	return &UserService{users: users, reservations: reservations, tx: tx, locker: locker}
}

// ListUsers returns every member.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser fetches one member.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser edits a member's contact details. Emails stay unique across members.
func (s *UserService) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*domain.User, error) {
	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.StudentID != nil {
		user.StudentID = strings.TrimSpace(*update.StudentID)
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Email != nil {
		user.Email = normalizeEmail(*update.Email)
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewEmailTaken(user.Email)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes a member and their reservation history. Members holding a copy or
// waiting in a queue cannot be deleted. The user lock keeps a concurrent reserve from
// creating a hold between the check and the delete.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(id))
	if err != nil {
		return apperrors.MapError(fmt.Errorf("lock user %d: %w", id, err))
	}
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := findUser(ctx, s.users, id); err != nil {
			return err
		}
		for _, status := range []domain.ReservationStatus{domain.ReservationStatusActive, domain.ReservationStatusQueue} {
			held, err := s.reservations.FindByUserAndStatus(ctx, id, status)
			if err != nil {
				return err
			}
			if len(held) > 0 {
				return apperrors.NewConflict("user has open reservations",
					map[string]any{"user_id": id, "status": status, "count": len(held)})
			}
		}
		if err := s.reservations.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, id)
	})
	return apperrors.MapError(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package dto

import (
	"time"

	"github.com/nextread/library-service/internal/domain"
)

// ReserveRequest is the payload of POST /api/reservations/reserve.
type ReserveRequest struct {
	UserID     int64 `json:"userId" validate:"required,gt=0"`
	BookID     int64 `json:"bookId" validate:"required,gt=0"`
	BorrowDays int   `json:"borrowDays" validate:"gte=0,lte=365"`
}

// ReservationStatusQuery is the query of GET /api/reservations/user/:userId.
type ReservationStatusQuery struct {
	Status string `query:"status" validate:"required,reservation_status"`
}

// ReservationResponse is the public shape of a reservation.
type ReservationResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	BookID        int64      `json:"bookId"`
	ReservedDate  time.Time  `json:"reservedDate"`
	DueDate       *time.Time `json:"dueDate"`
	Status        string     `json:"status"`
	Position      *int       `json:"position"`
	EstimatedWait *string    `json:"estimatedWait"`
}

// NewReservationResponse maps a domain reservation.
func NewReservationResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		BookID:        r.BookID,
		ReservedDate:  r.ReservedDate,
		DueDate:       r.DueDate,
		Status:        string(r.Status),
		Position:      r.Position,
		EstimatedWait: r.EstimatedWait,
	}
}

// NewReservationResponses maps a list of reservations.
func NewReservationResponses(list []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for i := range list {
		out = append(out, NewReservationResponse(&list[i]))
	}
	return out
}

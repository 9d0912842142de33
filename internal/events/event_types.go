package events

import (
	"time"

	"github.com/nextread/library-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReservationReserved  EventType = "reservation.reserved"
	EventReservationQueued    EventType = "reservation.queued"
	EventReservationPromoted  EventType = "reservation.promoted"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationReturned  EventType = "reservation.returned"
)

// Event represents a reservation lifecycle change.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	BookID        int64     `json:"book_id"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload,omitempty"`
}

// ReservedPayload accompanies a reservation that received a copy immediately.
type ReservedPayload struct {
	DueDate time.Time `json:"due_date"`
}

// QueuedPayload accompanies a reservation placed in the waiting line.
type QueuedPayload struct {
	Position      int    `json:"position"`
	EstimatedWait string `json:"estimated_wait"`
}

// PromotedPayload accompanies a queued reservation that was handed a copy.
type PromotedPayload struct {
	DueDate          time.Time `json:"due_date"`
	RemainingInQueue int       `json:"remaining_in_queue"`
}

// CancelledPayload records what state the removed reservation was in.
type CancelledPayload struct {
	PreviousStatus domain.ReservationStatus `json:"previous_status"`
}

package domain

import (
	"fmt"
	"time"
)

// ReservationStatus enumerates reservation lifecycle states.
type ReservationStatus string

const (
	ReservationStatusActive  ReservationStatus = "Active"
	ReservationStatusQueue   ReservationStatus = "Queue"
	ReservationStatusHistory ReservationStatus = "History"
)

// ParseReservationStatus validates a status string.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case ReservationStatusActive, ReservationStatusQueue, ReservationStatusHistory:
		return ReservationStatus(s), true
	}
	return "", false
}

// Reservation links a user to a book, either holding a copy or waiting in line for one.
type Reservation struct {
	ID            int64
	UserID        int64
	BookID        int64
	ReservedDate  time.Time
	DueDate       *time.Time
	Status        ReservationStatus
	Position      *int
	EstimatedWait *string
}

// FormatEstimatedWait renders the wait for a queue position.
func FormatEstimatedWait(position, daysPerPosition int) string {
	return fmt.Sprintf("%d Days", position*daysPerPosition)
}

// Enqueue places the reservation at a queue position.
func (r *Reservation) Enqueue(position, daysPerPosition int) {
	wait := FormatEstimatedWait(position, daysPerPosition)
	r.Status = ReservationStatusQueue
	r.Position = &position
	r.EstimatedWait = &wait
	r.DueDate = nil
}

// Activate hands the reservation a copy until due.
func (r *Reservation) Activate(due time.Time) {
	r.Status = ReservationStatusActive
	r.DueDate = &due
	r.Position = nil
	r.EstimatedWait = nil
}

// QueuePosition returns the position or zero when not queued.
func (r *Reservation) QueuePosition() int {
	if r.Position == nil {
		return 0
	}
	return *r.Position
}

// Holds reports whether the reservation blocks the user from reserving the same book again.
func (r *Reservation) Holds() bool {
	return r.Status == ReservationStatusActive || r.Status == ReservationStatusQueue
}

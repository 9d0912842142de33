package domain

import "time"

// BookStatus is derived from the number of available copies.
type BookStatus string

const (
	BookStatusAvailable  BookStatus = "Available"
	BookStatusOutOfStock BookStatus = "Out of Stock"
)

// Book is a catalogue title together with its shared copy counters.
type Book struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	Genre           string
	Rating          float64
	TotalCopies     int
	AvailableCopies int
	InQueue         int
	Description     string
	Status          BookStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusFor returns the status matching an available copy count.
func StatusFor(available int) BookStatus {
	if available > 0 {
		return BookStatusAvailable
	}
	return BookStatusOutOfStock
}

// AdjustAvailability changes the available copy count and keeps Status in sync.
func (b *Book) AdjustAvailability(delta int) {
	b.AvailableCopies += delta
	b.Status = StatusFor(b.AvailableCopies)
}

// SetAvailability overwrites the available copy count and keeps Status in sync.
func (b *Book) SetAvailability(available int) {
	b.AvailableCopies = available
	b.Status = StatusFor(available)
}

// IncrementQueue records one more queued reservation.
func (b *Book) IncrementQueue() {
	b.InQueue++
}

// DecrementQueue records one fewer queued reservation, never going below zero.
func (b *Book) DecrementQueue() {
	if b.InQueue > 0 {
		b.InQueue--
	}
}

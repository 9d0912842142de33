package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookAdjustAvailabilityKeepsStatus(t *testing.T) {
	b := &Book{TotalCopies: 1}
	b.SetAvailability(1)
	assert.Equal(t, BookStatusAvailable, b.Status)

	b.AdjustAvailability(-1)
	assert.Equal(t, 0, b.AvailableCopies)
	assert.Equal(t, BookStatusOutOfStock, b.Status)

	b.AdjustAvailability(1)
	assert.Equal(t, BookStatusAvailable, b.Status)
}

func TestBookDecrementQueueFloorsAtZero(t *testing.T) {
	b := &Book{}
	b.DecrementQueue()
	assert.Equal(t, 0, b.InQueue)

	b.IncrementQueue()
	b.IncrementQueue()
	b.DecrementQueue()
	assert.Equal(t, 1, b.InQueue)
}

func TestReservationEnqueueAndActivate(t *testing.T) {
	r := &Reservation{}
	r.Enqueue(3, 14)
	require.NotNil(t, r.Position)
	require.NotNil(t, r.EstimatedWait)
	assert.Equal(t, ReservationStatusQueue, r.Status)
	assert.Equal(t, 3, r.QueuePosition())
	assert.Equal(t, "42 Days", *r.EstimatedWait)
	assert.True(t, r.Holds())

	due := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	r.Activate(due)
	assert.Equal(t, ReservationStatusActive, r.Status)
	assert.Nil(t, r.Position)
	assert.Nil(t, r.EstimatedWait)
	require.NotNil(t, r.DueDate)
	assert.Equal(t, due, *r.DueDate)
	assert.Equal(t, 0, r.QueuePosition())
}

func TestParseReservationStatus(t *testing.T) {
	for _, s := range []string{"Active", "Queue", "History"} {
		got, ok := ParseReservationStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, ReservationStatus(s), got)
	}
	_, ok := ParseReservationStatus("active")
	assert.False(t, ok)
}

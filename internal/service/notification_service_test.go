package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nextread/library-service/internal/config"
	"github.com/nextread/library-service/internal/events"
)

func newObservedNotifications(cfg config.NotificationConfig) (events.Dispatcher, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	NewNotificationService(dispatcher, zap.New(core), cfg).RegisterHandlers()
	return dispatcher, logs
}

func TestNotificationServiceHandlesEveryReservationEvent(t *testing.T) {
	dispatcher, logs := newObservedNotifications(config.NotificationConfig{
		EmailFrom:  "desk@example.com",
		WebhookURL: "http://hooks.example.com/library",
	})

	cases := []struct {
		eventType events.EventType
		message   string
		stubs     []string
	}{
		{events.EventReservationReserved, "ReservationReserved", []string{"sendEmailNotificationStub"}},
		{events.EventReservationQueued, "ReservationQueued", []string{"sendEmailNotificationStub"}},
		{events.EventReservationPromoted, "ReservationPromoted", []string{"sendEmailNotificationStub", "sendWebhookNotificationStub"}},
		{events.EventReservationCancelled, "ReservationCancelled", []string{"sendWebhookNotificationStub"}},
		{events.EventReservationReturned, "ReservationReturned", []string{"sendWebhookNotificationStub"}},
	}

	for i, tc := range cases {
		t.Run(string(tc.eventType), func(t *testing.T) {
			logs.TakeAll()
			event := events.Event{
				ID:            "evt",
				Type:          tc.eventType,
				ReservationID: int64(100 + i),
				BookID:        7,
				UserID:        9,
				Timestamp:     time.Now(),
			}
			require.NoError(t, dispatcher.Publish(context.Background(), event))

			entries := logs.AllUntimed()
			require.Len(t, entries, 1+len(tc.stubs))
			assert.Equal(t, tc.message, entries[0].Message)
			assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, int64(100+i), fields["reservation_id"])
			assert.Equal(t, int64(7), fields["book_id"])
			assert.Equal(t, int64(9), fields["user_id"])

			for j, stub := range tc.stubs {
				assert.Equal(t, stub, entries[1+j].Message)
				assert.Equal(t, string(tc.eventType), entries[1+j].ContextMap()["event_type"])
			}
		})
	}
}

func TestNotificationServiceSkipsUnconfiguredChannels(t *testing.T) {
	dispatcher, logs := newObservedNotifications(config.NotificationConfig{})

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventReservationPromoted, ReservationID: 1})
	require.NoError(t, err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "ReservationPromoted", entries[0].Message)
	assert.Zero(t, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Zero(t, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationServiceWithoutDispatcher(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{}).RegisterHandlers()
	})
}

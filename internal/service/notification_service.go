package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nextread/library-service/internal/config"
	"github.com/nextread/library-service/internal/events"
)

// NotificationService tells members about changes to their reservations.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReservationReserved, n.handleReserved)
	n.dispatcher.Subscribe(events.EventReservationQueued, n.handleQueued)
	n.dispatcher.Subscribe(events.EventReservationPromoted, n.handlePromoted)
	n.dispatcher.Subscribe(events.EventReservationCancelled, n.handleCancelled)
	n.dispatcher.Subscribe(events.EventReservationReturned, n.handleReturned)
}

func (n *NotificationService) handleReserved(ctx context.Context, event events.Event) error {
	n.logEvent("ReservationReserved", event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleQueued(ctx context.Context, event events.Event) error {
	n.logEvent("ReservationQueued", event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

// Promotion goes out on both channels.
func (n *NotificationService) handlePromoted(ctx context.Context, event events.Event) error {
	n.logEvent("ReservationPromoted", event)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCancelled(ctx context.Context, event events.Event) error {
	n.logEvent("ReservationCancelled", event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReturned(ctx context.Context, event events.Event) error {
	n.logEvent("ReservationReturned", event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) logEvent(name string, event events.Event) {
	n.logger.Info(name,
		zap.Int64("reservation_id", event.ReservationID),
		zap.Int64("book_id", event.BookID),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload))
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("user_id", event.UserID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("reservation_id", event.ReservationID),
		zap.String("event_type", string(event.Type)))
}

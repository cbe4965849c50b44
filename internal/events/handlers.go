package events

import (
	"context"

	"go.uber.org/zap"
)

// ===============================
// HANDLER REGISTRATION
// ===============================

// RegisterMarketplaceHandlers subscribes the built-in handlers on the
// bus. Called once at boot, after the bus has started.
func RegisterMarketplaceHandlers(bus EventBus, logger *zap.Logger) error {
	audit := newActivityLogHandler(logger)
	for _, pattern := range []string{"listing.*", "offer.*"} {
		if err := bus.SubscribePattern(pattern, audit); err != nil {
			return err
		}
	}
	for _, eventType := range []string{"comment.created", "message.sent", "user.registered"} {
		if err := bus.Subscribe(eventType, audit); err != nil {
			return err
		}
	}

	return bus.Subscribe("offer.created", NewTypedEventHandler(
		"offer-price-log",
		func(ctx context.Context, event *OfferCreatedEvent) error {
			logger.Info("Offer activity",
				zap.Int64("offer_id", event.OfferID),
				zap.Int64("listing_id", event.ListingID),
				zap.Float64("price", event.Price))
			return nil
		}))
}

// newActivityLogHandler returns the audit-trail handler: every
// marketplace event gets one structured log line.
func newActivityLogHandler(logger *zap.Logger) EventHandler {
	return NewEventHandlerFunc("activity-log", func(ctx context.Context, event Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.GetEventID()),
			zap.String("event_type", event.GetEventType()),
			zap.Time("occurred_at", event.GetTimestamp()),
		}
		if userID := event.GetUserID(); userID != nil {
			fields = append(fields, zap.Int64("user_id", *userID))
		}
		logger.Info("Marketplace activity", fields...)
		return nil
	})
}

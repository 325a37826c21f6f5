package publisher

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/coupon-service/internal/config"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/pubsub"
	"github.com/flexprice/coupon-service/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WebhookPublisher interface for producing coupon lifecycle events
type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, event *types.WebhookEvent) error
	Close() error
}

type webhookPublisher struct {
	pubSub pubsub.PubSub
	topic  string
	logger *logger.Logger
}

// NewPublisher creates a publisher writing events to the configured event bus topic
func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) (WebhookPublisher, error) {
	return &webhookPublisher{
		pubSub: pubSub,
		topic:  cfg.EventBus.Topic,
		logger: logger,
	}, nil
}

func (p *webhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode event").
			Mark(ierr.ErrSystem)
	}

	messageID := event.ID
	if messageID == "" {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set("event_name", event.EventName)
	if event.RequestID != "" {
		msg.Metadata.Set("request_id", event.RequestID)
	}

	p.logger.Debugw("publishing coupon event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"topic", p.topic,
	)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish coupon event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish event").
			Mark(ierr.ErrSystem)
	}

	return nil
}

// Close closes the publisher
func (p *webhookPublisher) Close() error {
	return p.pubSub.Close()
}

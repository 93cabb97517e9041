package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

// EventPublisher fans message events out to the chat servers and, for
// appends, to the notification dispatcher.
type EventPublisher struct {
	producer MessageProducer
	cfg      config.KafkaConfig
}

// NewEventPublisher wraps producer with the configured topics.
func NewEventPublisher(producer MessageProducer, cfg config.KafkaConfig) *EventPublisher {
	return &EventPublisher{producer: producer, cfg: cfg}
}

// PublishMessageEvent keys events by message id so each message's events stay ordered.
func (p *EventPublisher) PublishMessageEvent(ctx context.Context, ev imtypes.MessageEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}
	key := []byte(ev.MessageID)

	var errs []error
	if err := p.producer.SendMessage(ctx, p.cfg.MessageEventsTopic, key, payload); err != nil {
		errs = append(errs, err)
	}
	if ev.Event == imtypes.MessageAppended {
		if err := p.producer.SendMessage(ctx, p.cfg.NotificationsTopic, key, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DecodeMessageEvent parses a payload written by PublishMessageEvent.
func DecodeMessageEvent(payload []byte) (imtypes.MessageEvent, error) {
	var ev imtypes.MessageEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("decode message event: %w", err)
	}
	if ev.Event == "" {
		return ev, fmt.Errorf("decode message event: missing event type")
	}
	return ev, nil
}

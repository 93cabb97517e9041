package kafkahandlers

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"lapor-chat/internal/imtypes"
	imkafka "lapor-chat/internal/kafka"
	"lapor-chat/internal/notification"
)

// SnapshotRefresher is told that the room changed.
type SnapshotRefresher interface {
	Refresh()
}

// Notifier fans out a new-message notification.
type Notifier interface {
	OnMessageSent(ctx context.Context, body string) error
}

// SnapshotRefreshLogic wakes the local hub for every message change.
type SnapshotRefreshLogic struct {
	hub SnapshotRefresher
	log *zap.SugaredLogger
}

// NewSnapshotRefreshLogic creates a SnapshotRefreshLogic.
func NewSnapshotRefreshLogic(hub SnapshotRefresher, log *zap.SugaredLogger) *SnapshotRefreshLogic {
	return &SnapshotRefreshLogic{hub: hub, log: log}
}

// HandleMessageEvent is a kafka.MessageHandler. Undecodable payloads still
// trigger a refresh since the hub reloads the whole room anyway.
func (h *SnapshotRefreshLogic) HandleMessageEvent(_ context.Context, msg *kafka.Message) error {
	ev, err := imkafka.DecodeMessageEvent(msg.Value)
	if err != nil {
		h.log.Warnw("undecodable message event", "offset", msg.TopicPartition.Offset, "error", err)
	} else {
		h.log.Debugw("message event", "event", ev.Event, "messageId", ev.MessageID)
	}
	h.hub.Refresh()
	return nil
}

// NotificationLogic forwards appended messages to the push dispatcher.
type NotificationLogic struct {
	notifier Notifier
	log      *zap.SugaredLogger
}

// NewNotificationLogic creates a NotificationLogic.
func NewNotificationLogic(notifier Notifier, log *zap.SugaredLogger) *NotificationLogic {
	return &NotificationLogic{notifier: notifier, log: log}
}

// HandleMessageEvent is a kafka.MessageHandler. Push is fire-and-forget: bad
// payloads are skipped and a dispatcher failure is logged and dropped, so the
// offset is always committed.
func (h *NotificationLogic) HandleMessageEvent(ctx context.Context, msg *kafka.Message) error {
	ev, err := imkafka.DecodeMessageEvent(msg.Value)
	if err != nil {
		h.log.Warnw("skipping undecodable notification", "value", string(msg.Value), "error", err)
		return nil
	}
	if ev.Event != imtypes.MessageAppended {
		return nil
	}

	body := notification.BodyFor(ev)
	if body == "" {
		return nil
	}
	if err := h.notifier.OnMessageSent(ctx, body); err != nil {
		h.log.Warnw("dropping push notification", "offset", msg.TopicPartition.Offset, "error", err)
	}
	return nil
}

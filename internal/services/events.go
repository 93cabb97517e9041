//go:generate go run go.uber.org/mock/mockgen -source=events.go -destination=../mocks/mock_event_publisher.go -package=mocks
package services

import (
	"context"

	"lapor-chat/internal/imtypes"
)

// EventPublisher announces store mutations to the rest of the system.
type EventPublisher interface {
	PublishMessageEvent(ctx context.Context, ev imtypes.MessageEvent) error
}

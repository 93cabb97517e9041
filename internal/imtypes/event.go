package imtypes

import "time"

// MessageEventType names a change published after a store mutation.
type MessageEventType string

const (
	MessageAppended MessageEventType = "message.appended"
	MessageDeleted  MessageEventType = "message.deleted"
)

// MessageEvent travels over Kafka between the API server, the chat servers
// and the notification consumer.
type MessageEvent struct {
	Event     MessageEventType `json:"event"`
	MessageID string           `json:"messageId"`
	UserID    string           `json:"userId"`
	Type      MessageType      `json:"type,omitempty"`
	Text      string           `json:"text,omitempty"`
	At        time.Time        `json:"at"`
}

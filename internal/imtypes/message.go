package imtypes

import (
	"sort"
	"strings"
	"time"
)

// MessageType is the optional discriminator carried by a chat message.
type MessageType string

const (
	ImageMessageType    MessageType = "image"
	VideoMessageType    MessageType = "video"
	LocationMessageType MessageType = "location"
)

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates are inside their ranges.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Message is the client-visible shape of a stored chat message.
// CreatedAt is nil while the server timestamp is unresolved.
type Message struct {
	ID        string      `json:"id"`
	Text      string      `json:"text,omitempty"`
	Type      MessageType `json:"type,omitempty"`
	MediaURL  string      `json:"mediaUrl,omitempty"`
	Location  *Location   `json:"location,omitempty"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
	UserID    string      `json:"userId"`
}

// AppendMessageInput is the payload a client submits to add a message.
// The store assigns id, createdAt and userId.
type AppendMessageInput struct {
	Text     string      `json:"text,omitempty"`
	Type     MessageType `json:"type,omitempty" validate:"omitempty,oneof=image video location"`
	MediaURL string      `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	Location *Location   `json:"location,omitempty"`
}

// HasContent reports whether at least one of text, media or location is set.
func (in AppendMessageInput) HasContent() bool {
	return strings.TrimSpace(in.Text) != "" || in.MediaURL != "" || in.Location != nil
}

// SortNewestFirst orders messages by createdAt descending, id descending on ties.
// Pending messages (nil createdAt) sort before everything else.
func SortNewestFirst(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i].CreatedAt, msgs[j].CreatedAt
		switch {
		case a == nil && b == nil:
			return msgs[i].ID > msgs[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return msgs[i].ID > msgs[j].ID
		}
	})
}

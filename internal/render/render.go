// Package render turns stored messages into what a chat bubble shows.
package render

import (
	"fmt"
	"strconv"
	"time"

	"lapor-chat/internal/imtypes"
)

// Kind is the single branch a message renders as.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindImage
	KindVideo
	KindLocation
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindLocation:
		return "location"
	}
	return "unknown"
}

// TimestampLayout is the time-of-day shown under every bubble.
const TimestampLayout = "15:04:05"

// View is one rendered bubble.
type View struct {
	ID        string
	Kind      Kind
	Content   string
	Link      string
	Mine      bool
	Timestamp string
}

// Render picks exactly one branch for msg: text, then image, then video, then
// location. Timestamp is empty while createdAt is unresolved.
func Render(msg imtypes.Message, currentUserID string, loc *time.Location) View {
	v := View{
		ID:   msg.ID,
		Mine: msg.UserID != "" && msg.UserID == currentUserID,
	}

	switch {
	case msg.Text != "":
		v.Kind = KindText
		v.Content = msg.Text
	case msg.Type == imtypes.ImageMessageType && msg.MediaURL != "":
		v.Kind = KindImage
		v.Content = msg.MediaURL
		v.Link = msg.MediaURL
	case msg.Type == imtypes.VideoMessageType && msg.MediaURL != "":
		v.Kind = KindVideo
		v.Content = "🎥 Video: " + msg.MediaURL
		v.Link = msg.MediaURL
	case msg.Location != nil:
		v.Kind = KindLocation
		v.Link = MapsLink(*msg.Location)
		v.Content = "📍 Lokasi: " + v.Link
	}

	if msg.CreatedAt != nil {
		if loc == nil {
			loc = time.Local
		}
		v.Timestamp = msg.CreatedAt.In(loc).Format(TimestampLayout)
	}
	return v
}

// RenderAll renders msgs in the order given.
func RenderAll(msgs []imtypes.Message, currentUserID string, loc *time.Location) []View {
	views := make([]View, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, Render(m, currentUserID, loc))
	}
	return views
}

// MapsLink builds the map URL for a location.
func MapsLink(l imtypes.Location) string {
	return fmt.Sprintf("https://maps.google.com/?q=%s,%s",
		strconv.FormatFloat(l.Latitude, 'f', -1, 64),
		strconv.FormatFloat(l.Longitude, 'f', -1, 64))
}

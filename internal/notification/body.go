package notification

import (
	"strings"

	"lapor-chat/internal/imtypes"
)

// BodyFor picks the notification text for a new message: its text when it has
// any, otherwise a short label for the attachment.
func BodyFor(ev imtypes.MessageEvent) string {
	if strings.TrimSpace(ev.Text) != "" {
		return ev.Text
	}
	switch ev.Type {
	case imtypes.ImageMessageType:
		return "📷 Gambar"
	case imtypes.VideoMessageType:
		return "🎥 Video"
	case imtypes.LocationMessageType:
		return "📍 Lokasi"
	}
	return ""
}

package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lapor-chat/internal/imtypes"
)

func TestRender_Branches(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	loc := &imtypes.Location{Latitude: -6.2, Longitude: 106.816666}

	tests := []struct {
		name    string
		msg     imtypes.Message
		kind    Kind
		content string
	}{
		{
			name:    "text wins over everything",
			msg:     imtypes.Message{Text: "halo", Type: imtypes.ImageMessageType, MediaURL: "http://x/a.png", Location: loc},
			kind:    KindText,
			content: "halo",
		},
		{
			name:    "image",
			msg:     imtypes.Message{Type: imtypes.ImageMessageType, MediaURL: "http://x/a.png"},
			kind:    KindImage,
			content: "http://x/a.png",
		},
		{
			name:    "video",
			msg:     imtypes.Message{Type: imtypes.VideoMessageType, MediaURL: "http://x/v.mp4"},
			kind:    KindVideo,
			content: "🎥 Video: http://x/v.mp4",
		},
		{
			name:    "location",
			msg:     imtypes.Message{Type: imtypes.LocationMessageType, Location: loc},
			kind:    KindLocation,
			content: "📍 Lokasi: https://maps.google.com/?q=-6.2,106.816666",
		},
		{
			name: "nothing to show",
			msg:  imtypes.Message{Type: imtypes.ImageMessageType},
			kind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.msg.CreatedAt = &at
			v := Render(tt.msg, "", time.UTC)
			require.Equal(t, tt.kind, v.Kind)
			require.Equal(t, tt.content, v.Content)
			require.Equal(t, "13:04:05", v.Timestamp)
		})
	}
}

func TestRender_PendingTimestampIsEmpty(t *testing.T) {
	v := Render(imtypes.Message{Text: "baru"}, "", time.UTC)
	require.Equal(t, KindText, v.Kind)
	require.Empty(t, v.Timestamp)
}

func TestRender_TimestampUsesViewerLocation(t *testing.T) {
	at := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	jakarta := time.FixedZone("WIB", 7*60*60)

	v := Render(imtypes.Message{Text: "pagi", CreatedAt: &at}, "", jakarta)
	require.Equal(t, "08:00:00", v.Timestamp)
}

func TestRender_Mine(t *testing.T) {
	msg := imtypes.Message{Text: "hi", UserID: "u1"}
	require.True(t, Render(msg, "u1", time.UTC).Mine)
	require.False(t, Render(msg, "u2", time.UTC).Mine)
	require.False(t, Render(imtypes.Message{Text: "hi"}, "", time.UTC).Mine)
}

func TestRenderAll_KeepsOrder(t *testing.T) {
	views := RenderAll([]imtypes.Message{{ID: "b", Text: "world"}, {ID: "a", Text: "hello"}}, "", time.UTC)
	require.Len(t, views, 2)
	require.Equal(t, "world", views[0].Content)
	require.Equal(t, "hello", views[1].Content)
}

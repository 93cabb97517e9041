package chatserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lapor-chat/internal/auth"
	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
	ws "lapor-chat/internal/websocket"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Auth = config.AuthConfig{JWTSecretKey: "secret", JWTExpiry: time.Hour, Issuer: "test"}
	cfg.WebSocket = config.WebSocketConfig{WriteWaitSeconds: 5, PongWaitSeconds: 30, PingPeriodSeconds: 20, MaxMessageSizeBytes: 1024}
	return cfg
}

func TestServeWS(t *testing.T) {
	cfg := testConfig()
	log := zap.NewNop().Sugar()
	hub := ws.NewHub(func(context.Context) ([]imtypes.Message, error) {
		return []imtypes.Message{{ID: "m1", Text: "halo"}}, nil
	}, time.Second, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, nil, cfg, log).ServeWS))
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(base, nil)
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bad token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(base+"?token=nope", nil)
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token receives the room", func(t *testing.T) {
		token, _, err := auth.GenerateToken(auth.Identity{UserID: "u1", Role: "user"}, cfg.Auth)
		require.NoError(t, err)

		conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
		require.NoError(t, err)
		defer conn.Close()

		var snap imtypes.Snapshot
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&snap))
		require.Equal(t, "halo", snap.Messages[0].Text)
	})
}

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

var testWSConfig = config.WebSocketConfig{
	WriteWaitSeconds:    5,
	PongWaitSeconds:     30,
	PingPeriodSeconds:   20,
	MaxMessageSizeBytes: 1024,
}

type room struct {
	mu   sync.Mutex
	msgs []imtypes.Message

	// loads to fail before the room answers
	failures int
}

func (r *room) set(texts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
	for _, t := range texts {
		r.msgs = append(r.msgs, imtypes.Message{ID: t, Text: t})
	}
}

func (r *room) load(context.Context) ([]imtypes.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("connection refused")
	}
	return append([]imtypes.Message(nil), r.msgs...), nil
}

func startHub(t *testing.T, r *room) (*Hub, string) {
	t.Helper()
	log := zap.NewNop().Sugar()
	hub := NewHub(r.load, time.Second, log)
	hub.retryDelay = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ServeWs(hub, "u1", w, req, testWSConfig, log)
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) imtypes.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap imtypes.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}

func TestHub_InitialSnapshotOnSubscribe(t *testing.T) {
	r := &room{}
	r.set("b", "a")
	_, url := startHub(t, r)

	snap := readSnapshot(t, dial(t, url))
	require.Equal(t, imtypes.SnapshotKind, snap.Kind)
	require.Equal(t, uint64(1), snap.Version)
	require.Len(t, snap.Messages, 2)
	require.Equal(t, "b", snap.Messages[0].Text)
}

func TestHub_FailedFirstLoadIsRetried(t *testing.T) {
	r := &room{failures: 2}
	r.set("a")
	_, url := startHub(t, r)

	snap := readSnapshot(t, dial(t, url))
	require.Equal(t, uint64(1), snap.Version)
	require.Equal(t, "a", snap.Messages[0].Text)
}

func TestHub_EmptyRoomSendsEmptyList(t *testing.T) {
	_, url := startHub(t, &room{})

	snap := readSnapshot(t, dial(t, url))
	require.NotNil(t, snap.Messages)
	require.Empty(t, snap.Messages)
}

func TestHub_RefreshReachesEverySubscriber(t *testing.T) {
	r := &room{}
	r.set("a")
	hub, url := startHub(t, r)

	c1 := dial(t, url)
	require.Equal(t, uint64(1), readSnapshot(t, c1).Version)
	c2 := dial(t, url)
	require.Equal(t, uint64(1), readSnapshot(t, c2).Version)

	r.set("b", "a")
	hub.Refresh()

	for _, c := range []*websocket.Conn{c1, c2} {
		snap := readSnapshot(t, c)
		require.Equal(t, uint64(2), snap.Version)
		require.Len(t, snap.Messages, 2)
	}
}

func TestHub_DeletedMessageGoneForLateSubscriber(t *testing.T) {
	r := &room{}
	r.set("b", "a")
	hub, url := startHub(t, r)
	c1 := dial(t, url)
	readSnapshot(t, c1)

	r.set("a")
	hub.Refresh()
	require.Len(t, readSnapshot(t, c1).Messages, 1)

	late := readSnapshot(t, dial(t, url))
	require.Len(t, late.Messages, 1)
	require.Equal(t, "a", late.Messages[0].ID)
}

func TestClient_OfferReplacesUnsentFrame(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	c.offer([]byte("v1"))
	c.offer([]byte("v2"))
	c.offer([]byte("v3"))

	require.Len(t, c.send, 1)
	require.Equal(t, "v3", string(<-c.send))
}

func TestHub_RefreshNeverBlocks(t *testing.T) {
	hub := NewHub((&room{}).load, time.Second, zap.NewNop().Sugar())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Refresh()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Refresh blocked without a running hub")
	}
}

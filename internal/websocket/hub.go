package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/metrics"
)

// SnapshotLoader returns the whole room, newest first.
type SnapshotLoader func(ctx context.Context) ([]imtypes.Message, error)

// Hub owns the subscriber set and pushes the latest room snapshot to every
// subscriber after each change.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	// Coalesces change notifications: one pending refresh covers any number
	// of changes.
	refresh chan struct{}
	done    chan struct{}

	load    SnapshotLoader
	timeout time.Duration
	version uint64
	latest  []byte
	log     *zap.SugaredLogger

	retryDelay   time.Duration
	retryPending atomic.Bool
}

// NewHub creates a new Hub. timeout bounds each snapshot load.
func NewHub(load SnapshotLoader, timeout time.Duration, log *zap.SugaredLogger) *Hub {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		refresh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
		load:       load,
		timeout:    timeout,
		log:        log,
		retryDelay: time.Second,
	}
}

// Refresh tells the hub the room changed. It never blocks.
func (h *Hub) Refresh() {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
}

// Run processes hub events until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("websocket hub started")
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
		h.log.Info("websocket hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.SubscribersConnected.Inc()
			h.log.Debugw("subscriber registered", "userId", c.UserID, "subscribers", len(h.clients))
			if h.latest == nil {
				h.publish(ctx)
			} else {
				c.offer(h.latest)
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Debugw("subscriber unregistered", "userId", c.UserID, "subscribers", len(h.clients))
			}

		case <-h.refresh:
			h.publish(ctx)
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	metrics.SubscribersConnected.Dec()
}

// publish reloads the room and offers the new frame to every subscriber. A
// failed load keeps the previous frame and schedules another refresh.
func (h *Hub) publish(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, h.timeout)
	msgs, err := h.load(lctx)
	cancel()
	if err != nil {
		h.log.Errorw("load snapshot", "error", err, "retryIn", h.retryDelay)
		if h.retryPending.CompareAndSwap(false, true) {
			time.AfterFunc(h.retryDelay, func() {
				h.retryPending.Store(false)
				h.Refresh()
			})
		}
		return
	}
	if msgs == nil {
		msgs = []imtypes.Message{}
	}

	h.version++
	frame, err := json.Marshal(imtypes.Snapshot{
		Kind:     imtypes.SnapshotKind,
		Version:  h.version,
		Messages: msgs,
	})
	if err != nil {
		h.log.Errorw("encode snapshot", "error", err)
		return
	}
	h.latest = frame
	metrics.SnapshotsPublished.Inc()

	for c := range h.clients {
		c.offer(frame)
	}
}

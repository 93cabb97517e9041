package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lapor-chat/internal/imtypes"
)

// Subscribe opens the live room feed on the chat server.
func (c *Client) Subscribe(ctx context.Context) (imtypes.SnapshotStream, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return nil, err
	}

	s := &wsStream{
		conn:     conn,
		ch:       make(chan imtypes.Snapshot),
		done:     make(chan struct{}),
		pongWait: c.pongWait,
	}
	go s.read()
	go s.ping()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

type wsStream struct {
	conn     *websocket.Conn
	ch       chan imtypes.Snapshot
	done     chan struct{}
	pongWait time.Duration

	mu      sync.Mutex
	err     error
	closing bool
	once    sync.Once
}

func (s *wsStream) Snapshots() <-chan imtypes.Snapshot {
	return s.ch
}

// Err reports why the stream ended. It is nil when the caller closed it.
func (s *wsStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *wsStream) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *wsStream) extend() {
	s.conn.SetReadDeadline(time.Now().Add(s.pongWait))
}

// read ends with a timeout error when nothing, pongs included, arrives
// within pongWait.
func (s *wsStream) read() {
	defer func() {
		close(s.ch)
		s.Close()
	}()
	s.extend()
	s.conn.SetPongHandler(func(string) error {
		s.extend()
		return nil
	})
	s.conn.SetPingHandler(func(data string) error {
		s.extend()
		err := s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(s.pongWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(err)
			return
		}
		s.extend()

		var snap imtypes.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil || snap.Kind != imtypes.SnapshotKind {
			continue
		}

		select {
		case s.ch <- snap:
		case <-s.done:
			return
		}
	}
}

func (s *wsStream) ping() {
	ticker := time.NewTicker(s.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.pongWait)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *wsStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	s.err = err
}

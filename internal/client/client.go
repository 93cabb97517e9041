// Package client talks to the API and chat servers on behalf of the terminal
// client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lapor-chat/internal/composer"
	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/notification"
)

// ErrNotSignedIn is returned by calls that need a session.
var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx answer from the API server. Its message is the
// server's error text, shown to the user as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Config points the client at the servers. The live feed is dropped when
// the chat server stays silent for PongWait.
type Config struct {
	APIURL   string
	WSURL    string
	Timeout  time.Duration
	PongWait time.Duration
}

// Client implements the composer backend, the push token store and the
// session provider.
type Client struct {
	apiURL   string
	wsURL    string
	pongWait time.Duration
	http     *http.Client
	dialer   *websocket.Dialer
	log      *zap.SugaredLogger

	mu        sync.RWMutex
	token     string
	identity  *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

// New creates a Client. Every HTTP call is bounded by cfg.Timeout.
func New(cfg Config, log *zap.SugaredLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	return &Client{
		apiURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		wsURL:     cfg.WSURL,
		pongWait:  pongWait,
		http:      &http.Client{Timeout: timeout},
		dialer:    &websocket.Dialer{HandshakeTimeout: timeout},
		log:       log,
		listeners: make(map[int]func(*Identity)),
	}
}

func (c *Client) bearer() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", ErrNotSignedIn
	}
	return c.token, nil
}

// call sends a request and decodes a JSON answer into out when out is not nil.
func (c *Client) call(ctx context.Context, method, path string, body io.Reader, contentType string, auth bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		token, err := c.bearer()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) callJSON(ctx context.Context, method, path string, in interface{}, auth bool, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	return c.call(ctx, method, path, body, "application/json", auth, out)
}

func (c *Client) AppendMessage(ctx context.Context, in imtypes.AppendMessageInput) (*imtypes.Message, error) {
	var msg imtypes.Message
	if err := c.callJSON(ctx, http.MethodPost, "/api/v1/messages", in, true, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.callJSON(ctx, http.MethodDelete, "/api/v1/messages/"+url.PathEscape(id), nil, true, nil)
}

// ListMessages fetches the room once, without subscribing.
func (c *Client) ListMessages(ctx context.Context) ([]imtypes.Message, error) {
	var out struct {
		Messages []imtypes.Message `json:"messages"`
	}
	if err := c.callJSON(ctx, http.MethodGet, "/api/v1/messages", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// UploadBlob streams r as a multipart upload.
func (c *Client) UploadBlob(ctx context.Context, fileName string, r io.Reader) (*imtypes.FileInfo, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", fileName)
		if err == nil {
			_, err = io.Copy(fw, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var info imtypes.FileInfo
	if err := c.call(ctx, http.MethodPost, "/api/v1/uploads", pr, mw.FormDataContentType(), true, &info); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &info, nil
}

func (c *Client) DeleteBlob(ctx context.Context, key string) error {
	return c.callJSON(ctx, http.MethodDelete, "/api/v1/uploads/"+key, nil, true, nil)
}

// StorePushToken registers token for the signed-in user.
func (c *Client) StorePushToken(ctx context.Context, userID, token string) error {
	if id := c.CurrentUser(); id == nil || id.UserID != userID {
		return ErrNotSignedIn
	}
	return c.callJSON(ctx, http.MethodPut, "/api/v1/push-token", map[string]string{"token": token}, true, nil)
}

var (
	_ composer.Backend        = (*Client)(nil)
	_ notification.TokenStore = (*Client)(nil)
)

//go:generate go run go.uber.org/mock/mockgen -source=expo.go -destination=../mocks/mock_push_sender.go -package=mocks
package push

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lapor-chat/internal/config"
)

// ErrRejected is returned when the gateway accepts the request but refuses
// the ticket.
var ErrRejected = errors.New("push rejected by gateway")

// Message is one push request to one device token.
type Message struct {
	To    string `json:"to"`
	Sound string `json:"sound"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender delivers a single push message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ExpoClient talks to the Expo push HTTP API.
type ExpoClient struct {
	url        string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewExpoClient builds a client for cfg.GatewayURL. A nil httpClient gets one
// with cfg.Timeout.
func NewExpoClient(cfg config.PushConfig, httpClient *http.Client, log *zap.SugaredLogger) *ExpoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &ExpoClient{url: cfg.GatewayURL, httpClient: httpClient, log: log}
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

type expoResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send posts msg and checks the returned ticket.
func (c *ExpoClient) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("read push response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed expoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// a 2xx without a parseable ticket still counts as sent
		c.log.Debugw("unparseable push response", "body", truncate(body, 200))
		return nil
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrRejected, parsed.Errors[0].Message)
	}
	var ticket expoTicket
	if len(parsed.Data) > 0 && json.Unmarshal(parsed.Data, &ticket) == nil && ticket.Status == "error" {
		return fmt.Errorf("%w: %s", ErrRejected, ticket.Message)
	}
	return nil
}

// readBody undoes the content encoding we asked for in Accept-Encoding.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		r = fl
	}
	return io.ReadAll(io.LimitReader(r, 1<<20))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

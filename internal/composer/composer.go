// Package composer holds the client side of the chat room: the draft, the
// last snapshot received and the send/delete actions.
package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/render"
)

var (
	ErrLocationDenied   = errors.New("Izin lokasi ditolak")
	ErrUnsupportedMedia = errors.New("media type must be image or video")
)

const (
	deleteTitle   = "Hapus Pesan"
	deletePrompt  = "Apakah Anda yakin ingin menghapus pesan ini?"
	compensateTTL = 10 * time.Second

	// reconnect failures in a row before the user is told the feed is down
	reconnectAlertAfter = 3
)

// DefaultReconnectBackoff retries forever, from 500ms up to 30s between
// attempts.
func DefaultReconnectBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// OpenFunc opens the bytes behind a local file reference.
type OpenFunc func(uri string) (io.ReadCloser, error)

// OpenLocal opens plain paths and file:// URIs.
func OpenLocal(uri string) (io.ReadCloser, error) {
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		return os.Open(u.Path)
	}
	return os.Open(uri)
}

// Options configures a Composer. Backend, Alerter and Confirmer are required.
type Options struct {
	Backend   Backend
	Location  LocationProvider
	Alerter   Alerter
	Confirmer Confirmer
	Open      OpenFunc
	Logger    *zap.SugaredLogger

	// ReconnectBackoff builds the schedule used after the live stream
	// drops. Defaults to DefaultReconnectBackoff.
	ReconnectBackoff func() backoff.BackOff
}

// Composer is safe for concurrent use. Backend calls run without holding the
// lock so independent actions complete independently.
type Composer struct {
	backend   Backend
	location  LocationProvider
	alerter   Alerter
	confirmer Confirmer
	open      OpenFunc
	log       *zap.SugaredLogger
	retry     func() backoff.BackOff

	mu        sync.Mutex
	draft     string
	messages  []imtypes.Message
	version   uint64
	status    map[Action]Status
	gen       uint64
	stream    imtypes.SnapshotStream
	cancel    context.CancelFunc
	listeners []func()
}

// New creates a Composer.
func New(opts Options) *Composer {
	c := &Composer{
		backend:   opts.Backend,
		location:  opts.Location,
		alerter:   opts.Alerter,
		confirmer: opts.Confirmer,
		open:      opts.Open,
		log:       opts.Logger,
		retry:     opts.ReconnectBackoff,
		status:    make(map[Action]Status),
	}
	if c.retry == nil {
		c.retry = DefaultReconnectBackoff
	}
	if c.open == nil {
		c.open = OpenLocal
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	return c
}

// OnChange registers fn to run after the message list or a status changes.
// fn runs on the goroutine that made the change and must not block.
func (c *Composer) OnChange(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Composer) notify() {
	c.mu.Lock()
	fns := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Composer) SetDraft(s string) {
	c.mu.Lock()
	c.draft = s
	c.mu.Unlock()
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Messages returns a copy of the last snapshot, newest first.
func (c *Composer) Messages() []imtypes.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]imtypes.Message(nil), c.messages...)
}

// Version is the version of the last snapshot applied.
func (c *Composer) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Views renders the current list for currentUserID.
func (c *Composer) Views(currentUserID string, loc *time.Location) []render.View {
	return render.RenderAll(c.Messages(), currentUserID, loc)
}

func (c *Composer) Status(a Action) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[a]
}

// Busy reports whether any action is in flight.
func (c *Composer) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.status {
		if s.Sending() {
			return true
		}
	}
	return false
}

func (c *Composer) begin(a Action) {
	c.mu.Lock()
	s := c.status[a]
	s.InFlight++
	c.status[a] = s
	c.mu.Unlock()
	c.notify()
}

func (c *Composer) end(a Action, err error) {
	c.mu.Lock()
	s := c.status[a]
	s.InFlight--
	s.LastErr = err
	c.status[a] = s
	c.mu.Unlock()
	c.notify()
}

// Subscribe opens a live stream and replaces the list on every snapshot. A
// previous stream is closed first and anything it still delivers is dropped.
// If the stream later fails it is reopened with backoff until Unsubscribe,
// the next Subscribe or the end of ctx.
func (c *Composer) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	old, oldCancel := c.detachLocked()
	c.mu.Unlock()
	c.closeStream(old, oldCancel)

	sctx, cancel := context.WithCancel(ctx)
	stream, err := c.backend.Subscribe(sctx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// superseded while dialing
		c.mu.Unlock()
		cancel()
		_ = stream.Close()
		return nil
	}
	c.stream = stream
	c.cancel = cancel
	c.mu.Unlock()

	go c.pump(sctx, gen, stream)
	return nil
}

// Unsubscribe tears down the live stream. The last list stays visible.
func (c *Composer) Unsubscribe() {
	c.mu.Lock()
	c.gen++
	old, oldCancel := c.detachLocked()
	c.mu.Unlock()
	c.closeStream(old, oldCancel)
}

func (c *Composer) detachLocked() (imtypes.SnapshotStream, context.CancelFunc) {
	stream, cancel := c.stream, c.cancel
	c.stream = nil
	c.cancel = nil
	return stream, cancel
}

func (c *Composer) closeStream(stream imtypes.SnapshotStream, cancel context.CancelFunc) {
	if cancel != nil {
		cancel()
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			c.log.Debugw("close snapshot stream", "error", err)
		}
	}
}

func (c *Composer) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Composer) pump(ctx context.Context, gen uint64, stream imtypes.SnapshotStream) {
	for stream != nil {
		for snap := range stream.Snapshots() {
			c.apply(gen, snap)
		}
		err := stream.Err()
		if err == nil || !c.current(gen) {
			return
		}
		c.log.Warnw("snapshot stream ended, reconnecting", "error", err)
		_ = stream.Close()
		stream = c.reconnect(ctx, gen)
	}
}

// reconnect reopens the stream for gen. It returns nil once gen is
// superseded or ctx is done.
func (c *Composer) reconnect(ctx context.Context, gen uint64) imtypes.SnapshotStream {
	b := backoff.WithContext(c.retry(), ctx)
	for attempt := 1; ; attempt++ {
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if !c.current(gen) {
			return nil
		}

		stream, err := c.backend.Subscribe(ctx)
		if err != nil {
			c.log.Debugw("resubscribe failed", "attempt", attempt, "error", err)
			if attempt == reconnectAlertAfter {
				c.alerter.Alert(fmt.Sprintf("Koneksi obrolan terputus: %s", err))
			}
			continue
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			_ = stream.Close()
			return nil
		}
		c.stream = stream
		c.mu.Unlock()
		c.log.Infow("snapshot stream reconnected", "attempts", attempt)
		return stream
	}
}

func (c *Composer) apply(gen uint64, snap imtypes.Snapshot) {
	msgs := append([]imtypes.Message(nil), snap.Messages...)
	imtypes.SortNewestFirst(msgs)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.messages = msgs
	c.version = snap.Version
	c.mu.Unlock()
	c.notify()
}

// SendText appends body as a text message. Whitespace-only input is ignored.
func (c *Composer) SendText(ctx context.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	c.begin(ActionSendText)
	_, err := c.backend.AppendMessage(ctx, imtypes.AppendMessageInput{Text: body})
	c.end(ActionSendText, err)
	if err != nil {
		c.alerter.Alert(fmt.Sprintf("Gagal mengirim pesan: %s", err))
		return err
	}

	c.SetDraft("")
	return nil
}

// SendDraft sends the current draft.
func (c *Composer) SendDraft(ctx context.Context) error {
	return c.SendText(ctx, c.Draft())
}

// SendLocation appends the current position once permission is granted.
func (c *Composer) SendLocation(ctx context.Context) error {
	c.begin(ActionSendLocation)
	err := c.sendLocation(ctx)
	c.end(ActionSendLocation, err)

	switch {
	case errors.Is(err, ErrLocationDenied):
		c.alerter.Alert(ErrLocationDenied.Error())
	case err != nil:
		c.alerter.Alert(fmt.Sprintf("Gagal mengirim lokasi: %s", err))
	}
	return err
}

func (c *Composer) sendLocation(ctx context.Context) error {
	if c.location == nil {
		return ErrLocationDenied
	}
	granted, err := c.location.RequestForegroundPermission(ctx)
	if err != nil {
		return err
	}
	if !granted {
		return ErrLocationDenied
	}

	pos, err := c.location.CurrentPosition(ctx)
	if err != nil {
		return err
	}
	_, err = c.backend.AppendMessage(ctx, imtypes.AppendMessageInput{
		Type:     imtypes.LocationMessageType,
		Location: &pos,
	})
	return err
}

// SendMedia uploads the file at uri and appends it as kind.
func (c *Composer) SendMedia(ctx context.Context, uri string, kind imtypes.MessageType) error {
	return c.sendMedia(ctx, uri, kind, "Gagal mengunggah media: %s")
}

// SendPhoto is the camera screen's upload: an image with its own alert text.
func (c *Composer) SendPhoto(ctx context.Context, uri string) error {
	return c.sendMedia(ctx, uri, imtypes.ImageMessageType, "Gagal mengunggah foto: %s")
}

func (c *Composer) sendMedia(ctx context.Context, uri string, kind imtypes.MessageType, alertFormat string) error {
	c.begin(ActionSendMedia)
	err := c.uploadAndAppend(ctx, uri, kind)
	c.end(ActionSendMedia, err)
	if err != nil {
		c.alerter.Alert(fmt.Sprintf(alertFormat, err))
	}
	return err
}

func (c *Composer) uploadAndAppend(ctx context.Context, uri string, kind imtypes.MessageType) error {
	if kind != imtypes.ImageMessageType && kind != imtypes.VideoMessageType {
		return ErrUnsupportedMedia
	}

	rc, err := c.open(uri)
	if err != nil {
		return fmt.Errorf("open %s: %w", uri, err)
	}
	info, err := c.backend.UploadBlob(ctx, path.Base(uri), rc)
	_ = rc.Close()
	if err != nil {
		return err
	}

	_, err = c.backend.AppendMessage(ctx, imtypes.AppendMessageInput{
		Type:     kind,
		MediaURL: info.URL,
	})
	if err != nil {
		c.compensate(ctx, info.Key)
		return err
	}
	return nil
}

// compensate removes a blob whose message never made it into the store.
func (c *Composer) compensate(ctx context.Context, key string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTTL)
	defer cancel()
	if err := c.backend.DeleteBlob(dctx, key); err != nil {
		c.log.Warnw("delete orphaned upload", "key", key, "error", err)
	}
}

// DeleteMessage asks for confirmation and then deletes id. Declining is not an
// error.
func (c *Composer) DeleteMessage(ctx context.Context, id string) error {
	ok, err := c.confirmer.Confirm(ctx, deleteTitle, deletePrompt)
	if err != nil || !ok {
		return err
	}

	c.begin(ActionDelete)
	err = c.backend.DeleteMessage(ctx, id)
	c.end(ActionDelete, err)
	if err != nil {
		c.alerter.Alert(fmt.Sprintf("Gagal menghapus pesan: %s", err))
	}
	return err
}

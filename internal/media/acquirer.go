// Package media turns a capture or pick on the device into a local file
// reference the composer can upload.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"lapor-chat/internal/imtypes"
)

var (
	ErrCanceled      = errors.New("capture canceled")
	ErrKindMismatch  = errors.New("file does not match requested media kind")
	ErrUnknownSource = errors.New("unknown media source")
)

// Source is where a file comes from.
type Source string

const (
	SourceCamera     Source = "camera"
	SourceLibrary    Source = "library"
	SourceViewfinder Source = "viewfinder"
)

// LocalFile references a file on the device.
type LocalFile struct {
	URI      string
	Kind     imtypes.MessageType
	MimeType string
	Canceled bool
}

// Device captures or picks one file of kind and returns its path. It returns
// ErrCanceled when the user backs out.
type Device interface {
	Capture(ctx context.Context, kind imtypes.MessageType) (string, error)
}

// Acquirer dispatches to the device behind each source and checks what came
// back.
type Acquirer struct {
	devices map[Source]Device
}

// NewAcquirer creates an Acquirer. A nil device leaves its source unavailable.
func NewAcquirer(camera, library, viewfinder Device) *Acquirer {
	devices := make(map[Source]Device, 3)
	for src, d := range map[Source]Device{
		SourceCamera:     camera,
		SourceLibrary:    library,
		SourceViewfinder: viewfinder,
	} {
		if d != nil {
			devices[src] = d
		}
	}
	return &Acquirer{devices: devices}
}

// Acquire returns the file the user produced. The viewfinder always takes a
// photo, whatever kind is asked for.
func (a *Acquirer) Acquire(ctx context.Context, src Source, kind imtypes.MessageType) (LocalFile, error) {
	dev, ok := a.devices[src]
	if !ok {
		return LocalFile{}, fmt.Errorf("%w: %s", ErrUnknownSource, src)
	}
	if src == SourceViewfinder {
		kind = imtypes.ImageMessageType
	}
	if kind != imtypes.ImageMessageType && kind != imtypes.VideoMessageType {
		return LocalFile{}, fmt.Errorf("%w: %q", ErrKindMismatch, kind)
	}

	uri, err := dev.Capture(ctx, kind)
	if errors.Is(err, ErrCanceled) {
		return LocalFile{Canceled: true}, nil
	}
	if err != nil {
		return LocalFile{}, fmt.Errorf("%s: %w", src, err)
	}

	mt, err := mimetype.DetectFile(uri)
	if err != nil {
		return LocalFile{}, fmt.Errorf("inspect %s: %w", uri, err)
	}
	if !strings.HasPrefix(mt.String(), string(kind)+"/") {
		return LocalFile{}, fmt.Errorf("%w: %s is %s", ErrKindMismatch, uri, mt.String())
	}

	return LocalFile{URI: uri, Kind: kind, MimeType: mt.String()}, nil
}

// PathDevice is a device that hands back a path chosen up front, as the
// terminal client does. An empty path counts as a cancel.
type PathDevice string

func (p PathDevice) Capture(ctx context.Context, _ imtypes.MessageType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(string(p)) == "" {
		return "", ErrCanceled
	}
	return string(p), nil
}

//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../mocks/mock_composer.go -package=mocks
package composer

import (
	"context"
	"io"

	"lapor-chat/internal/imtypes"
)

// Backend is everything the composer needs from the servers.
type Backend interface {
	AppendMessage(ctx context.Context, in imtypes.AppendMessageInput) (*imtypes.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	UploadBlob(ctx context.Context, fileName string, r io.Reader) (*imtypes.FileInfo, error)
	DeleteBlob(ctx context.Context, key string) error
	Subscribe(ctx context.Context) (imtypes.SnapshotStream, error)
}

// LocationProvider reads the device position.
type LocationProvider interface {
	RequestForegroundPermission(ctx context.Context) (granted bool, err error)
	CurrentPosition(ctx context.Context) (imtypes.Location, error)
}

// Alerter shows a blocking error message to the user.
type Alerter interface {
	Alert(message string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

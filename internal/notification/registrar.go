//go:generate go run go.uber.org/mock/mockgen -source=registrar.go -destination=../mocks/mock_registrar.go -package=mocks
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PermissionPrompter checks and, if needed, asks for notification permission.
type PermissionPrompter interface {
	RequestPermission(ctx context.Context) (granted bool, err error)
}

// DeviceTokenSource yields the push token of the current device.
type DeviceTokenSource interface {
	DeviceToken(ctx context.Context) (string, error)
}

// TokenStore persists a push token for a user, replacing the old one.
type TokenStore interface {
	StorePushToken(ctx context.Context, userID, token string) error
}

// Registrar stores the device push token whenever a session is established.
type Registrar struct {
	perms  PermissionPrompter
	source DeviceTokenSource
	store  TokenStore
	log    *zap.SugaredLogger
}

// NewRegistrar creates a Registrar.
func NewRegistrar(perms PermissionPrompter, source DeviceTokenSource, store TokenStore, log *zap.SugaredLogger) *Registrar {
	return &Registrar{perms: perms, source: source, store: store, log: log}
}

// OnSessionEstablished registers this device for userID. A denied permission
// is not an error: nothing is stored and nil is returned.
func (r *Registrar) OnSessionEstablished(ctx context.Context, userID string) error {
	granted, err := r.perms.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request notification permission: %w", err)
	}
	if !granted {
		r.log.Infow("notification permission denied", "userId", userID)
		return nil
	}

	token, err := r.source.DeviceToken(ctx)
	if err != nil {
		return fmt.Errorf("get device push token: %w", err)
	}
	if err := r.store.StorePushToken(ctx, userID, token); err != nil {
		return fmt.Errorf("store push token: %w", err)
	}
	return nil
}

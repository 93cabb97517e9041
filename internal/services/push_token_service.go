package services

import (
	"context"
	"errors"
	"strings"

	"lapor-chat/internal/storage"
)

var ErrEmptyPushToken = errors.New("push token is empty")

// PushTokenService records the device token a user's notifications go to.
type PushTokenService interface {
	Register(ctx context.Context, userID, token string) error
}

type pushTokenService struct {
	repo storage.PushTokenRepository
}

// NewPushTokenService creates a PushTokenService.
func NewPushTokenService(repo storage.PushTokenRepository) PushTokenService {
	return &pushTokenService{repo: repo}
}

func (s *pushTokenService) Register(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyPushToken
	}
	return s.repo.Upsert(ctx, userID, token)
}

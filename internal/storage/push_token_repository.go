//go:generate go run go.uber.org/mock/mockgen -source=push_token_repository.go -destination=../mocks/mock_push_token_repository.go -package=mocks
package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lapor-chat/internal/models"
)

// ErrPushTokenNotFound is returned when a user never registered a device.
var ErrPushTokenNotFound = errors.New("push token not found")

// PushTokenRepository stores one device push token per user.
type PushTokenRepository interface {
	// Upsert stores token for userID, replacing any previous value.
	Upsert(ctx context.Context, userID, token string) error
	GetByUserID(ctx context.Context, userID string) (*models.PushToken, error)
}

type gormPushTokenRepository struct {
	db *gorm.DB
}

// NewGormPushTokenRepository creates a GORM-backed PushTokenRepository.
func NewGormPushTokenRepository(db *gorm.DB) PushTokenRepository {
	return &gormPushTokenRepository{db: db}
}

func (r *gormPushTokenRepository) Upsert(ctx context.Context, userID, token string) error {
	row := models.PushToken{UserID: userID, Token: token}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert push token for %s: %w", userID, err)
	}
	return nil
}

func (r *gormPushTokenRepository) GetByUserID(ctx context.Context, userID string) (*models.PushToken, error) {
	var row models.PushToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPushTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get push token for %s: %w", userID, err)
	}
	return &row, nil
}

//go:generate go run go.uber.org/mock/mockgen -source=message_repository.go -destination=../mocks/mock_message_repository.go -package=mocks
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lapor-chat/internal/models"
)

// ErrMessageNotFound is returned when no message has the requested id.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines the persistence operations on chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// ListAll returns every message, newest first.
	ListAll(ctx context.Context) ([]*models.Message, error)
	Delete(ctx context.Context, id string) error
}

type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a GORM-backed MessageRepository.
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create discards any caller createdAt. The row is stamped with the database
// clock, never earlier than the newest stored message, so every API replica
// orders messages the same way.
func (r *gormMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now, err := databaseNow(tx)
		if err != nil {
			return fmt.Errorf("read database clock: %w", err)
		}
		var newest models.Message
		if err := tx.Select("created_at").Order("created_at DESC").Limit(1).Find(&newest).Error; err != nil {
			return err
		}
		if !now.After(newest.CreatedAt) {
			now = newest.CreatedAt.Add(time.Microsecond)
		}
		msg.CreatedAt = now
		return tx.Create(msg).Error
	})
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

const sqliteClockLayout = "2006-01-02 15:04:05.000"

func databaseNow(tx *gorm.DB) (time.Time, error) {
	switch tx.Dialector.Name() {
	case "postgres":
		var now time.Time
		err := tx.Raw("SELECT clock_timestamp()").Scan(&now).Error
		return now.UTC(), err
	case "sqlite":
		var now string
		if err := tx.Raw("SELECT strftime('%Y-%m-%d %H:%M:%f', 'now')").Scan(&now).Error; err != nil {
			return time.Time{}, err
		}
		return time.ParseInLocation(sqliteClockLayout, now, time.UTC)
	default:
		return time.Now().UTC(), nil
	}
}

func (r *gormMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return &msg, nil
}

func (r *gormMessageRepository) ListAll(ctx context.Context) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Delete removes the row permanently.
func (r *gormMessageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if res.Error != nil {
		return fmt.Errorf("delete message %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

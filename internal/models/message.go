package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lapor-chat/internal/imtypes"
)

// Message is a persisted chat message. Rows are never updated; deletion is a
// hard delete.
type Message struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;index:idx_messages_created_at_id,priority:2"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_created_at_id,priority:1"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	Text      *string   `gorm:"type:text"`
	Type      string    `gorm:"type:varchar(20)"`
	MediaURL  *string   `gorm:"type:text"`
	Latitude  *float64
	Longitude *float64
}

// TableName pins the messages table name.
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate stamps the id. The message repository sets CreatedAt from the
// database clock; rows written any other way fall back to the process clock.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ToWire converts the row into the shape clients render.
func (m *Message) ToWire() imtypes.Message {
	out := imtypes.Message{
		ID:     m.ID,
		Type:   imtypes.MessageType(m.Type),
		UserID: m.UserID,
	}
	if m.Text != nil {
		out.Text = *m.Text
	}
	if m.MediaURL != nil {
		out.MediaURL = *m.MediaURL
	}
	if m.Latitude != nil && m.Longitude != nil {
		out.Location = &imtypes.Location{Latitude: *m.Latitude, Longitude: *m.Longitude}
	}
	if !m.CreatedAt.IsZero() {
		created := m.CreatedAt
		out.CreatedAt = &created
	}
	return out
}

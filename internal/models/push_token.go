package models

import "time"

// PushToken is the device push token registered for a user. One per user;
// registering again overwrites it.
type PushToken struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"userId"`
	Token     string    `gorm:"type:varchar(255);not null" json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the push token table name.
func (PushToken) TableName() string {
	return "push_tokens"
}

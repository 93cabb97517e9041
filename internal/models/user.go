package models

// Role values stored on users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a session identity, either anonymous or email/password.
type User struct {
	BaseModel
	Email        *string `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	PasswordHash string  `gorm:"type:varchar(255)" json:"-"`
	Anonymous    bool    `gorm:"not null;default:false" json:"anonymous"`
	Role         string  `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
}

// TableName pins the users table name.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user receives new-message notifications.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

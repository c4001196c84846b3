package model

import "gorm.io/gorm"

// User is a portal account. The role-specific profile row (ElderlyUser,
// Caregiver, Doctor or Admin) is created lazily on first profile access.
type User struct {
	gorm.Model
	Email          string `json:"email" gorm:"column:email;uniqueIndex;size:191"`
	Password       string `json:"-" gorm:"column:password"`
	PasswordSalt   string `json:"-" gorm:"column:password_salt"`
	RoleID         uint32 `json:"role_id" gorm:"column:role_id;not null"`
	FailedAttempts int    `json:"-" gorm:"column:failed_attempts;default:0"`
	LockedUntil    *int64 `json:"-" gorm:"column:locked_until"`
}

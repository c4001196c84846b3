package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Admin is the administrator profile, linked 1:1 to a User account.
// Permissions is an unstructured JSON document; nothing beyond existence
// is enforced on it.
type Admin struct {
	gorm.Model
	UserID      uint           `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`
	Permissions datatypes.JSON `json:"permissions" gorm:"column:permissions;type:json"`
}

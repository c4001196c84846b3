package model

import (
	"fmt"

	"gorm.io/gorm"
)

type Role struct {
	gorm.Model
	ID   uint32 `gorm:"primary_key;auto_increment" json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

// Role names form a closed set; every account carries exactly one of them.
const (
	RoleElderly   = "elderly"
	RoleCaregiver = "caregiver"
	RoleDoctor    = "doctor"
	RoleAdmin     = "admin"
)

// SeedRoles inserts the four portal roles if they are not present yet.
func SeedRoles(db *gorm.DB) error {
	roles := []Role{
		{Name: RoleElderly},
		{Name: RoleCaregiver},
		{Name: RoleDoctor},
		{Name: RoleAdmin},
	}

	for _, role := range roles {
		var existingRole Role
		err := db.Where("name = ?", role.Name).First(&existingRole).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}

// RoleID looks up the ID for a role name.
func RoleID(db *gorm.DB, name string) (uint32, error) {
	var role Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return 0, err
	}
	return role.ID, nil
}

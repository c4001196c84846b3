package model

import "gorm.io/gorm"

// Caregiver is the caregiver-side profile, linked 1:1 to a User account.
type Caregiver struct {
	gorm.Model
	UserID       uint   `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`
	FirstName    string `json:"first_name" gorm:"column:first_name;size:50"`
	LastName     string `json:"last_name" gorm:"column:last_name;size:50"`
	Relationship string `json:"relationship" gorm:"column:relationship;size:50" example:"Daughter"`
}

// CaregiverAssignment links a caregiver to an elderly user it looks after.
// The composite unique index makes repeated assignment a no-op instead of
// accumulating duplicate references.
type CaregiverAssignment struct {
	gorm.Model
	CaregiverID   uint `json:"caregiver_id" gorm:"column:caregiver_id;not null;uniqueIndex:idx_caregiver_elderly"`
	ElderlyUserID uint `json:"elderly_user_id" gorm:"column:elderly_user_id;not null;uniqueIndex:idx_caregiver_elderly"`
}

// AssignedElderlyIDs returns the elderly profile IDs assigned to a caregiver,
// oldest assignment first.
func AssignedElderlyIDs(db *gorm.DB, caregiverID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&CaregiverAssignment{}).
		Where("caregiver_id = ?", caregiverID).
		Order("id ASC").
		Pluck("elderly_user_id", &ids).Error
	return ids, err
}

// CaregiverForElderly picks the caregiver an emergency alert should be routed
// to: the first caregiver assigned to the elderly user, or, when nobody is
// assigned, the first caregiver in the table. Returns gorm.ErrRecordNotFound
// when no caregiver exists at all.
func CaregiverForElderly(db *gorm.DB, elderlyUserID uint) (Caregiver, error) {
	var assignment CaregiverAssignment
	err := db.Where("elderly_user_id = ?", elderlyUserID).Order("id ASC").First(&assignment).Error
	if err == nil {
		var caregiver Caregiver
		if err := db.First(&caregiver, assignment.CaregiverID).Error; err == nil {
			return caregiver, nil
		}
	} else if err != gorm.ErrRecordNotFound {
		return Caregiver{}, err
	}

	var caregiver Caregiver
	err = db.Order("id ASC").First(&caregiver).Error
	return caregiver, err
}

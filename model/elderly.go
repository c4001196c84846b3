package model

import "gorm.io/gorm"

// ElderlyUser is the patient-side profile, linked 1:1 to a User account.
type ElderlyUser struct {
	gorm.Model
	UserID           uint   `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`
	FirstName        string `json:"first_name" gorm:"column:first_name;size:50"`
	LastName         string `json:"last_name" gorm:"column:last_name;size:50"`
	DateOfBirth      string `json:"date_of_birth" gorm:"column:date_of_birth" example:"1948-05-20"`
	Gender           string `json:"gender" gorm:"column:gender;size:10"`
	Address          string `json:"address" gorm:"column:address;type:text"`
	EmergencyContact string `json:"emergency_contact" gorm:"column:emergency_contact;size:100"`
}

// UpdateElderlyProfileRequest carries the editable profile fields.
type UpdateElderlyProfileRequest struct {
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Gender           string `json:"gender,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

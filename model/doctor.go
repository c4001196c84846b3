package model

import "gorm.io/gorm"

// Doctor is the doctor-side profile, linked 1:1 to a User account.
// A doctor may act on clinical workflows only while IsVerified is true.
type Doctor struct {
	gorm.Model
	UserID         uint   `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`
	FirstName      string `json:"first_name" gorm:"column:first_name;size:50"`
	LastName       string `json:"last_name" gorm:"column:last_name;size:50"`
	Specialization string `json:"specialization" gorm:"column:specialization;size:100" example:"cardiologist"`
	LicenseNumber  string `json:"license_number" gorm:"column:license_number;size:50"`
	IsVerified     bool   `json:"is_verified" gorm:"column:is_verified;default:false"`
}

// Specializations is the closed set a service request can target. Matching
// against a doctor's specialization is a case-sensitive exact comparison.
var Specializations = []string{
	"cardiologist",
	"neurologist",
	"geriatrician",
}

// ValidSpecialization reports whether s belongs to the closed enumeration.
func ValidSpecialization(s string) bool {
	for _, v := range Specializations {
		if v == s {
			return true
		}
	}
	return false
}

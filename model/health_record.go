package model

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// HealthRecord is the single clinical record of an elderly user (1:1).
type HealthRecord struct {
	gorm.Model
	ElderlyUserID      uint   `json:"elderly_user_id" gorm:"column:elderly_user_id;uniqueIndex;not null"`
	MedicalHistory     string `json:"medical_history" gorm:"column:medical_history;type:text"`
	CurrentMedications string `json:"current_medications" gorm:"column:current_medications;type:text"`
	Allergies          string `json:"allergies" gorm:"column:allergies;type:text"`
	BloodPressure      string `json:"blood_pressure" gorm:"column:blood_pressure;size:20" example:"120/80"`
	HeartRate          int    `json:"heart_rate" gorm:"column:heart_rate"`
	SugarLevel         string `json:"sugar_level" gorm:"column:sugar_level;type:decimal(5,2)"`
}

// noneSentinel is the default value for medication and allergy fields of a
// freshly bootstrapped record.
const noneSentinel = "None"

// defaultMedicalHistory builds the one-time narrative for a new record by
// scanning the elderly user's entire request history: one fixed sentence per
// distinct specialization ever requested, in enumeration order.
func defaultMedicalHistory(db *gorm.DB, elderlyUserID uint) (string, error) {
	var requested []string
	err := db.Model(&ServiceRequest{}).
		Distinct("specialization").
		Where("elderly_user_id = ?", elderlyUserID).
		Pluck("specialization", &requested).Error
	if err != nil {
		return "", err
	}

	history := "Default Medical History:\n"
	for _, spec := range Specializations {
		for _, r := range requested {
			if r == spec {
				history += fmt.Sprintf("- %s: No specific issues noted.\n", titleCase(spec))
				break
			}
		}
	}
	return history, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// EnsureHealthRecord returns the elderly user's health record, creating it
// with bootstrap defaults on first access. Subsequent calls reuse the stored
// record untouched; new service requests never re-trigger the bootstrap.
func EnsureHealthRecord(db *gorm.DB, elderlyUserID uint) (HealthRecord, bool, error) {
	var record HealthRecord
	err := db.Where("elderly_user_id = ?", elderlyUserID).First(&record).Error
	if err == nil {
		return record, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return HealthRecord{}, false, err
	}

	created := false
	err = db.Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction so concurrent first accesses
		// cannot create two records.
		if err := tx.Where("elderly_user_id = ?", elderlyUserID).First(&record).Error; err == nil {
			return nil
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		history, err := defaultMedicalHistory(tx, elderlyUserID)
		if err != nil {
			return err
		}

		record = HealthRecord{
			ElderlyUserID:      elderlyUserID,
			MedicalHistory:     history,
			CurrentMedications: noneSentinel,
			Allergies:          noneSentinel,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return HealthRecord{}, false, err
	}
	return record, created, nil
}

package model

import "gorm.io/gorm"

// Observation is a clinical note appended to a service request, ordered by
// creation time. Rows are never updated or removed while the request lives.
type Observation struct {
	gorm.Model
	RequestID uint   `json:"request_id" gorm:"column:request_id;not null;index"`
	Notes     string `json:"notes" gorm:"column:notes;type:text"`
}

// Prescription is issued by the treating doctor against an accepted request.
type Prescription struct {
	gorm.Model
	RequestID       uint   `json:"request_id" gorm:"column:request_id;not null;index"`
	MedicationName  string `json:"medication_name" gorm:"column:medication_name;size:100"`
	Dosage          string `json:"dosage" gorm:"column:dosage;size:50" example:"10mg"`
	Duration        string `json:"duration" gorm:"column:duration;size:50" example:"14 days"`
	AdditionalNotes string `json:"additional_notes" gorm:"column:additional_notes;type:text"`
}

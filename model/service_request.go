package model

import "gorm.io/gorm"

// Service request lifecycle states. Completed and rejected are terminal.
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestScheduled = "scheduled"
	RequestCompleted = "completed"
	RequestRejected  = "rejected"
)

// ServiceRequest is a patient-initiated unit of work routed to a doctor by
// specialization. The specialization is immutable after creation; DoctorID is
// set once when a doctor accepts.
type ServiceRequest struct {
	gorm.Model
	ElderlyUserID  uint   `json:"elderly_user_id" gorm:"column:elderly_user_id;not null;index"`
	DoctorID       *uint  `json:"doctor_id" gorm:"column:doctor_id"`
	Specialization string `json:"specialization" gorm:"column:specialization;size:100;not null"`
	Status         string `json:"status" gorm:"column:status;size:10;not null;index"`
}

// TransitionRequestStatus flips a request's status only if it still holds the
// expected prior status, so two doctors racing on the same row cannot both
// win. Returns false when the row was missing or already moved on.
func TransitionRequestStatus(db *gorm.DB, requestID uint, from, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := db.Model(&ServiceRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

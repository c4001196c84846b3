package model

import "gorm.io/gorm"

// Emergency alert states, forward-only: sent -> acknowledged -> resolved.
const (
	AlertSent         = "sent"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

// Feedback entry states.
const (
	FeedbackSent = "sent"
	FeedbackRead = "read"
)

// AcknowledgeMessage is the fixed reassurance text attached when a caregiver
// acknowledges an emergency.
const AcknowledgeMessage = "Help is on the way!"

// EmergencyNotification is a patient-raised, caregiver-directed alert.
type EmergencyNotification struct {
	gorm.Model
	ElderlyUserID uint   `json:"elderly_user_id" gorm:"column:elderly_user_id;not null;index"`
	CaregiverID   *uint  `json:"caregiver_id" gorm:"column:caregiver_id;index"`
	Status        string `json:"status" gorm:"column:status;size:12;not null"`
}

// FeedbackNotification is a message attached to an emergency alert. It
// carries both acknowledgment replies and clinical updates surfaced to the
// patient's notifications view.
type FeedbackNotification struct {
	gorm.Model
	NotificationID uint   `json:"notification_id" gorm:"column:notification_id;not null;index"`
	Message        string `json:"message" gorm:"column:message;type:text"`
	Status         string `json:"status" gorm:"column:status;size:10;not null"`
}

// TransitionAlertStatus flips an alert's status only while it still holds the
// expected prior status.
func TransitionAlertStatus(db *gorm.DB, notificationID uint, from, to string) (bool, error) {
	result := db.Model(&EmergencyNotification{}).
		Where("id = ? AND status = ?", notificationID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AttachClinicalFeedback surfaces a clinical update to the patient: it reuses
// the patient's most recent sent-state alert, or synthesizes one routed via
// caregiver selection, and attaches a feedback entry carrying the message.
// When no alert exists and no caregiver exists either, the update is silently
// dropped; the caller's clinical row is already saved and stays saved.
func AttachClinicalFeedback(db *gorm.DB, elderlyUserID uint, message string) error {
	var alert EmergencyNotification
	err := db.Where("elderly_user_id = ? AND status = ?", elderlyUserID, AlertSent).
		Order("id DESC").
		First(&alert).Error
	if err == gorm.ErrRecordNotFound {
		caregiver, cerr := CaregiverForElderly(db, elderlyUserID)
		if cerr == gorm.ErrRecordNotFound {
			return nil
		}
		if cerr != nil {
			return cerr
		}
		alert = EmergencyNotification{
			ElderlyUserID: elderlyUserID,
			CaregiverID:   &caregiver.ID,
			Status:        AlertSent,
		}
		if err := db.Create(&alert).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	feedback := FeedbackNotification{
		NotificationID: alert.ID,
		Message:        message,
		Status:         FeedbackSent,
	}
	return db.Create(&feedback).Error
}

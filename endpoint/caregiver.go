package endpoint

import (
	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func caregiverProfileOrRedirect(c *gin.Context, db *gorm.DB) (model.Caregiver, bool) {
	profile, err := middleware.GetCaregiverProfile(c, db)
	if err != nil {
		util.CallDashboardRedirect(c, "Complete your profile first")
		return model.Caregiver{}, false
	}
	return profile, true
}

func assignedIDsOrRespond(c *gin.Context, db *gorm.DB, caregiver model.Caregiver) ([]uint, bool) {
	ids, err := model.AssignedElderlyIDs(db, caregiver.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load assignments", Err: err})
		return nil, false
	}
	return ids, true
}

func sentAlertsFor(db *gorm.DB, elderlyIDs []uint) ([]model.EmergencyNotification, error) {
	var alerts []model.EmergencyNotification
	if len(elderlyIDs) == 0 {
		return alerts, nil
	}
	err := db.Where("elderly_user_id IN ? AND status = ?", elderlyIDs, model.AlertSent).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

// CaregiverDashboard godoc
// @Summary      Caregiver dashboard
// @Description  Assigned elderly users, their sent alerts and their feedback entries
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Dashboard retrieved"
// @Router       /caregiver/dashboard [get]
func CaregiverDashboard(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	ids, ok := assignedIDsOrRespond(c, db, caregiver)
	if !ok {
		return
	}

	var elderly []model.ElderlyUser
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&elderly).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load assigned users", Err: err})
			return
		}
	}

	alerts, err := sentAlertsFor(db, ids)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load alerts", Err: err})
		return
	}

	var feedback []model.FeedbackNotification
	if len(ids) > 0 {
		err = db.Table("feedback_notifications").
			Joins("JOIN emergency_notifications ON emergency_notifications.id = feedback_notifications.notification_id").
			Where("emergency_notifications.elderly_user_id IN ? AND feedback_notifications.deleted_at IS NULL", ids).
			Order("feedback_notifications.created_at DESC").
			Find(&feedback).Error
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load feedback", Err: err})
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Dashboard retrieved",
		Data: map[string]interface{}{
			"assigned_users":          elderly,
			"emergency_notifications": alerts,
			"feedback_notifications":  feedback,
		},
	})
}

// ListEmergencyAlerts godoc
// @Summary      Sent alerts for assigned elderly users
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Alerts retrieved"
// @Router       /caregiver/alerts [get]
func ListEmergencyAlerts(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	ids, ok := assignedIDsOrRespond(c, db, caregiver)
	if !ok {
		return
	}

	alerts, err := sentAlertsFor(db, ids)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load alerts", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Alerts retrieved",
		Data: map[string]interface{}{"total": len(alerts), "emergency_notifications": alerts},
	})
}

// ownAlertOrRedirect loads an alert directed at the acting caregiver.
func ownAlertOrRedirect(c *gin.Context, db *gorm.DB, caregiver model.Caregiver) (model.EmergencyNotification, bool) {
	alertID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return model.EmergencyNotification{}, false
	}

	var alert model.EmergencyNotification
	if err := db.Where("id = ? AND caregiver_id = ?", alertID, caregiver.ID).First(&alert).Error; err != nil {
		util.CallDashboardRedirect(c, "Alert not found")
		return model.EmergencyNotification{}, false
	}
	return alert, true
}

// AcknowledgeEmergency godoc
// @Summary      Acknowledge an emergency alert
// @Description  sent-to-acknowledged transition plus exactly one reassurance feedback entry, in one transaction
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Alert ID"
// @Success      200 {object} util.APIResponse "Alert acknowledged"
// @Router       /caregiver/alerts/{id}/acknowledge [post]
func AcknowledgeEmergency(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	alert, ok := ownAlertOrRedirect(c, db, caregiver)
	if !ok {
		return
	}

	stale := false
	err := db.Transaction(func(tx *gorm.DB) error {
		moved, err := model.TransitionAlertStatus(tx, alert.ID, model.AlertSent, model.AlertAcknowledged)
		if err != nil {
			return err
		}
		if !moved {
			stale = true
			return nil
		}
		feedback := model.FeedbackNotification{
			NotificationID: alert.ID,
			Message:        model.AcknowledgeMessage,
			Status:         model.FeedbackSent,
		}
		return tx.Create(&feedback).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to acknowledge alert", Err: err})
		return
	}
	if stale {
		util.CallDashboardRedirect(c, "Alert already handled")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Alert acknowledged"})
}

// ResolveEmergency godoc
// @Summary      Resolve an emergency alert
// @Description  acknowledged-to-resolved transition; feedback entries are untouched
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Alert ID"
// @Success      200 {object} util.APIResponse "Alert resolved"
// @Router       /caregiver/alerts/{id}/resolve [post]
func ResolveEmergency(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	alert, ok := ownAlertOrRedirect(c, db, caregiver)
	if !ok {
		return
	}

	moved, err := model.TransitionAlertStatus(db, alert.ID, model.AlertAcknowledged, model.AlertResolved)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to resolve alert", Err: err})
		return
	}
	if !moved {
		util.CallDashboardRedirect(c, "Alert not acknowledged yet")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Alert resolved"})
}

// MonitoringTools godoc
// @Summary      Health monitoring view
// @Description  Health records of assigned elderly users plus the reference ranges used by the monitoring page
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Monitoring data retrieved"
// @Router       /caregiver/monitoring [get]
func MonitoringTools(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	ids, ok := assignedIDsOrRespond(c, db, caregiver)
	if !ok {
		return
	}

	var records []model.HealthRecord
	if len(ids) > 0 {
		if err := db.Where("elderly_user_id IN ?", ids).Order("updated_at DESC").Find(&records).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load health records", Err: err})
			return
		}
	}

	// Reference ranges shown alongside the vitals.
	ranges := map[string]interface{}{
		"blood_pressure": map[string][]int{"low": {90, 120}, "high": {140, 180}},
		"heart_rate":     map[string]int{"low": 60, "high": 100},
		"sugar_levels":   map[string]int{"low": 70, "high": 110},
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Monitoring data retrieved",
		Data: map[string]interface{}{
			"health_records":        records,
			"health_metrics_ranges": ranges,
		},
	})
}

// MedicationManagement godoc
// @Summary      Prescriptions of assigned elderly users
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Prescriptions retrieved"
// @Router       /caregiver/medications [get]
func MedicationManagement(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	ids, ok := assignedIDsOrRespond(c, db, caregiver)
	if !ok {
		return
	}

	var prescriptions []model.Prescription
	if len(ids) > 0 {
		err := db.Table("prescriptions").
			Joins("JOIN service_requests ON service_requests.id = prescriptions.request_id").
			Where("service_requests.elderly_user_id IN ? AND prescriptions.deleted_at IS NULL", ids).
			Order("prescriptions.created_at DESC").
			Find(&prescriptions).Error
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load prescriptions", Err: err})
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Prescriptions retrieved",
		Data: map[string]interface{}{"total": len(prescriptions), "prescriptions": prescriptions},
	})
}

// MarkPrescriptionCompleted godoc
// @Summary      Mark a prescription's request completed
// @Description  Completes the service request that owns the prescription
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Prescription ID"
// @Success      200 {object} util.APIResponse "Request completed"
// @Router       /caregiver/prescriptions/{id}/complete [post]
func MarkPrescriptionCompleted(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if _, ok := caregiverProfileOrRedirect(c, db); !ok {
		return
	}

	prescriptionID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	var prescription model.Prescription
	if err := db.First(&prescription, prescriptionID).Error; err != nil {
		util.CallDashboardRedirect(c, "Prescription not found")
		return
	}

	moved, err := model.TransitionRequestStatus(db, prescription.RequestID, model.RequestAccepted, model.RequestCompleted, nil)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to complete request", Err: err})
		return
	}
	if !moved {
		util.CallDashboardRedirect(c, "Request no longer accepted")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Request completed"})
}

// ListAppointments godoc
// @Summary      Pending requests of assigned elderly users
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Pending requests retrieved"
// @Router       /caregiver/appointments [get]
func ListAppointments(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	ids, ok := assignedIDsOrRespond(c, db, caregiver)
	if !ok {
		return
	}

	var requests []model.ServiceRequest
	if len(ids) > 0 {
		err := db.Where("elderly_user_id IN ? AND status = ?", ids, model.RequestPending).
			Order("created_at ASC").
			Find(&requests).Error
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load requests", Err: err})
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Pending requests retrieved",
		Data: map[string]interface{}{"total": len(requests), "service_requests": requests},
	})
}

// ScheduleAppointment godoc
// @Summary      Schedule a pending request
// @Description  pending-to-scheduled transition; no doctor is assigned by scheduling
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Success      200 {object} util.APIResponse "Request scheduled"
// @Router       /caregiver/appointments/{id}/schedule [post]
func ScheduleAppointment(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if _, ok := caregiverProfileOrRedirect(c, db); !ok {
		return
	}

	requestID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	moved, err := model.TransitionRequestStatus(db, requestID, model.RequestPending, model.RequestScheduled, nil)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to schedule request", Err: err})
		return
	}
	if !moved {
		util.CallDashboardRedirect(c, "Request no longer pending")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Request scheduled"})
}

// ListAssignedElderly godoc
// @Summary      Profiles of assigned elderly users
// @Tags         Caregiver
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Assigned users retrieved"
// @Router       /caregiver/assigned [get]
func ListAssignedElderly(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	caregiver, ok := caregiverProfileOrRedirect(c, db)
	if !ok {
		return
	}
	ids, ok := assignedIDsOrRespond(c, db, caregiver)
	if !ok {
		return
	}

	var elderly []model.ElderlyUser
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&elderly).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load assigned users", Err: err})
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Assigned users retrieved",
		Data: map[string]interface{}{"total": len(elderly), "elderly_users": elderly},
	})
}

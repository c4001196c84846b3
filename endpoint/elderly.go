package endpoint

import (
	"fmt"
	"strconv"

	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// elderlyProfileOrRedirect resolves the acting elderly profile; a missing
// profile falls through to the dashboard like every other not-found.
func elderlyProfileOrRedirect(c *gin.Context, db *gorm.DB) (model.ElderlyUser, bool) {
	profile, err := middleware.GetElderlyProfile(c, db)
	if err != nil {
		util.CallDashboardRedirect(c, "Complete your profile first")
		return model.ElderlyUser{}, false
	}
	return profile, true
}

type createServiceRequestBody struct {
	Specialization string `json:"specialization" binding:"required" example:"cardiologist"`
}

// CreateServiceRequest godoc
// @Summary      Book a service request
// @Description  Create a pending service request targeting one medical specialization
// @Tags         Elderly
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body createServiceRequestBody true "Requested specialization"
// @Success      200 {object} util.APIResponse{data=model.ServiceRequest} "Request created"
// @Failure      400 {object} util.APIResponse "Unknown specialization"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /service-request [post]
func CreateServiceRequest(c *gin.Context) {
	var body createServiceRequestBody
	if !bindJSONOrRespond(c, &body, "Invalid request body") {
		return
	}

	if !model.ValidSpecialization(body.Specialization) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown specialization",
			Err: fmt.Errorf("specialization %q not in %v", body.Specialization, model.Specializations),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	request := model.ServiceRequest{
		ElderlyUserID:  profile.ID,
		Specialization: body.Specialization,
		Status:         model.RequestPending,
	}
	if err := db.Create(&request).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create service request", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Service request created", Data: request})
}

// ListServiceRequests godoc
// @Summary      List own service requests
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Requests retrieved"
// @Router       /service-requests [get]
func ListServiceRequests(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	var requests []model.ServiceRequest
	if err := db.Where("elderly_user_id = ?", profile.ID).Order("created_at DESC").Find(&requests).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve service requests", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Service requests retrieved",
		Data: map[string]interface{}{"total": len(requests), "requests": requests},
	})
}

// GetHealthRecords godoc
// @Summary      Get own health record
// @Description  Return the health record, bootstrapping it on first access
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=model.HealthRecord} "Record retrieved"
// @Router       /health-records [get]
func GetHealthRecords(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	record, _, err := model.EnsureHealthRecord(db, profile.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load health record", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Health record retrieved", Data: record})
}

// ListPrescriptions godoc
// @Summary      List own prescriptions
// @Description  Prescriptions joined through the elderly user's service requests
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Prescriptions retrieved"
// @Router       /prescriptions [get]
func ListPrescriptions(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	var prescriptions []model.Prescription
	err := db.Table("prescriptions").
		Joins("JOIN service_requests ON service_requests.id = prescriptions.request_id").
		Where("service_requests.elderly_user_id = ? AND prescriptions.deleted_at IS NULL", profile.ID).
		Order("prescriptions.created_at DESC").
		Find(&prescriptions).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve prescriptions", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Prescriptions retrieved",
		Data: map[string]interface{}{"total": len(prescriptions), "prescriptions": prescriptions},
	})
}

// ListBills godoc
// @Summary      List own bills
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Bills retrieved"
// @Router       /billing [get]
func ListBills(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	var bills []model.Billing
	err := db.Table("billings").
		Joins("JOIN service_requests ON service_requests.id = billings.request_id").
		Where("service_requests.elderly_user_id = ? AND billings.deleted_at IS NULL", profile.ID).
		Order("billings.created_at DESC").
		Find(&bills).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve bills", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Bills retrieved",
		Data: map[string]interface{}{"total": len(bills), "bills": bills},
	})
}

// PayBill godoc
// @Summary      Pay a bill
// @Description  Flip payment status pending to paid; the transition happens at most once
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Bill ID"
// @Success      200 {object} util.APIResponse "Bill paid"
// @Failure      400 {object} util.APIResponse "Bill already paid"
// @Router       /billing/{id}/pay [post]
func PayBill(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	billID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	// The bill must belong to one of the caller's own requests.
	var bill model.Billing
	err := db.Table("billings").
		Joins("JOIN service_requests ON service_requests.id = billings.request_id").
		Where("billings.id = ? AND service_requests.elderly_user_id = ? AND billings.deleted_at IS NULL", billID, profile.ID).
		Select("billings.*").
		First(&bill).Error
	if err != nil {
		util.CallDashboardRedirect(c, "Bill not found")
		return
	}

	paid, err := model.MarkBillPaid(db, bill.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to pay bill", Err: err})
		return
	}
	if !paid {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Bill already paid",
			Err: fmt.Errorf("payment status is not pending"),
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bill paid"})
}

// ListNotifications godoc
// @Summary      List own notifications
// @Description  Feedback entries attached to the elderly user's emergency alerts
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Notifications retrieved"
// @Router       /notifications [get]
func ListNotifications(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	var feedback []model.FeedbackNotification
	err := db.Table("feedback_notifications").
		Joins("JOIN emergency_notifications ON emergency_notifications.id = feedback_notifications.notification_id").
		Where("emergency_notifications.elderly_user_id = ? AND feedback_notifications.deleted_at IS NULL", profile.ID).
		Order("feedback_notifications.created_at DESC").
		Find(&feedback).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve notifications", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Notifications retrieved",
		Data: map[string]interface{}{"total": len(feedback), "notifications": feedback},
	})
}

// MarkNotificationRead godoc
// @Summary      Mark a notification as read
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Feedback notification ID"
// @Success      200 {object} util.APIResponse "Notification marked read"
// @Router       /notifications/{id}/read [post]
func MarkNotificationRead(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	feedbackID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	result := db.Table("feedback_notifications").
		Where("feedback_notifications.id = ? AND feedback_notifications.status = ?", feedbackID, model.FeedbackSent).
		Where("feedback_notifications.notification_id IN (?)",
			db.Table("emergency_notifications").Select("id").Where("elderly_user_id = ?", profile.ID)).
		Update("status", model.FeedbackRead)
	if result.Error != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update notification", Err: result.Error})
		return
	}
	if result.RowsAffected == 0 {
		util.CallDashboardRedirect(c, "Notification not found")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Notification marked read"})
}

// EmergencyButton godoc
// @Summary      Raise an emergency alert
// @Description  Create a sent-state alert routed to the first assigned caregiver, falling back to the first caregiver overall
// @Tags         Elderly
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=model.EmergencyNotification} "Alert raised"
// @Router       /emergency [post]
func EmergencyButton(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	profile, ok := elderlyProfileOrRedirect(c, db)
	if !ok {
		return
	}

	caregiver, err := model.CaregiverForElderly(db, profile.ID)
	if err == gorm.ErrRecordNotFound {
		// Nobody to notify. The original quietly bounced back to the
		// dashboard; keep that behavior.
		util.CallDashboardRedirect(c, "No caregiver available")
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to select caregiver", Err: err})
		return
	}

	alert := model.EmergencyNotification{
		ElderlyUserID: profile.ID,
		CaregiverID:   &caregiver.ID,
		Status:        model.AlertSent,
	}
	if err := db.Create(&alert).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to raise emergency alert", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Emergency alert raised", Data: alert})
}

// paramIDOrRedirect parses a numeric path parameter; non-numeric or missing
// values fall through to the dashboard.
func paramIDOrRedirect(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		util.CallDashboardRedirect(c, "Not found")
		return 0, false
	}
	return uint(id), true
}

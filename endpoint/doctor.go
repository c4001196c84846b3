package endpoint

import (
	"fmt"

	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// verifiedDoctorOrRedirect resolves the acting doctor profile and enforces
// the verification gate: unverified doctors cannot act on clinical workflows.
func verifiedDoctorOrRedirect(c *gin.Context, db *gorm.DB) (model.Doctor, bool) {
	doctor, err := middleware.GetDoctorProfile(c, db)
	if err != nil {
		util.CallDashboardRedirect(c, "Complete your profile first")
		return model.Doctor{}, false
	}
	if !doctor.IsVerified {
		util.CallDashboardRedirect(c, "Awaiting verification")
		return model.Doctor{}, false
	}
	return doctor, true
}

// pendingQueue returns the pending requests matching the doctor's own
// specialization, oldest first.
func pendingQueue(db *gorm.DB, doctor model.Doctor) ([]model.ServiceRequest, error) {
	var requests []model.ServiceRequest
	err := db.Where("status = ? AND specialization = ?", model.RequestPending, doctor.Specialization).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func respondWithQueue(c *gin.Context, db *gorm.DB, doctor model.Doctor, msg string) {
	requests, err := pendingQueue(db, doctor)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve pending requests", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: msg,
		Data: map[string]interface{}{
			"specialization":   doctor.Specialization,
			"total":            len(requests),
			"pending_requests": requests,
		},
	})
}

// ListPendingRequests godoc
// @Summary      Doctor work queue
// @Description  Pending service requests filtered to the doctor's own specialization
// @Tags         Doctor
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Pending requests retrieved"
// @Router       /doctor/requests [get]
func ListPendingRequests(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}
	respondWithQueue(c, db, doctor, "Pending requests retrieved")
}

// AcceptRequest godoc
// @Summary      Accept a pending request
// @Description  Accept only when verified and the specialization matches exactly; stale or mismatched accepts leave the request untouched and return the filtered queue
// @Tags         Doctor
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Success      200 {object} util.APIResponse "Request accepted (or queue re-presented)"
// @Router       /doctor/requests/{id}/accept [post]
func AcceptRequest(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}

	requestID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	var request model.ServiceRequest
	if err := db.First(&request, requestID).Error; err != nil {
		util.CallDashboardRedirect(c, "Request not found")
		return
	}

	// Specialization mismatch rejects the action and re-presents the queue
	// filtered to the doctor's own specialization, with no state change.
	if request.Specialization != doctor.Specialization {
		respondWithQueue(c, db, doctor, "Specialization does not match; showing your queue")
		return
	}

	accepted, err := model.TransitionRequestStatus(db, request.ID, model.RequestPending, model.RequestAccepted,
		map[string]interface{}{"doctor_id": doctor.ID})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to accept request", Err: err})
		return
	}
	if !accepted {
		// Another doctor got there first, or the request already left
		// pending. Stale state is not an error the patient ever sees.
		respondWithQueue(c, db, doctor, "Request no longer pending; showing your queue")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Request accepted",
		Data: map[string]interface{}{"request_id": request.ID, "elderly_user_id": request.ElderlyUserID},
	})
}

type rejectRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

// RejectRequest godoc
// @Summary      Reject a pending request
// @Description  Terminal transition; the reason text is logged but not persisted on the request row
// @Tags         Doctor
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Success      200 {object} util.APIResponse "Request rejected"
// @Router       /doctor/requests/{id}/reject [post]
func RejectRequest(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}

	requestID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	var body rejectRequestBody
	_ = c.ShouldBindJSON(&body) // reason is optional

	rejected, err := model.TransitionRequestStatus(db, requestID, model.RequestPending, model.RequestRejected, nil)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reject request", Err: err})
		return
	}
	if !rejected {
		util.CallDashboardRedirect(c, "Request no longer pending")
		return
	}

	userID, _ := middleware.GetUserID(c)
	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventRequestRejected,
		UserID:    fmt.Sprintf("%d", userID),
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Doctor %d rejected request %d", doctor.ID, requestID),
		Details:   map[string]interface{}{"request_id": requestID, "reason": body.Reason},
	})

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Request rejected"})
}

// ownedAcceptedRequest loads a request that is accepted and assigned to the
// acting doctor, the precondition of every treatment action.
func ownedAcceptedRequest(c *gin.Context, db *gorm.DB, doctor model.Doctor) (model.ServiceRequest, bool) {
	requestID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return model.ServiceRequest{}, false
	}

	var request model.ServiceRequest
	err := db.Where("id = ? AND status = ? AND doctor_id = ?", requestID, model.RequestAccepted, doctor.ID).
		First(&request).Error
	if err != nil {
		util.CallDashboardRedirect(c, "Request not found")
		return model.ServiceRequest{}, false
	}
	return request, true
}

// GetPatientHealthRecords godoc
// @Summary      Access a patient's health record
// @Description  Bootstraps the record on first access, then returns it
// @Tags         Doctor
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Elderly user ID"
// @Success      200 {object} util.APIResponse{data=model.HealthRecord} "Record retrieved"
// @Router       /doctor/patients/{id}/health-records [get]
func GetPatientHealthRecords(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if _, ok := verifiedDoctorOrRedirect(c, db); !ok {
		return
	}

	elderlyUserID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	var elderly model.ElderlyUser
	if err := db.First(&elderly, elderlyUserID).Error; err != nil {
		util.CallDashboardRedirect(c, "Patient not found")
		return
	}

	record, _, err := model.EnsureHealthRecord(db, elderly.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load health record", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Health record retrieved",
		Data: map[string]interface{}{"elderly_user": elderly, "record": record},
	})
}

type recordObservationBody struct {
	Notes string `json:"notes" binding:"required"`
}

// RecordObservation godoc
// @Summary      Append a clinical note
// @Description  Saves the note and surfaces it to the patient's notifications via the alert/feedback mechanism
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Param        request body recordObservationBody true "Note text"
// @Success      200 {object} util.APIResponse{data=model.Observation} "Observation recorded"
// @Router       /doctor/requests/{id}/observations [post]
func RecordObservation(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}
	request, ok := ownedAcceptedRequest(c, db, doctor)
	if !ok {
		return
	}

	var body recordObservationBody
	if !bindJSONOrRespond(c, &body, "Invalid request body") {
		return
	}

	observation := model.Observation{RequestID: request.ID, Notes: body.Notes}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&observation).Error; err != nil {
			return err
		}
		return model.AttachClinicalFeedback(tx, request.ElderlyUserID, body.Notes)
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to record observation", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Observation recorded", Data: observation})
}

type issuePrescriptionBody struct {
	MedicationName  string `json:"medication_name" binding:"required" example:"Lisinopril"`
	Dosage          string `json:"dosage" binding:"required" example:"10mg"`
	Duration        string `json:"duration" binding:"required" example:"30 days"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// IssuePrescription godoc
// @Summary      Issue a prescription
// @Description  Appends a prescription to the accepted request and notifies the patient
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Param        request body issuePrescriptionBody true "Prescription"
// @Success      200 {object} util.APIResponse{data=model.Prescription} "Prescription issued"
// @Router       /doctor/requests/{id}/prescriptions [post]
func IssuePrescription(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}
	request, ok := ownedAcceptedRequest(c, db, doctor)
	if !ok {
		return
	}

	var body issuePrescriptionBody
	if !bindJSONOrRespond(c, &body, "Invalid request body") {
		return
	}

	prescription := model.Prescription{
		RequestID:       request.ID,
		MedicationName:  body.MedicationName,
		Dosage:          body.Dosage,
		Duration:        body.Duration,
		AdditionalNotes: body.AdditionalNotes,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&prescription).Error; err != nil {
			return err
		}
		message := fmt.Sprintf("New prescription: %s %s for %s", body.MedicationName, body.Dosage, body.Duration)
		return model.AttachClinicalFeedback(tx, request.ElderlyUserID, message)
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to issue prescription", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Prescription issued", Data: prescription})
}

type serviceCostBody struct {
	ServiceCost string `json:"service_cost" binding:"required" example:"150.00"`
}

// SpecifyServiceCost godoc
// @Summary      Set the session cost
// @Description  Creates a pending bill for the accepted request
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Param        request body serviceCostBody true "Cost"
// @Success      200 {object} util.APIResponse{data=model.Billing} "Bill created"
// @Router       /doctor/requests/{id}/cost [post]
func SpecifyServiceCost(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}
	request, ok := ownedAcceptedRequest(c, db, doctor)
	if !ok {
		return
	}

	var body serviceCostBody
	if !bindJSONOrRespond(c, &body, "Invalid request body") {
		return
	}

	bill := model.Billing{
		RequestID:     request.ID,
		InvoiceNumber: uuid.NewString(),
		ServiceCost:   body.ServiceCost,
		PaymentStatus: model.PaymentPending,
	}
	if err := db.Create(&bill).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create bill", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bill created", Data: bill})
}

// CompleteSession godoc
// @Summary      Complete a session
// @Description  Terminal accepted-to-completed transition for a request owned by the acting doctor
// @Tags         Doctor
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Service request ID"
// @Success      200 {object} util.APIResponse "Session completed"
// @Router       /doctor/requests/{id}/complete [post]
func CompleteSession(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	doctor, ok := verifiedDoctorOrRedirect(c, db)
	if !ok {
		return
	}
	request, ok := ownedAcceptedRequest(c, db, doctor)
	if !ok {
		return
	}

	completed, err := model.TransitionRequestStatus(db, request.ID, model.RequestAccepted, model.RequestCompleted, nil)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to complete session", Err: err})
		return
	}
	if !completed {
		util.CallDashboardRedirect(c, "Request no longer accepted")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Session completed"})
}

package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/eldercare/portal/model"
	"github.com/stretchr/testify/assert"
)

func TestCreateServiceRequest(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, profile, token := createElderly(t, db, "edna@example.com")

	w := performJSON(r, "POST", "/service-request", token, map[string]string{"specialization": "cardiologist"})
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", profile.ID).First(&request).Error)
	assert.Equal(t, model.RequestPending, request.Status)
	assert.Equal(t, "cardiologist", request.Specialization)
	assert.Nil(t, request.DoctorID)
}

func TestCreateServiceRequestUnknownSpecialization(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, _, token := createElderly(t, db, "edna@example.com")

	w := performJSON(r, "POST", "/service-request", token, map[string]string{"specialization": "dermatologist"})
	assertStatus(t, w, http.StatusBadRequest)

	var count int64
	db.Model(&model.ServiceRequest{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDoctorQueueFiltersBySpecialization(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, _, elderlyToken := createElderly(t, db, "edna@example.com")
	_, _, cardioToken := createDoctor(t, db, "cardio@example.com", "cardiologist", true)
	_, _, neuroToken := createDoctor(t, db, "neuro@example.com", "neurologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	w = performJSON(r, "GET", "/doctor/requests", cardioToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	w = performJSON(r, "GET", "/doctor/requests", neuroToken, nil)
	response = decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])
}

func TestAcceptRequestSpecializationMismatch(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	_, _, neuroToken := createDoctor(t, db, "neuro@example.com", "neurologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&request).Error)

	// The mismatched accept re-presents the neurologist's queue and leaves
	// the request untouched.
	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), neuroToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	assert.Contains(t, response["msg"], "Specialization does not match")

	assert.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, model.RequestPending, request.Status)
	assert.Nil(t, request.DoctorID)
}

func TestAcceptRequestSetsDoctorAndStatus(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	_, doctor, doctorToken := createDoctor(t, db, "cardio@example.com", "cardiologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&request).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), doctorToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	assert.Equal(t, "Request accepted", response["msg"])

	assert.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, model.RequestAccepted, request.Status)
	if assert.NotNil(t, request.DoctorID) {
		assert.Equal(t, doctor.ID, *request.DoctorID)
	}
}

func TestAcceptRequestLosesRace(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	_, first, firstToken := createDoctor(t, db, "first@example.com", "cardiologist", true)
	_, _, secondToken := createDoctor(t, db, "second@example.com", "cardiologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&request).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), firstToken, nil)
	assertStatus(t, w, http.StatusOK)

	// The second accept finds the request already gone from pending and
	// gets the queue back without clobbering the first doctor's claim.
	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), secondToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	assert.Contains(t, response["msg"], "no longer pending")

	assert.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, model.RequestAccepted, request.Status)
	assert.Equal(t, first.ID, *request.DoctorID)
}

func TestUnverifiedDoctorCannotAct(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, _, token := createDoctor(t, db, "new@example.com", "cardiologist", false)

	w := performJSON(r, "GET", "/doctor/requests", token, nil)
	assertStatus(t, w, http.StatusTemporaryRedirect)
	response := decodeResponse(t, w)
	assert.Equal(t, "Awaiting verification", response["msg"])
}

func TestRejectRequestIsTerminal(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	_, _, doctorToken := createDoctor(t, db, "cardio@example.com", "cardiologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&request).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/reject", request.ID), doctorToken,
		map[string]string{"reason": "outside my scope"})
	assertStatus(t, w, http.StatusOK)

	assert.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, model.RequestRejected, request.Status)

	// A rejected request cannot be accepted afterwards.
	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), doctorToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	assert.Contains(t, response["msg"], "no longer pending")

	assert.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, model.RequestRejected, request.Status)
}

func TestClinicalActionsRequireOwnership(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	_, _, ownerToken := createDoctor(t, db, "owner@example.com", "cardiologist", true)
	_, _, otherToken := createDoctor(t, db, "other@example.com", "cardiologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&request).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), ownerToken, nil)
	assertStatus(t, w, http.StatusOK)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/observations", request.ID), otherToken,
		map[string]string{"notes": "BP slightly elevated"})
	assertStatus(t, w, http.StatusTemporaryRedirect)

	var count int64
	db.Model(&model.Observation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCompleteSessionFullFlow(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, caregiver, _ := createCaregiver(t, db, "carla@example.com")
	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	assignCaregiver(t, db, caregiver, elderly)
	_, _, doctorToken := createDoctor(t, db, "cardio@example.com", "cardiologist", true)

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&request).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), doctorToken, nil)
	assertStatus(t, w, http.StatusOK)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/observations", request.ID), doctorToken,
		map[string]string{"notes": "Mild hypertension, monitor weekly"})
	assertStatus(t, w, http.StatusOK)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/prescriptions", request.ID), doctorToken,
		map[string]string{"medication_name": "Lisinopril", "dosage": "10mg", "duration": "30 days"})
	assertStatus(t, w, http.StatusOK)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/cost", request.ID), doctorToken,
		map[string]string{"service_cost": "150.00"})
	assertStatus(t, w, http.StatusOK)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/complete", request.ID), doctorToken, nil)
	assertStatus(t, w, http.StatusOK)

	assert.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, model.RequestCompleted, request.Status)

	// Completed is terminal.
	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/complete", request.ID), doctorToken, nil)
	assertStatus(t, w, http.StatusTemporaryRedirect)

	// The patient sees the prescription and a pending bill.
	w = performJSON(r, "GET", "/prescriptions", elderlyToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	var bill model.Billing
	assert.NoError(t, db.Where("request_id = ?", request.ID).First(&bill).Error)
	assert.Equal(t, model.PaymentPending, bill.PaymentStatus)
	assert.NotEmpty(t, bill.InvoiceNumber)
}

func TestElderlyCannotReachDoctorRoutes(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, _, token := createElderly(t, db, "edna@example.com")

	w := performJSON(r, "GET", "/doctor/requests", token, nil)
	assertStatus(t, w, http.StatusTemporaryRedirect)
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "/dashboard", data["redirect"])
}

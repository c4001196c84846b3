package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/eldercare/portal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// acceptedRequestFor books a request for the patient and has the doctor
// accept it, returning the accepted row.
func acceptedRequestFor(t *testing.T, r *gin.Engine, db *gorm.DB, elderly model.ElderlyUser, elderlyToken, doctorToken string) model.ServiceRequest {
	t.Helper()

	w := performJSON(r, "POST", "/service-request", elderlyToken, map[string]string{"specialization": "cardiologist"})
	assertStatus(t, w, http.StatusOK)

	var request model.ServiceRequest
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).Order("id DESC").First(&request).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/accept", request.ID), doctorToken, nil)
	assertStatus(t, w, http.StatusOK)

	assert.NoError(t, db.First(&request, request.ID).Error)
	return request
}

func TestObservationAttachesToExistingSentAlert(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, caregiver, _ := createCaregiver(t, db, "carla@example.com")
	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	assignCaregiver(t, db, caregiver, elderly)
	_, _, doctorToken := createDoctor(t, db, "doc@example.com", "cardiologist", true)

	request := acceptedRequestFor(t, r, db, elderly, elderlyToken, doctorToken)

	w := performJSON(r, "POST", "/emergency", elderlyToken, nil)
	assertStatus(t, w, http.StatusOK)

	var alert model.EmergencyNotification
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&alert).Error)

	w = performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/observations", request.ID), doctorToken,
		map[string]string{"notes": "BP slightly elevated, recheck in a week"})
	assertStatus(t, w, http.StatusOK)

	// The note rode the existing alert; no second alert was synthesized.
	var alertCount int64
	db.Model(&model.EmergencyNotification{}).Where("elderly_user_id = ?", elderly.ID).Count(&alertCount)
	assert.Equal(t, int64(1), alertCount)

	var feedback []model.FeedbackNotification
	assert.NoError(t, db.Where("notification_id = ?", alert.ID).Find(&feedback).Error)
	if assert.Len(t, feedback, 1) {
		assert.Equal(t, "BP slightly elevated, recheck in a week", feedback[0].Message)
		assert.Equal(t, model.FeedbackSent, feedback[0].Status)
	}
}

func TestObservationSynthesizesAlertViaCaregiver(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, caregiver, _ := createCaregiver(t, db, "carla@example.com")
	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	assignCaregiver(t, db, caregiver, elderly)
	_, _, doctorToken := createDoctor(t, db, "doc@example.com", "cardiologist", true)

	request := acceptedRequestFor(t, r, db, elderly, elderlyToken, doctorToken)

	w := performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/observations", request.ID), doctorToken,
		map[string]string{"notes": "Start low-sodium diet"})
	assertStatus(t, w, http.StatusOK)

	// Without a prior alert, one sent-state alert is synthesized and routed
	// to the assigned caregiver.
	var alert model.EmergencyNotification
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&alert).Error)
	assert.Equal(t, model.AlertSent, alert.Status)
	if assert.NotNil(t, alert.CaregiverID) {
		assert.Equal(t, caregiver.ID, *alert.CaregiverID)
	}

	var feedback model.FeedbackNotification
	assert.NoError(t, db.Where("notification_id = ?", alert.ID).First(&feedback).Error)
	assert.Equal(t, "Start low-sodium diet", feedback.Message)

	// The patient sees the note in the notification list.
	w = performJSON(r, "GET", "/notifications", elderlyToken, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestObservationWithoutAlertOrCaregiverIsSilent(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	_, _, doctorToken := createDoctor(t, db, "doc@example.com", "cardiologist", true)

	request := acceptedRequestFor(t, r, db, elderly, elderlyToken, doctorToken)

	w := performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/observations", request.ID), doctorToken,
		map[string]string{"notes": "Stable, no changes"})
	assertStatus(t, w, http.StatusOK)

	// The observation itself is saved; the notification fan-out is dropped.
	var observations int64
	db.Model(&model.Observation{}).Where("request_id = ?", request.ID).Count(&observations)
	assert.Equal(t, int64(1), observations)

	var alerts, feedback int64
	db.Model(&model.EmergencyNotification{}).Count(&alerts)
	db.Model(&model.FeedbackNotification{}).Count(&feedback)
	assert.Equal(t, int64(0), alerts)
	assert.Equal(t, int64(0), feedback)
}

func TestPrescriptionFeedbackMessage(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, caregiver, _ := createCaregiver(t, db, "carla@example.com")
	_, elderly, elderlyToken := createElderly(t, db, "edna@example.com")
	assignCaregiver(t, db, caregiver, elderly)
	_, _, doctorToken := createDoctor(t, db, "doc@example.com", "cardiologist", true)

	request := acceptedRequestFor(t, r, db, elderly, elderlyToken, doctorToken)

	w := performJSON(r, "POST", fmt.Sprintf("/doctor/requests/%d/prescriptions", request.ID), doctorToken,
		map[string]string{"medication_name": "Lisinopril", "dosage": "10mg", "duration": "30 days"})
	assertStatus(t, w, http.StatusOK)

	var alert model.EmergencyNotification
	assert.NoError(t, db.Where("elderly_user_id = ?", elderly.ID).First(&alert).Error)

	var feedback model.FeedbackNotification
	assert.NoError(t, db.Where("notification_id = ?", alert.ID).First(&feedback).Error)
	assert.Equal(t, "New prescription: Lisinopril 10mg for 30 days", feedback.Message)
}

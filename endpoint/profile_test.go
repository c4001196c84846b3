package endpoint

import (
	"net/http"
	"testing"

	"github.com/eldercare/portal/model"
	"github.com/stretchr/testify/assert"
)

func TestGetProfileCreatesRowOnFirstVisit(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	user := createAccount(t, db, "edna@example.com", model.RoleElderly)
	token := openSession(t, db, user)

	var count int64
	db.Model(&model.ElderlyUser{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	w := performJSON(r, "GET", "/profile", token, nil)
	response := decodeResponse(t, w)
	assertSuccessResponse(t, w, response)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, model.RoleElderly, data["role"])

	db.Model(&model.ElderlyUser{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// A second visit reuses the same row.
	w = performJSON(r, "GET", "/profile", token, nil)
	assertStatus(t, w, http.StatusOK)
	db.Model(&model.ElderlyUser{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateElderlyProfileMergesFields(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, profile, token := createElderly(t, db, "edna@example.com")

	w := performJSON(r, "PATCH", "/profile", token, map[string]string{
		"address":           "12 Elm Street",
		"emergency_contact": "555-0101",
	})
	assertStatus(t, w, http.StatusOK)

	assert.NoError(t, db.First(&profile, profile.ID).Error)
	assert.Equal(t, "12 Elm Street", profile.Address)
	assert.Equal(t, "555-0101", profile.EmergencyContact)
	// Untouched fields keep their values.
	assert.Equal(t, "Edna", profile.FirstName)
}

func TestUpdateDoctorProfileRejectsUnknownSpecialization(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, profile, token := createDoctor(t, db, "doc@example.com", "cardiologist", true)

	w := performJSON(r, "PATCH", "/profile", token, map[string]string{
		"specialization": "dermatologist",
	})
	assertStatus(t, w, http.StatusBadRequest)

	assert.NoError(t, db.First(&profile, profile.ID).Error)
	assert.Equal(t, "cardiologist", profile.Specialization)
}

func TestUpdateDoctorProfileValidSpecialization(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerPortalRoutes(r)

	_, profile, token := createDoctor(t, db, "doc@example.com", "cardiologist", true)

	w := performJSON(r, "PATCH", "/profile", token, map[string]string{
		"specialization": "geriatrician",
	})
	assertStatus(t, w, http.StatusOK)

	assert.NoError(t, db.First(&profile, profile.ID).Error)
	assert.Equal(t, "geriatrician", profile.Specialization)
}

package endpoint

import (
	"encoding/json"
	"fmt"

	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func jsonMarshal(m map[string]interface{}) (datatypes.JSON, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// GetProfile godoc
// @Summary      Get own profile
// @Description  Return the role-specific profile, creating an empty one on first visit
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Profile retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile [get]
func GetProfile(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetRole(c)

	profile, err := ensureProfile(db, userID, role)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load profile", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile retrieved",
		Data: map[string]interface{}{"role": role, "profile": profile},
	})
}

// ensureProfile loads the role profile for the account, creating an empty row
// on first visit. Exactly one profile row ever exists per account.
func ensureProfile(db *gorm.DB, userID uint, role string) (interface{}, error) {
	switch role {
	case model.RoleElderly:
		var p model.ElderlyUser
		err := db.Where("user_id = ?", userID).First(&p).Error
		if err == gorm.ErrRecordNotFound {
			p = model.ElderlyUser{UserID: userID}
			err = db.Create(&p).Error
		}
		return p, err
	case model.RoleCaregiver:
		var p model.Caregiver
		err := db.Where("user_id = ?", userID).First(&p).Error
		if err == gorm.ErrRecordNotFound {
			p = model.Caregiver{UserID: userID}
			err = db.Create(&p).Error
		}
		return p, err
	case model.RoleDoctor:
		var p model.Doctor
		err := db.Where("user_id = ?", userID).First(&p).Error
		if err == gorm.ErrRecordNotFound {
			p = model.Doctor{UserID: userID}
			err = db.Create(&p).Error
		}
		return p, err
	case model.RoleAdmin:
		var p model.Admin
		err := db.Where("user_id = ?", userID).First(&p).Error
		if err == gorm.ErrRecordNotFound {
			p = model.Admin{UserID: userID}
			err = db.Create(&p).Error
		}
		return p, err
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

type updateDoctorProfileRequest struct {
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
}

type updateCaregiverProfileRequest struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

type updateAdminProfileRequest struct {
	Permissions map[string]interface{} `json:"permissions,omitempty"`
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Merge submitted fields into the role-specific profile
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Profile updated"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile [patch]
func UpdateProfile(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetRole(c)

	// Lazy creation applies on update too, so a fresh account can submit the
	// profile form directly.
	if _, err := ensureProfile(db, userID, role); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load profile", Err: err})
		return
	}

	switch role {
	case model.RoleElderly:
		updateElderlyProfile(c, db, userID)
	case model.RoleCaregiver:
		updateCaregiverProfile(c, db, userID)
	case model.RoleDoctor:
		updateDoctorProfile(c, db, userID)
	case model.RoleAdmin:
		updateAdminProfile(c, db, userID)
	default:
		util.CallDashboardRedirect(c, "Unknown role")
	}
}

func updateElderlyProfile(c *gin.Context, db *gorm.DB, userID uint) {
	var req model.UpdateElderlyProfileRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var profile model.ElderlyUser
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load profile", Err: err})
		return
	}

	if req.FirstName != "" {
		profile.FirstName = util.NormalizeName(req.FirstName)
	}
	if req.LastName != "" {
		profile.LastName = util.NormalizeName(req.LastName)
	}
	if req.DateOfBirth != "" {
		profile.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		profile.Gender = req.Gender
	}
	if req.Address != "" {
		profile.Address = req.Address
	}
	if req.EmergencyContact != "" {
		profile.EmergencyContact = req.EmergencyContact
	}

	saveProfileOrRespond(c, db, &profile)
}

func updateCaregiverProfile(c *gin.Context, db *gorm.DB, userID uint) {
	var req updateCaregiverProfileRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var profile model.Caregiver
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load profile", Err: err})
		return
	}

	if req.FirstName != "" {
		profile.FirstName = util.NormalizeName(req.FirstName)
	}
	if req.LastName != "" {
		profile.LastName = util.NormalizeName(req.LastName)
	}
	if req.Relationship != "" {
		profile.Relationship = req.Relationship
	}

	saveProfileOrRespond(c, db, &profile)
}

func updateDoctorProfile(c *gin.Context, db *gorm.DB, userID uint) {
	var req updateDoctorProfileRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	if req.Specialization != "" && !model.ValidSpecialization(req.Specialization) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown specialization",
			Err: fmt.Errorf("specialization %q not in %v", req.Specialization, model.Specializations),
		})
		return
	}

	var profile model.Doctor
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load profile", Err: err})
		return
	}

	if req.FirstName != "" {
		profile.FirstName = util.NormalizeName(req.FirstName)
	}
	if req.LastName != "" {
		profile.LastName = util.NormalizeName(req.LastName)
	}
	if req.Specialization != "" {
		profile.Specialization = req.Specialization
	}
	if req.LicenseNumber != "" {
		profile.LicenseNumber = req.LicenseNumber
	}

	saveProfileOrRespond(c, db, &profile)
}

func updateAdminProfile(c *gin.Context, db *gorm.DB, userID uint) {
	var req updateAdminProfileRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var profile model.Admin
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load profile", Err: err})
		return
	}

	if req.Permissions != nil {
		raw, err := jsonMarshal(req.Permissions)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid permissions document", Err: err})
			return
		}
		profile.Permissions = raw
	}

	saveProfileOrRespond(c, db, &profile)
}

func saveProfileOrRespond(c *gin.Context, db *gorm.DB, profile interface{}) {
	if err := db.Save(profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update profile", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Profile updated", Data: profile})
}

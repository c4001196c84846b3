package endpoint

import (
	"fmt"

	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListUnverifiedDoctors godoc
// @Summary      Doctors awaiting verification
// @Tags         Admin
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Doctors retrieved"
// @Router       /admin/doctors/unverified [get]
func ListUnverifiedDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctors []model.Doctor
	if err := db.Where("is_verified = ?", false).Order("created_at ASC").Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctors", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unverified doctors retrieved",
		Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
	})
}

type verifyDoctorBody struct {
	Action string `json:"action" binding:"required" example:"verify"`
	Reason string `json:"reason,omitempty"`
}

// VerifyDoctor godoc
// @Summary      Verify or reject a doctor's credentials
// @Description  action "verify" sets the verification flag, "reject" clears it; the reason is logged
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Doctor ID"
// @Param        request body verifyDoctorBody true "Verification decision"
// @Success      200 {object} util.APIResponse "Doctor updated"
// @Router       /admin/doctors/{id}/verify [post]
func VerifyDoctor(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctorID, ok := paramIDOrRedirect(c, "id")
	if !ok {
		return
	}

	var body verifyDoctorBody
	if !bindJSONOrRespond(c, &body, "Invalid request body") {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, doctorID).Error; err != nil {
		util.CallDashboardRedirect(c, "Doctor not found")
		return
	}

	switch body.Action {
	case "verify":
		doctor.IsVerified = true
	case "reject":
		doctor.IsVerified = false
	default:
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown action",
			Err: fmt.Errorf("action must be verify or reject"),
		})
		return
	}

	if err := db.Save(&doctor).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update doctor", Err: err})
		return
	}

	adminID, _ := middleware.GetUserID(c)
	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventDoctorVerified,
		UserID:    fmt.Sprintf("%d", adminID),
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Doctor %d %s by admin", doctor.ID, body.Action),
		Details:   map[string]interface{}{"doctor_id": doctor.ID, "action": body.Action, "reason": body.Reason},
	})

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor updated", Data: doctor})
}

// ListUsers godoc
// @Summary      List all accounts with role names
// @Tags         Admin
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Users retrieved"
// @Router       /admin/users [get]
func ListUsers(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var users []struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	err := db.Table("users").
		Select("users.id, users.email, roles.name as role").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.deleted_at IS NULL").
		Order("users.id ASC").
		Scan(&users).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve users", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Users retrieved",
		Data: map[string]interface{}{"total": len(users), "users": users},
	})
}

type assignCaregiverBody struct {
	CaregiverID   uint `json:"caregiver_id" binding:"required" example:"1"`
	ElderlyUserID uint `json:"elderly_user_id" binding:"required" example:"2"`
}

// AssignCaregiver godoc
// @Summary      Assign an elderly user to a caregiver
// @Description  Creates the assignment relation; assigning the same pair again is a no-op
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body assignCaregiverBody true "Assignment"
// @Success      200 {object} util.APIResponse "Assignment recorded"
// @Failure      400 {object} util.APIResponse "Caregiver or elderly user not found"
// @Router       /admin/assignments [post]
func AssignCaregiver(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var body assignCaregiverBody
	if !bindJSONOrRespond(c, &body, "Invalid request body") {
		return
	}

	var caregiver model.Caregiver
	if err := db.First(&caregiver, body.CaregiverID).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Caregiver not found", Err: err})
		return
	}
	var elderly model.ElderlyUser
	if err := db.First(&elderly, body.ElderlyUserID).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Elderly user not found", Err: err})
		return
	}

	var existing model.CaregiverAssignment
	err := db.Where("caregiver_id = ? AND elderly_user_id = ?", caregiver.ID, elderly.ID).First(&existing).Error
	if err == nil {
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg:  "Already assigned",
			Data: existing,
		})
		return
	}
	if err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to check assignment", Err: err})
		return
	}

	assignment := model.CaregiverAssignment{CaregiverID: caregiver.ID, ElderlyUserID: elderly.ID}
	if err := db.Create(&assignment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create assignment", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Assignment recorded", Data: assignment})
}

// GenerateReports godoc
// @Summary      Portal activity counts
// @Description  Users per role, requests per status, alerts per status and unpaid bills
// @Tags         Admin
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Report generated"
// @Router       /admin/reports [get]
func GenerateReports(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	usersPerRole, err := countGrouped(db, "users", "roles.name",
		"JOIN roles ON roles.id = users.role_id", "users.deleted_at IS NULL")
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count users", Err: err})
		return
	}

	requestsPerStatus, err := countGrouped(db, "service_requests", "status", "", "deleted_at IS NULL")
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count requests", Err: err})
		return
	}

	alertsPerStatus, err := countGrouped(db, "emergency_notifications", "status", "", "deleted_at IS NULL")
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count alerts", Err: err})
		return
	}

	var unpaidBills int64
	if err := db.Model(&model.Billing{}).Where("payment_status = ?", model.PaymentPending).Count(&unpaidBills).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count bills", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Report generated",
		Data: map[string]interface{}{
			"users_per_role":      usersPerRole,
			"requests_per_status": requestsPerStatus,
			"alerts_per_status":   alertsPerStatus,
			"unpaid_bills":        unpaidBills,
		},
	})
}

func countGrouped(db *gorm.DB, table, column, join, where string) (map[string]int64, error) {
	var rows []struct {
		Key   string `gorm:"column:grouping_key"`
		Count int64  `gorm:"column:total"`
	}
	query := db.Table(table).Select(fmt.Sprintf("%s as grouping_key, COUNT(*) as total", column))
	if join != "" {
		query = query.Joins(join)
	}
	if where != "" {
		query = query.Where(where)
	}
	if err := query.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

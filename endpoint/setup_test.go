package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eldercare/portal/config"
	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// EndpointTestModels defines the standard set of models migrated for endpoint tests
var EndpointTestModels = []interface{}{
	&model.Role{},
	&model.User{},
	&model.Session{},
	&model.ElderlyUser{},
	&model.Caregiver{},
	&model.CaregiverAssignment{},
	&model.Doctor{},
	&model.Admin{},
	&model.HealthRecord{},
	&model.ServiceRequest{},
	&model.Observation{},
	&model.Prescription{},
	&model.Billing{},
	&model.EmergencyNotification{},
	&model.FeedbackNotification{},
	&model.SecurityLog{},
}

// setupTestDB initializes a test database with all standard models migrated
// and the four roles seeded. Cleanup is registered via t.Cleanup().
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	t.Setenv("APPENV", "test")
	t.Setenv("JWTSECRET", "test-secret-123")
	util.SetJWTSecret("test-secret-123")

	db, err := config.ConnectMySQL()
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}

	if err := db.AutoMigrate(EndpointTestModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	for _, m := range EndpointTestModels {
		db.Where("1 = 1").Delete(m)
	}

	if err := model.SeedRoles(db); err != nil {
		t.Fatalf("seed roles failed: %v", err)
	}

	t.Cleanup(func() {
		for _, m := range EndpointTestModels {
			_ = db.Migrator().DropTable(m)
		}
	})

	return db
}

// setupEndpointTest returns a Gin engine and database connection configured
// for endpoint tests, with session authentication wired in.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	return r, db
}

// registerPortalRoutes wires the same route table the server uses.
func registerPortalRoutes(r *gin.Engine) {
	r.POST("/register", Register)
	r.POST("/login", Login)
	r.DELETE("/logout", Logout)
	r.GET("/token/validate", ValidateToken)

	authed := r.Group("/", middleware.Authenticated())
	authed.GET("/profile", GetProfile)
	authed.PATCH("/profile", UpdateProfile)

	elderly := authed.Group("/", middleware.RequireRoles(model.RoleElderly))
	elderly.POST("/service-request", CreateServiceRequest)
	elderly.GET("/service-requests", ListServiceRequests)
	elderly.GET("/health-records", GetHealthRecords)
	elderly.GET("/prescriptions", ListPrescriptions)
	elderly.GET("/billing", ListBills)
	elderly.POST("/billing/:id/pay", PayBill)
	elderly.GET("/notifications", ListNotifications)
	elderly.POST("/notifications/:id/read", MarkNotificationRead)
	elderly.POST("/emergency", EmergencyButton)

	doctor := authed.Group("/doctor", middleware.RequireRoles(model.RoleDoctor))
	doctor.GET("/requests", ListPendingRequests)
	doctor.POST("/requests/:id/accept", AcceptRequest)
	doctor.POST("/requests/:id/reject", RejectRequest)
	doctor.GET("/patients/:id/health-records", GetPatientHealthRecords)
	doctor.POST("/requests/:id/observations", RecordObservation)
	doctor.POST("/requests/:id/prescriptions", IssuePrescription)
	doctor.POST("/requests/:id/cost", SpecifyServiceCost)
	doctor.POST("/requests/:id/complete", CompleteSession)

	caregiver := authed.Group("/caregiver", middleware.RequireRoles(model.RoleCaregiver))
	caregiver.GET("/dashboard", CaregiverDashboard)
	caregiver.GET("/alerts", ListEmergencyAlerts)
	caregiver.POST("/alerts/:id/acknowledge", AcknowledgeEmergency)
	caregiver.POST("/alerts/:id/resolve", ResolveEmergency)
	caregiver.GET("/monitoring", MonitoringTools)
	caregiver.GET("/medications", MedicationManagement)
	caregiver.POST("/prescriptions/:id/complete", MarkPrescriptionCompleted)
	caregiver.GET("/appointments", ListAppointments)
	caregiver.POST("/appointments/:id/schedule", ScheduleAppointment)
	caregiver.GET("/assigned", ListAssignedElderly)

	admin := authed.Group("/admin", middleware.RequireRoles(model.RoleAdmin))
	admin.GET("/doctors/unverified", ListUnverifiedDoctors)
	admin.POST("/doctors/:id/verify", VerifyDoctor)
	admin.GET("/users", ListUsers)
	admin.POST("/assignments", AssignCaregiver)
	admin.GET("/reports", GenerateReports)
}

// createAccount inserts a user with the given role.
func createAccount(t *testing.T, db *gorm.DB, email, role string) model.User {
	t.Helper()

	roleID, err := model.RoleID(db, role)
	assert.NoError(t, err)

	salt, err := util.GenerateSalt()
	assert.NoError(t, err)
	hashed, err := util.HashPasswordArgon2("password123", salt)
	assert.NoError(t, err)

	user := model.User{
		Email:        email,
		Password:     hashed,
		PasswordSalt: salt,
		RoleID:       roleID,
	}
	assert.NoError(t, db.Create(&user).Error)
	return user
}

// openSession records a session row for the user and returns its token.
func openSession(t *testing.T, db *gorm.DB, user model.User) string {
	t.Helper()

	token := fmt.Sprintf("test-token-%d-%d", user.ID, time.Now().UnixNano())
	session := model.Session{
		UserID:       user.ID,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	assert.NoError(t, db.Create(&session).Error)
	return token
}

func createElderly(t *testing.T, db *gorm.DB, email string) (model.User, model.ElderlyUser, string) {
	t.Helper()
	user := createAccount(t, db, email, model.RoleElderly)
	profile := model.ElderlyUser{UserID: user.ID, FirstName: "Edna", LastName: "Miller"}
	assert.NoError(t, db.Create(&profile).Error)
	return user, profile, openSession(t, db, user)
}

func createCaregiver(t *testing.T, db *gorm.DB, email string) (model.User, model.Caregiver, string) {
	t.Helper()
	user := createAccount(t, db, email, model.RoleCaregiver)
	profile := model.Caregiver{UserID: user.ID, FirstName: "Carla", LastName: "Jones", Relationship: "Daughter"}
	assert.NoError(t, db.Create(&profile).Error)
	return user, profile, openSession(t, db, user)
}

func createDoctor(t *testing.T, db *gorm.DB, email, specialization string, verified bool) (model.User, model.Doctor, string) {
	t.Helper()
	user := createAccount(t, db, email, model.RoleDoctor)
	profile := model.Doctor{
		UserID:         user.ID,
		FirstName:      "Dana",
		LastName:       "Reed",
		Specialization: specialization,
		LicenseNumber:  fmt.Sprintf("LIC-%d", user.ID),
		IsVerified:     verified,
	}
	assert.NoError(t, db.Create(&profile).Error)
	return user, profile, openSession(t, db, user)
}

func createAdmin(t *testing.T, db *gorm.DB, email string) (model.User, model.Admin, string) {
	t.Helper()
	user := createAccount(t, db, email, model.RoleAdmin)
	profile := model.Admin{UserID: user.ID, Permissions: []byte(`{"manage_users":true}`)}
	assert.NoError(t, db.Create(&profile).Error)
	return user, profile, openSession(t, db, user)
}

func assignCaregiver(t *testing.T, db *gorm.DB, caregiver model.Caregiver, elderly model.ElderlyUser) {
	t.Helper()
	assert.NoError(t, db.Create(&model.CaregiverAssignment{
		CaregiverID:   caregiver.ID,
		ElderlyUserID: elderly.ID,
	}).Error)
}

// performJSON issues a request with an optional session token and JSON body.
func performJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("session-token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// assertStatus asserts that the response HTTP status code matches the expected value
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, w.Code)
}

// assertSuccessResponse asserts that the response indicates success with HTTP 200
func assertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, response map[string]interface{}) {
	t.Helper()
	assert.Equal(t, http.StatusOK, w.Code)
	if response == nil {
		return
	}
	if success, ok := response["success"].(bool); ok {
		assert.True(t, success)
	}
}

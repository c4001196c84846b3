// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/eldercare/portal/config"
	"github.com/eldercare/portal/endpoint"
	"github.com/eldercare/portal/middleware"
	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func migrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
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
	)
}

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	util.SetJWTSecret(os.Getenv("JWTSECRET"))

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := migrateModels(db); err != nil {
		log.Fatalf("Error migrating models: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		log.Fatalf("Error seeding roles: %v", err)
	}
	util.SetSecurityLoggerDB(db)

	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, sessions fall back to MySQL only: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "session-token"},
		AllowCredentials: false,
	}))
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	// Authentication
	router.POST("/register", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.Register)
	router.POST("/login", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.Login)
	router.DELETE("/logout", endpoint.Logout)
	router.GET("/token/validate", endpoint.ValidateToken)

	authed := router.Group("/", middleware.Authenticated())

	// Profile (any role)
	authed.GET("/profile", endpoint.GetProfile)
	authed.PATCH("/profile", endpoint.UpdateProfile)

	// Elderly
	elderly := authed.Group("/", middleware.RequireRoles(model.RoleElderly))
	elderly.POST("/service-request", endpoint.CreateServiceRequest)
	elderly.GET("/service-requests", endpoint.ListServiceRequests)
	elderly.GET("/health-records", endpoint.GetHealthRecords)
	elderly.GET("/prescriptions", endpoint.ListPrescriptions)
	elderly.GET("/billing", endpoint.ListBills)
	elderly.POST("/billing/:id/pay", endpoint.PayBill)
	elderly.GET("/notifications", endpoint.ListNotifications)
	elderly.POST("/notifications/:id/read", endpoint.MarkNotificationRead)
	elderly.POST("/emergency", endpoint.EmergencyButton)

	// Doctor
	doctor := authed.Group("/doctor", middleware.RequireRoles(model.RoleDoctor))
	doctor.GET("/requests", endpoint.ListPendingRequests)
	doctor.POST("/requests/:id/accept", endpoint.AcceptRequest)
	doctor.POST("/requests/:id/reject", endpoint.RejectRequest)
	doctor.GET("/patients/:id/health-records", endpoint.GetPatientHealthRecords)
	doctor.POST("/requests/:id/observations", endpoint.RecordObservation)
	doctor.POST("/requests/:id/prescriptions", endpoint.IssuePrescription)
	doctor.POST("/requests/:id/cost", endpoint.SpecifyServiceCost)
	doctor.POST("/requests/:id/complete", endpoint.CompleteSession)

	// Caregiver
	caregiver := authed.Group("/caregiver", middleware.RequireRoles(model.RoleCaregiver))
	caregiver.GET("/dashboard", endpoint.CaregiverDashboard)
	caregiver.GET("/alerts", endpoint.ListEmergencyAlerts)
	caregiver.POST("/alerts/:id/acknowledge", endpoint.AcknowledgeEmergency)
	caregiver.POST("/alerts/:id/resolve", endpoint.ResolveEmergency)
	caregiver.GET("/monitoring", endpoint.MonitoringTools)
	caregiver.GET("/medications", endpoint.MedicationManagement)
	caregiver.POST("/prescriptions/:id/complete", endpoint.MarkPrescriptionCompleted)
	caregiver.GET("/appointments", endpoint.ListAppointments)
	caregiver.POST("/appointments/:id/schedule", endpoint.ScheduleAppointment)
	caregiver.GET("/assigned", endpoint.ListAssignedElderly)

	// Admin
	admin := authed.Group("/admin", middleware.RequireRoles(model.RoleAdmin))
	admin.GET("/doctors/unverified", endpoint.ListUnverifiedDoctors)
	admin.POST("/doctors/:id/verify", endpoint.VerifyDoctor)
	admin.GET("/users", endpoint.ListUsers)
	admin.POST("/assignments", endpoint.AssignCaregiver)
	admin.GET("/reports", endpoint.GenerateReports)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

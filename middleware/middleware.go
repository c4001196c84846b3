package middleware

import (
	"fmt"
	"time"

	"github.com/eldercare/portal/model"
	"github.com/eldercare/portal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the middlewares below.
const (
	ContextKeyDB     = "db"
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
	ContextKeyEmail  = "email"
)

// DatabaseMiddleware injects the gorm DB handle into the request context.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyDB, db)
		c.Next()
	}
}

// GetDB returns the DB handle stored by DatabaseMiddleware, or nil.
func GetDB(c *gin.Context) *gorm.DB {
	value, exists := c.Get(ContextKeyDB)
	if !exists {
		return nil
	}
	db, ok := value.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// GetUserID returns the authenticated account ID, if any.
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// GetRole returns the authenticated account's role name, if any.
func GetRole(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

// SessionIdentity is the result of resolving a session token: the account
// and its role name, computed once per request.
type SessionIdentity struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// ResolveSession joins sessions, users and roles for a non-expired token.
// Returns gorm.ErrRecordNotFound when the token does not resolve.
func ResolveSession(db *gorm.DB, sessionToken string) (SessionIdentity, error) {
	var identity SessionIdentity
	err := db.Table("sessions").
		Select("users.id as user_id, users.email as email, roles.name as role").
		Joins("JOIN users ON sessions.user_id = users.id").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("session_token = ? AND expires_at > ? AND sessions.deleted_at IS NULL", sessionToken, time.Now()).
		Scan(&identity).Error
	if err != nil {
		return SessionIdentity{}, err
	}
	if identity.UserID == 0 {
		return SessionIdentity{}, gorm.ErrRecordNotFound
	}
	return identity, nil
}

// Authenticated resolves the session-token header into the account identity
// and stores user id, email and role in the context. Handlers and RequireRoles
// branch on that single resolved role rather than re-checking profiles.
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := c.GetHeader("session-token")
		if sessionToken == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session token not provided",
				Err: fmt.Errorf("session token not provided"),
			})
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		identity, err := ResolveSession(db, sessionToken)
		if err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid or expired session token",
				Err: fmt.Errorf("session not found"),
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, identity.UserID)
		c.Set(ContextKeyEmail, identity.Email)
		c.Set(ContextKeyRole, identity.Role)
		c.Next()
	}
}

// RequireRoles lets the request through only when the resolved role is one of
// the given names. Wrong-role access falls through to a dashboard redirect,
// never a visible error, and is recorded in the security log.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if ok && util.Contains(role, roles) {
			c.Next()
			return
		}
		userID, _ := GetUserID(c)
		util.LogUnauthorizedAccess(userID, c.ClientIP(), c.Request.URL.Path)
		util.CallDashboardRedirect(c, "Not available for this role")
		c.Abort()
	}
}

// profileFor loads the role profile ID for the account; used by handlers that
// scope queries to the acting profile.
func profileFor(db *gorm.DB, dest interface{}, userID uint) error {
	return db.Where("user_id = ?", userID).First(dest).Error
}

// GetElderlyProfile loads the elderly profile of the authenticated account.
func GetElderlyProfile(c *gin.Context, db *gorm.DB) (model.ElderlyUser, error) {
	userID, _ := GetUserID(c)
	var profile model.ElderlyUser
	err := profileFor(db, &profile, userID)
	return profile, err
}

// GetCaregiverProfile loads the caregiver profile of the authenticated account.
func GetCaregiverProfile(c *gin.Context, db *gorm.DB) (model.Caregiver, error) {
	userID, _ := GetUserID(c)
	var profile model.Caregiver
	err := profileFor(db, &profile, userID)
	return profile, err
}

// GetDoctorProfile loads the doctor profile of the authenticated account.
func GetDoctorProfile(c *gin.Context, db *gorm.DB) (model.Doctor, error) {
	userID, _ := GetUserID(c)
	var profile model.Doctor
	err := profileFor(db, &profile, userID)
	return profile, err
}

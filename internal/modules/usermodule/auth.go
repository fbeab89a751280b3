package usermodule

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// createUser creates a user row and its profile in one transaction. The
// profile lifecycle is tied to user creation explicitly rather than through
// any implicit hook, so it is auditable here and only here.
func (m *Module) createUser(username, password string, superuser bool) (*database.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Username:     username,
		PasswordHash: string(hash),
		IsSuperuser:  superuser,
	}
	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		// IsAdmin mirrors the superuser flag at creation time only. It is a
		// display field; authorization always checks User.IsSuperuser.
		profile := &database.Profile{
			OwnerID: user.ID,
			Name:    username,
			IsAdmin: user.IsSuperuser,
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// register handles POST /api/auth/register
func (m *Module) register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > 150 {
		webutil.AbortValidation(c, "Username is required and must be at most 150 characters.")
		return
	}
	if len(req.Password) < 8 {
		webutil.AbortValidation(c, "Password must be at least 8 characters.")
		return
	}

	user, err := m.createUser(req.Username, req.Password, false)
	if err != nil {
		if database.IsUniqueViolation(err) {
			webutil.AbortValidation(c, "A user with that username already exists.")
			return
		}
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventUserCreated, fmt.Sprint(user.ID),
		"User Registered", fmt.Sprintf("User %s registered", user.Username)))

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// login handles POST /api/auth/login
func (m *Module) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}

	var user database.User
	if err := m.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			webutil.AbortValidation(c, "Invalid username or password.")
			return
		}
		webutil.AbortWithError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		webutil.AbortValidation(c, "Invalid username or password.")
		return
	}

	token := &database.AuthToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(m.tokenTTL),
	}
	if err := m.db.Create(token).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventUserLoggedIn, fmt.Sprint(user.ID),
		"User Logged In", fmt.Sprintf("User %s logged in", user.Username)))

	c.JSON(http.StatusOK, gin.H{
		"token":    token.Token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// logout handles POST /api/auth/logout, revoking the presented token
func (m *Module) logout(c *gin.Context) {
	caller := webutil.Caller(c)
	if caller == nil {
		webutil.AbortWithError(c, policy.ErrForbidden)
		return
	}
	token := BearerToken(c)
	if token != "" {
		if err := m.db.Where("token = ?", token).Delete(&database.AuthToken{}).Error; err != nil {
			webutil.AbortWithError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// BearerToken extracts the bearer token from the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// ResolveToken looks up a bearer token and returns the caller identity, or
// nil when the token is unknown or expired. Used by the server auth
// middleware.
func ResolveToken(db *gorm.DB, token string) *policy.Identity {
	if token == "" {
		return nil
	}
	var authToken database.AuthToken
	err := db.Preload("User").Where("token = ?", token).First(&authToken).Error
	if err != nil {
		return nil
	}
	if time.Now().After(authToken.ExpiresAt) {
		return nil
	}
	return &policy.Identity{
		UserID:      authToken.User.ID,
		Username:    authToken.User.Username,
		IsSuperuser: authToken.User.IsSuperuser,
	}
}

package usermodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/aggregates"
	"github.com/reelist/reelist/internal/apiroutes"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/relationship"
	"github.com/reelist/reelist/internal/webutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
	module *Module
	router *gin.Engine
	caller *policy.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	env := &testEnv{db: db}
	env.module = &Module{
		db:         db,
		aggs:       aggregates.New(db),
		engine:     relationship.NewEngine(db),
		tokenTTL:   time.Hour,
		bcryptCost: bcrypt.MinCost,
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if env.caller != nil {
			c.Set(webutil.IdentityKey, env.caller)
		}
		c.Next()
	})
	env.module.RegisterRoutes(r)
	t.Cleanup(apiroutes.ClearForTesting)

	env.router = r
	return env
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRegisterCreatesProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "correcthorse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user database.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	assert.False(t, user.IsSuperuser)

	// The profile is created in the same transaction as the user
	var profile database.Profile
	require.NoError(t, env.db.Where("owner_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, "alice", profile.Name)
	assert.False(t, profile.IsAdmin)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "correcthorse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "batterystaple",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A user with that username already exists.", resp["detail"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "", "password": "correcthorse",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndResolveToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "correcthorse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice", "password": "correcthorse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.Username)

	identity := ResolveToken(env.db, resp.Token)
	require.NotNil(t, identity)
	assert.Equal(t, "alice", identity.Username)
	assert.False(t, identity.IsSuperuser)

	assert.Nil(t, ResolveToken(env.db, "no-such-token"))
	assert.Nil(t, ResolveToken(env.db, ""))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "correcthorse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "nobody", "password": "correcthorse",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveTokenExpired(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.module.createUser("alice", "correcthorse", false)
	require.NoError(t, err)

	token := &database.AuthToken{
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.db.Create(token).Error)

	assert.Nil(t, ResolveToken(env.db, "expired-token"))
}

func TestUpdateProfilePermissions(t *testing.T) {
	env := newTestEnv(t)

	alice, err := env.module.createUser("alice", "correcthorse", false)
	require.NoError(t, err)
	bob, err := env.module.createUser("bob", "correcthorse", false)
	require.NoError(t, err)

	var profile database.Profile
	require.NoError(t, env.db.Where("owner_id = ?", alice.ID).First(&profile).Error)

	env.caller = &policy.Identity{UserID: bob.ID, Username: "bob"}
	w := env.request(t, http.MethodPut, fmt.Sprintf("/api/profiles/%d", profile.ID), gin.H{
		"description": "not yours",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.caller = &policy.Identity{UserID: alice.ID, Username: "alice"}
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/profiles/%d", profile.ID), gin.H{
		"description":    "cinephile",
		"favorite_genre": "drama",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated database.Profile
	require.NoError(t, env.db.First(&updated, profile.ID).Error)
	assert.Equal(t, "cinephile", updated.Description)
	assert.Equal(t, "drama", updated.FavoriteGenre)
}

func TestUpdateProfileRejectsBadGenre(t *testing.T) {
	env := newTestEnv(t)

	alice, err := env.module.createUser("alice", "correcthorse", false)
	require.NoError(t, err)

	var profile database.Profile
	require.NoError(t, env.db.Where("owner_id = ?", alice.ID).First(&profile).Error)

	env.caller = &policy.Identity{UserID: alice.ID, Username: "alice"}
	w := env.request(t, http.MethodPut, fmt.Sprintf("/api/profiles/%d", profile.ID), gin.H{
		"favorite_genre": "polka",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowFlow(t *testing.T) {
	env := newTestEnv(t)

	alice, err := env.module.createUser("alice", "correcthorse", false)
	require.NoError(t, err)
	bob, err := env.module.createUser("bob", "correcthorse", false)
	require.NoError(t, err)

	env.caller = &policy.Identity{UserID: alice.ID, Username: "alice"}

	w := env.request(t, http.MethodPost, "/api/followers", gin.H{"followed": bob.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice", created["owner"])
	assert.Equal(t, "bob", created["followed_name"])

	// Duplicate follows are rejected
	w = env.request(t, http.MethodPost, "/api/followers", gin.H{"followed": bob.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You are already following this user.", resp["detail"])

	// Self-follows are rejected
	w = env.request(t, http.MethodPost, "/api/followers", gin.H{"followed": alice.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bob's profile shows the relationship from alice's point of view
	var bobProfile database.Profile
	require.NoError(t, env.db.Where("owner_id = ?", bob.ID).First(&bobProfile).Error)
	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/profiles/%d", bobProfile.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp["following_id"])
	assert.Equal(t, float64(1), resp["followers_count"])
}

func TestUnfollowOwnerOnly(t *testing.T) {
	env := newTestEnv(t)

	alice, err := env.module.createUser("alice", "correcthorse", false)
	require.NoError(t, err)
	bob, err := env.module.createUser("bob", "correcthorse", false)
	require.NoError(t, err)

	follow := database.Follower{OwnerID: alice.ID, FollowedID: bob.ID}
	require.NoError(t, env.db.Create(&follow).Error)

	// Not even the followed user can remove someone else's follow
	env.caller = &policy.Identity{UserID: bob.ID, Username: "bob"}
	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/followers/%d", follow.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.caller = &policy.Identity{UserID: alice.ID, Username: "alice"}
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/followers/%d", follow.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

package trackingmodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/relationship"
	"github.com/reelist/reelist/internal/webutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
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
	m := &Module{db: db, engine: relationship.NewEngine(db)}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if env.caller != nil {
			c.Set(webutil.IdentityKey, env.caller)
		}
		c.Next()
	})
	m.RegisterRoutes(r)
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

func (e *testEnv) seed(t *testing.T) (*database.User, *database.Movie) {
	t.Helper()
	user := &database.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, e.db.Create(user).Error)
	movie := &database.Movie{OwnerID: user.ID, Title: "Cléo from 5 to 7", ReleaseYear: 1962}
	require.NoError(t, e.db.Create(movie).Error)
	return user, movie
}

func identityFor(user *database.User) *policy.Identity {
	return &policy.Identity{UserID: user.ID, Username: user.Username, IsSuperuser: user.IsSuperuser}
}

func TestMarkSeenConvertsWatchlist(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/watchlist", gin.H{"movie": movie.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(t, http.MethodPost, "/api/seen", gin.H{"movie": movie.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var watchlistCount int64
	require.NoError(t, env.db.Model(&database.Watchlist{}).Count(&watchlistCount).Error)
	assert.Zero(t, watchlistCount)
}

func TestMarkSeenDuplicate(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/seen", gin.H{"movie": movie.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/seen", gin.H{"movie": movie.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You have already marked this movie as seen.", resp["detail"])
}

func TestSeenAnonymousForbidden(t *testing.T) {
	env := newTestEnv(t)
	_, movie := env.seed(t)

	w := env.request(t, http.MethodPost, "/api/seen", gin.H{"movie": movie.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteSeenOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	admin := &database.User{Username: "root", PasswordHash: "x", IsSuperuser: true}
	require.NoError(t, env.db.Create(admin).Error)

	seen := &database.Seen{OwnerID: user.ID, MovieID: movie.ID}
	require.NoError(t, env.db.Create(seen).Error)

	// Personal tracking marks have no admin override
	env.caller = identityFor(admin)
	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/seen/%d", seen.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.caller = identityFor(user)
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/seen/%d", seen.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWatchlistRetractsSeenAndRating(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	require.NoError(t, env.db.Create(&database.Seen{OwnerID: user.ID, MovieID: movie.ID}).Error)
	require.NoError(t, env.db.Create(&database.Rating{OwnerID: user.ID, MovieID: movie.ID, Value: 4}).Error)

	w := env.request(t, http.MethodPost, "/api/watchlist", gin.H{"movie": movie.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var seenCount, ratingCount int64
	require.NoError(t, env.db.Model(&database.Seen{}).Count(&seenCount).Error)
	require.NoError(t, env.db.Model(&database.Rating{}).Count(&ratingCount).Error)
	assert.Zero(t, seenCount)
	assert.Zero(t, ratingCount)
}

func TestWatchlistDuplicate(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/watchlist", gin.H{"movie": movie.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/watchlist", gin.H{"movie": movie.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	admin := &database.User{Username: "root", PasswordHash: "x", IsSuperuser: true}
	require.NoError(t, env.db.Create(admin).Error)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/reports", gin.H{
		"movie": movie.ID, "content": "wrong release year",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	reportID := created["id"].(float64)

	// A second report while one is open is rejected
	w = env.request(t, http.MethodPost, "/api/reports", gin.H{
		"movie": movie.ID, "content": "another problem",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You already reported an error in this movie.", resp["detail"])

	// Only admins resolve reports
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/reports/%v", reportID), gin.H{"is_closed": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.caller = identityFor(admin)
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/reports/%v", reportID), gin.H{"is_closed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Once closed, a new report replaces it
	env.caller = identityFor(user)
	w = env.request(t, http.MethodPost, "/api/reports", gin.H{
		"movie": movie.ID, "content": "still the wrong year",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var count int64
	require.NoError(t, env.db.Model(&database.Report{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteReportAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	admin := &database.User{Username: "root", PasswordHash: "x", IsSuperuser: true}
	require.NoError(t, env.db.Create(admin).Error)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/reports", gin.H{
		"movie": movie.ID, "content": "duplicate entry for this movie",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	reportID := created["id"].(float64)

	// Reporters cannot withdraw their own report
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/reports/%v", reportID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&database.Report{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	env.caller = identityFor(admin)
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/reports/%v", reportID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	require.NoError(t, env.db.Model(&database.Report{}).Count(&count).Error)
	assert.Zero(t, count)
}

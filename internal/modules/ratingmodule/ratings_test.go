package ratingmodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/aggregates"
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
	m := &Module{db: db, aggs: aggregates.New(db), engine: relationship.NewEngine(db)}

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
	movie := &database.Movie{OwnerID: user.ID, Title: "Vagabond", ReleaseYear: 1985}
	require.NoError(t, e.db.Create(movie).Error)
	return user, movie
}

func identityFor(user *database.User) *policy.Identity {
	return &policy.Identity{UserID: user.ID, Username: user.Username, IsSuperuser: user.IsSuperuser}
}

func TestCreateRating(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/ratings", gin.H{
		"movie": movie.ID, "value": 4, "content": "quiet and devastating",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(4), resp["value"])
	assert.Equal(t, "Vagabond", resp["movie_title"])
	assert.Equal(t, true, resp["is_owner"])

	// Rating implies seen
	var seenCount int64
	require.NoError(t, env.db.Model(&database.Seen{}).
		Where("owner_id = ? AND movie_id = ?", user.ID, movie.ID).
		Count(&seenCount).Error)
	assert.Equal(t, int64(1), seenCount)
}

func TestCreateRatingDuplicate(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	w := env.request(t, http.MethodPost, "/api/ratings", gin.H{"movie": movie.ID, "value": 4})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/ratings", gin.H{"movie": movie.ID, "value": 2})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You have already rated this movie.", resp["detail"])
}

func TestCreateRatingValidation(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	for _, value := range []int{0, 6, -1} {
		w := env.request(t, http.MethodPost, "/api/ratings", gin.H{"movie": movie.ID, "value": value})
		assert.Equal(t, http.StatusBadRequest, w.Code, "value %d", value)
	}

	w := env.request(t, http.MethodPost, "/api/ratings", gin.H{"movie": 9999, "value": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRatingPermissions(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	other := &database.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, env.db.Create(other).Error)

	rating := &database.Rating{OwnerID: user.ID, MovieID: movie.ID, Value: 3}
	require.NoError(t, env.db.Create(rating).Error)

	// A non-owner may not edit, and the value stays put
	env.caller = identityFor(other)
	w := env.request(t, http.MethodPut, fmt.Sprintf("/api/ratings/%d", rating.ID), gin.H{"value": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var unchanged database.Rating
	require.NoError(t, env.db.First(&unchanged, rating.ID).Error)
	assert.Equal(t, 3, unchanged.Value)

	env.caller = identityFor(user)
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/ratings/%d", rating.ID), gin.H{"value": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated database.Rating
	require.NoError(t, env.db.First(&updated, rating.ID).Error)
	assert.Equal(t, 5, updated.Value)
}

func TestDeleteRatingRemovesComments(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	rating := &database.Rating{OwnerID: user.ID, MovieID: movie.ID, Value: 3}
	require.NoError(t, env.db.Create(rating).Error)
	require.NoError(t, env.db.Create(&database.RatingComment{
		OwnerID: user.ID, RatingID: rating.ID, Content: "agreed",
	}).Error)

	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/ratings/%d", rating.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var commentCount int64
	require.NoError(t, env.db.Model(&database.RatingComment{}).Count(&commentCount).Error)
	assert.Zero(t, commentCount)
}

func TestRatingComments(t *testing.T) {
	env := newTestEnv(t)
	user, movie := env.seed(t)
	env.caller = identityFor(user)

	rating := &database.Rating{OwnerID: user.ID, MovieID: movie.ID, Value: 3}
	require.NoError(t, env.db.Create(rating).Error)

	w := env.request(t, http.MethodPost, "/api/ratingcomments", gin.H{
		"rating": rating.ID, "content": "well put",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Comment on a missing rating is a 404
	w = env.request(t, http.MethodPost, "/api/ratingcomments", gin.H{
		"rating": 9999, "content": "void",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The rating payload carries the comment count
	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/ratings/%d", rating.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["comments_count"])
}

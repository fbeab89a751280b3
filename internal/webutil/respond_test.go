package webutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/relationship"
	"github.com/stretchr/testify/assert"
)

func run(handler gin.HandlerFunc, path, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(path, handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestAbortWithErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{policy.ErrForbidden, http.StatusForbidden},
		{relationship.ErrAlreadyRated, http.StatusBadRequest},
		{relationship.ErrSelfFollow, http.StatusBadRequest},
		{database.ErrNotFound, http.StatusNotFound},
		{errors.New("UNIQUE constraint failed: users.username"), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := run(func(c *gin.Context) { AbortWithError(c, tc.err) }, "/x", "/x")
		assert.Equal(t, tc.code, w.Code, "error: %v", tc.err)
	}
}

func TestDuplicateDetailPassedThrough(t *testing.T) {
	w := run(func(c *gin.Context) { AbortWithError(c, relationship.ErrAlreadyRated) }, "/x", "/x")
	assert.Contains(t, w.Body.String(), "You have already rated this movie.")
}

func TestParseID(t *testing.T) {
	w := run(func(c *gin.Context) {
		id, ok := ParseID(c, "id")
		if ok {
			c.JSON(http.StatusOK, gin.H{"id": id})
		}
	}, "/x/:id", "/x/42")
	assert.Equal(t, http.StatusOK, w.Code)

	w = run(func(c *gin.Context) {
		if _, ok := ParseID(c, "id"); !ok {
			return
		}
		c.Status(http.StatusOK)
	}, "/x/:id", "/x/notanumber")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParsePagination(t *testing.T) {
	check := func(target string, wantLimit, wantOffset int) {
		run(func(c *gin.Context) {
			limit, offset := ParsePagination(c)
			assert.Equal(t, wantLimit, limit, target)
			assert.Equal(t, wantOffset, offset, target)
			c.Status(http.StatusOK)
		}, "/x", target)
	}

	check("/x", 50, 0)
	check("/x?limit=10&offset=20", 10, 20)
	check("/x?limit=9999", 50, 0)
	check("/x?limit=-1&offset=-5", 50, 0)
	check("/x?limit=abc", 50, 0)
}

func TestCallerAbsent(t *testing.T) {
	run(func(c *gin.Context) {
		assert.Nil(t, Caller(c))
		c.Status(http.StatusOK)
	}, "/x", "/x")
}

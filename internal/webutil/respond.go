// Package webutil holds the shared request/response plumbing used by every
// resource module: caller identity extraction, id and pagination parsing,
// and the mapping from core errors to HTTP status codes.
package webutil

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/relationship"
)

// IdentityKey is the gin context key under which the auth middleware stores
// the resolved caller identity.
const IdentityKey = "reelist.identity"

// Caller returns the authenticated caller identity, or nil for anonymous
func Caller(c *gin.Context) *policy.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*policy.Identity)
	if !ok {
		return nil
	}
	return identity
}

// AbortWithError translates a core error into the HTTP response contract:
// validation and duplicates map to 400, permission denials to 403 (anonymous
// included), missing entities to 404, everything else to 500.
func AbortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, policy.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, relationship.ErrDuplicateRelationship):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, relationship.ErrSelfFollow):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case database.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case database.IsUniqueViolation(err):
		// A constraint race that slipped past the engine is still a duplicate
		// from the caller's point of view, never a server error.
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Duplicate entry."})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}

// AbortValidation reports a failed input validation
func AbortValidation(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail})
}

// ParseID parses a numeric path parameter, aborting with 404 when malformed.
// An unparseable id can never resolve to an existing resource.
func ParseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return uint(id), true
}

// ParsePagination reads limit/offset query parameters with defaults
func ParsePagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

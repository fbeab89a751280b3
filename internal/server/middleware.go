package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/modules/usermodule"
	"github.com/reelist/reelist/internal/webutil"
	"gorm.io/gorm"
)

// corsMiddleware allows cross-origin requests from browser frontends
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware resolves the bearer token, if any, into a caller identity.
// Requests without a valid token proceed anonymously; the per-operation
// permission checks decide what anonymous callers may do.
func authMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := usermodule.BearerToken(c); token != "" {
			if identity := usermodule.ResolveToken(db, token); identity != nil {
				c.Set(webutil.IdentityKey, identity)
			}
		}
		c.Next()
	}
}

package usermodule

import (
	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
)

// RegisterRoutes mounts the user module endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", m.register)
		auth.POST("/login", m.login)
		auth.POST("/logout", m.logout)
	}

	profiles := router.Group("/api/profiles")
	{
		profiles.GET("", m.listProfiles)
		profiles.GET("/:id", m.getProfile)
		profiles.PUT("/:id", m.updateProfile)
	}

	followers := router.Group("/api/followers")
	{
		followers.GET("", m.listFollowers)
		followers.POST("", m.createFollower)
		followers.DELETE("/:id", m.deleteFollower)
	}

	apiroutes.Register("/api/auth/register", "POST", "Create a new account with its profile.")
	apiroutes.Register("/api/auth/login", "POST", "Exchange credentials for a bearer token.")
	apiroutes.Register("/api/auth/logout", "POST", "Revoke the presented bearer token.")
	apiroutes.Register("/api/profiles", "GET", "List user profiles with derived counts.")
	apiroutes.Register("/api/profiles/:id", "GET", "Retrieve a profile.")
	apiroutes.Register("/api/profiles/:id", "PUT", "Update a profile (owner or admin).")
	apiroutes.Register("/api/followers", "GET", "List follower relationships.")
	apiroutes.Register("/api/followers", "POST", "Follow a user.")
	apiroutes.Register("/api/followers/:id", "DELETE", "Unfollow (owner only).")
}

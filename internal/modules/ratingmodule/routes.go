package ratingmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
)

// RegisterRoutes mounts the rating module endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	ratings := router.Group("/api/ratings")
	{
		ratings.GET("", m.listRatings)
		ratings.POST("", m.createRating)
		ratings.GET("/:id", m.getRating)
		ratings.PUT("/:id", m.updateRating)
		ratings.DELETE("/:id", m.deleteRating)
	}

	comments := router.Group("/api/ratingcomments")
	{
		comments.GET("", m.listComments)
		comments.POST("", m.createComment)
		comments.GET("/:id", m.getComment)
		comments.PUT("/:id", m.updateComment)
		comments.DELETE("/:id", m.deleteComment)
	}

	apiroutes.Register("/api/ratings", "GET", "List ratings with movie and owner filters.")
	apiroutes.Register("/api/ratings", "POST", "Rate a movie (authenticated, one rating per movie).")
	apiroutes.Register("/api/ratings/:id", "GET", "Retrieve a rating.")
	apiroutes.Register("/api/ratings/:id", "PUT", "Update a rating (owner or admin).")
	apiroutes.Register("/api/ratings/:id", "DELETE", "Delete a rating (owner or admin).")
	apiroutes.Register("/api/ratingcomments", "GET", "List rating comments.")
	apiroutes.Register("/api/ratingcomments", "POST", "Comment on a rating (authenticated).")
	apiroutes.Register("/api/ratingcomments/:id", "GET", "Retrieve a rating comment.")
	apiroutes.Register("/api/ratingcomments/:id", "PUT", "Update a rating comment (owner or admin).")
	apiroutes.Register("/api/ratingcomments/:id", "DELETE", "Delete a rating comment (owner or admin).")
}

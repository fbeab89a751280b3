package listmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
)

// RegisterRoutes mounts the list module endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	lists := router.Group("/api/lists")
	{
		lists.GET("", m.listLists)
		lists.POST("", m.createList)
		lists.GET("/:id", m.getList)
		lists.PUT("/:id", m.updateList)
		lists.DELETE("/:id", m.deleteList)
	}

	comments := router.Group("/api/listcomments")
	{
		comments.GET("", m.listComments)
		comments.POST("", m.createComment)
		comments.GET("/:id", m.getComment)
		comments.PUT("/:id", m.updateComment)
		comments.DELETE("/:id", m.deleteComment)
	}

	apiroutes.Register("/api/lists", "GET", "List movie lists with owner, title and movie filters.")
	apiroutes.Register("/api/lists", "POST", "Create a movie list (authenticated).")
	apiroutes.Register("/api/lists/:id", "GET", "Retrieve a movie list with its members.")
	apiroutes.Register("/api/lists/:id", "PUT", "Update a movie list (owner or admin).")
	apiroutes.Register("/api/lists/:id", "DELETE", "Delete a movie list (owner or admin).")
	apiroutes.Register("/api/listcomments", "GET", "List comments on movie lists.")
	apiroutes.Register("/api/listcomments", "POST", "Comment on a movie list (authenticated).")
	apiroutes.Register("/api/listcomments/:id", "GET", "Retrieve a list comment.")
	apiroutes.Register("/api/listcomments/:id", "PUT", "Update a list comment (owner or admin).")
	apiroutes.Register("/api/listcomments/:id", "DELETE", "Delete a list comment (owner or admin).")
}

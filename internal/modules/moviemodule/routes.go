package moviemodule

import (
	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
)

// RegisterRoutes mounts the movie module endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	movies := router.Group("/api/movies")
	{
		movies.GET("", m.listMovies)
		movies.POST("", m.createMovie)
		movies.GET("/:id", m.getMovie)
		movies.PUT("/:id", m.updateMovie)
		movies.DELETE("/:id", m.deleteMovie)
	}

	directors := router.Group("/api/directors")
	{
		directors.GET("", m.listDirectors)
		directors.POST("", m.createDirector)
		directors.GET("/:id", m.getDirector)
		directors.DELETE("/:id", m.deleteDirector)
	}

	actors := router.Group("/api/actors")
	{
		actors.GET("", m.listActors)
		actors.POST("", m.createActor)
		actors.GET("/:id", m.getActor)
		actors.DELETE("/:id", m.deleteActor)
	}

	apiroutes.Register("/api/movies", "GET", "List movies with search, filters and popularity ordering.")
	apiroutes.Register("/api/movies", "POST", "Add a movie to the catalogue (authenticated).")
	apiroutes.Register("/api/movies/:id", "GET", "Retrieve a movie with derived fields.")
	apiroutes.Register("/api/movies/:id", "PUT", "Update a movie (admins only).")
	apiroutes.Register("/api/movies/:id", "DELETE", "Delete a movie and its relationships (admins only).")
	apiroutes.Register("/api/directors", "GET", "List directors.")
	apiroutes.Register("/api/directors", "POST", "Create a director (admins only).")
	apiroutes.Register("/api/directors/:id", "GET", "Retrieve a director with filmography.")
	apiroutes.Register("/api/directors/:id", "DELETE", "Delete a director (admins only).")
	apiroutes.Register("/api/actors", "GET", "List actors.")
	apiroutes.Register("/api/actors", "POST", "Create an actor (admins only).")
	apiroutes.Register("/api/actors/:id", "GET", "Retrieve an actor with filmography.")
	apiroutes.Register("/api/actors/:id", "DELETE", "Delete an actor (admins only).")
}

package moviemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
)

// Crew entities are admin-curated reference data shared across movies.

// movieSummaries renders the compact filmography entries on crew detail pages.
func movieSummaries(movies []database.Movie) []gin.H {
	out := make([]gin.H, 0, len(movies))
	for i := range movies {
		out = append(out, gin.H{
			"id":           movies[i].ID,
			"title":        movies[i].Title,
			"release_year": movies[i].ReleaseYear,
			"poster":       movies[i].Poster,
		})
	}
	return out
}

// listDirectors handles GET /api/directors
func (m *Module) listDirectors(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Director{}).Order("name")
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var directors []database.Director
	if err := query.Limit(limit).Offset(offset).Find(&directors).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": directors, "count": total})
}

// createDirector handles POST /api/directors (admins only)
func (m *Module) createDirector(c *gin.Context) {
	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		webutil.AbortValidation(c, "Name is required.")
		return
	}

	director := &database.Director{Name: req.Name}
	if err := m.db.Create(director).Error; err != nil {
		if database.IsUniqueViolation(err) {
			webutil.AbortValidation(c, "A director with that name already exists.")
			return
		}
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, director)
}

// getDirector handles GET /api/directors/:id
func (m *Module) getDirector(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var director database.Director
	if err := m.db.First(&director, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var movies []database.Movie
	err := m.db.
		Joins("JOIN movie_directors md ON md.movie_id = movies.id").
		Where("md.director_id = ?", director.ID).
		Order("movies.release_year").
		Find(&movies).Error
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": director.ID, "name": director.Name, "movies": movieSummaries(movies)})
}

// deleteDirector handles DELETE /api/directors/:id (admins only)
func (m *Module) deleteDirector(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}
	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var director database.Director
	if err := m.db.First(&director, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	if err := m.db.Exec("DELETE FROM movie_directors WHERE director_id = ?", director.ID).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	if err := m.db.Delete(&director).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listActors handles GET /api/actors
func (m *Module) listActors(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Actor{}).Order("name")
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var actors []database.Actor
	if err := query.Limit(limit).Offset(offset).Find(&actors).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": actors, "count": total})
}

// createActor handles POST /api/actors (admins only)
func (m *Module) createActor(c *gin.Context) {
	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		webutil.AbortValidation(c, "Name is required.")
		return
	}

	actor := &database.Actor{Name: req.Name}
	if err := m.db.Create(actor).Error; err != nil {
		if database.IsUniqueViolation(err) {
			webutil.AbortValidation(c, "An actor with that name already exists.")
			return
		}
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, actor)
}

// getActor handles GET /api/actors/:id
func (m *Module) getActor(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var actor database.Actor
	if err := m.db.First(&actor, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var movies []database.Movie
	err := m.db.
		Joins("JOIN movie_cast mc ON mc.movie_id = movies.id").
		Where("mc.actor_id = ?", actor.ID).
		Order("movies.release_year").
		Find(&movies).Error
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": actor.ID, "name": actor.Name, "movies": movieSummaries(movies)})
}

// deleteActor handles DELETE /api/actors/:id (admins only)
func (m *Module) deleteActor(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}
	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var actor database.Actor
	if err := m.db.First(&actor, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	if err := m.db.Exec("DELETE FROM movie_cast WHERE actor_id = ?", actor.ID).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	if err := m.db.Delete(&actor).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

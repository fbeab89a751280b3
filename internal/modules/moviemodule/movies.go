package moviemodule

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
	"gorm.io/gorm"
)

// The catalogue accepts releases from the first film ever registered
const minReleaseYear = 1888

// orderings maps the permitted order query values to count subqueries so
// callers can sort by popularity measures computed at query time.
var orderings = map[string]string{
	"seen_count":      "(SELECT COUNT(*) FROM seens WHERE seens.movie_id = movies.id) DESC",
	"watchlist_count": "(SELECT COUNT(*) FROM watchlists WHERE watchlists.movie_id = movies.id) DESC",
	"rating_count":    "(SELECT COUNT(*) FROM ratings WHERE ratings.movie_id = movies.id) DESC",
	"list_count":      "(SELECT COUNT(*) FROM list_movies WHERE list_movies.movie_id = movies.id) DESC",
}

type movieRequest struct {
	Title       string `json:"title"`
	Synopsis    string `json:"synopsis"`
	Poster      string `json:"poster"`
	ReleaseYear int    `json:"release_year"`
	Genre       string `json:"genre"`
	Directors   []uint `json:"directors"`
	MainCast    []uint `json:"main_cast"`
}

func (r *movieRequest) validate() string {
	if r.Title == "" || len(r.Title) > 100 {
		return "Title is required and must be at most 100 characters."
	}
	if len(r.Synopsis) > 400 {
		return "Synopsis must be at most 400 characters."
	}
	if r.ReleaseYear < minReleaseYear || r.ReleaseYear > time.Now().Year() {
		return fmt.Sprintf("Release year must be between %d and %d.", minReleaseYear, time.Now().Year())
	}
	if !database.ValidGenre(r.Genre) {
		return "Invalid genre."
	}
	return ""
}

// moviePayload builds the movie response with derived fields and the
// caller's own relationship pointers
func (m *Module) moviePayload(c *gin.Context, movie *database.Movie) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, movie.OwnerID).Error; err != nil {
		return nil, err
	}

	agg, err := m.aggs.ForMovie(movie)
	if err != nil {
		return nil, err
	}
	ptrs, err := m.aggs.PointersForMovie(caller, movie.ID)
	if err != nil {
		return nil, err
	}

	var directors []database.Director
	var cast []database.Actor
	if err := m.db.Model(movie).Association("Directors").Find(&directors); err != nil {
		return nil, err
	}
	if err := m.db.Model(movie).Association("MainCast").Find(&cast); err != nil {
		return nil, err
	}

	return gin.H{
		"id":              movie.ID,
		"owner":           owner.Username,
		"owner_id":        movie.OwnerID,
		"is_owner":        caller != nil && caller.UserID == movie.OwnerID,
		"title":           movie.Title,
		"synopsis":        movie.Synopsis,
		"poster":          movie.Poster,
		"release_year":    movie.ReleaseYear,
		"release_decade":  agg.ReleaseDecade,
		"genre":           movie.Genre,
		"directors":       directors,
		"main_cast":       cast,
		"avg_rating":      agg.AvgRating,
		"seen_count":      agg.SeenCount,
		"watchlist_count": agg.WatchlistCount,
		"list_count":      agg.ListCount,
		"rating_count":    agg.RatingCount,
		"report_count":    agg.ReportCount,
		"seen_id":         ptrs.SeenID,
		"watchlist_id":    ptrs.WatchlistID,
		"rating_id":       ptrs.RatingID,
		"created_at":      movie.CreatedAt,
		"updated_at":      movie.UpdatedAt,
	}, nil
}

// listMovies handles GET /api/movies with title search, decade filtering
// and popularity ordering
func (m *Module) listMovies(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Movie{})

	if title := c.Query("title"); title != "" {
		query = query.Where("title LIKE ?", "%"+title+"%")
	}
	if decade := c.Query("decade"); decade != "" {
		if d, err := strconv.Atoi(decade); err == nil {
			query = query.Where("release_year >= ? AND release_year < ?", d, d+10)
		}
	}
	if ownerID := c.Query("owner_id"); ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	if orderBy, ok := orderings[c.Query("order")]; ok {
		query = query.Order(orderBy)
	} else {
		query = query.Order("created_at DESC")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var movies []database.Movie
	if err := query.Limit(limit).Offset(offset).Find(&movies).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(movies))
	for i := range movies {
		payload, err := m.moviePayload(c, &movies[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createMovie handles POST /api/movies. Any authenticated user may add a
// movie; only admins may change it afterwards.
func (m *Module) createMovie(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}
	if detail := req.validate(); detail != "" {
		webutil.AbortValidation(c, detail)
		return
	}

	movie := &database.Movie{
		OwnerID:     caller.UserID,
		Title:       req.Title,
		Synopsis:    req.Synopsis,
		Poster:      req.Poster,
		ReleaseYear: req.ReleaseYear,
		Genre:       req.Genre,
	}
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(movie).Error; err != nil {
			return err
		}
		return m.assignCrew(tx, movie, req.Directors, req.MainCast)
	})
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventMovieCreated, fmt.Sprint(caller.UserID),
		"Movie Added", fmt.Sprintf("%q (%d) added to the catalogue", movie.Title, movie.ReleaseYear)))

	payload, err := m.moviePayload(c, movie)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getMovie handles GET /api/movies/:id
func (m *Module) getMovie(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var movie database.Movie
	if err := m.db.First(&movie, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.moviePayload(c, &movie)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updateMovie handles PUT /api/movies/:id (admins only)
func (m *Module) updateMovie(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var movie database.Movie
	if err := m.db.First(&movie, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}
	if detail := req.validate(); detail != "" {
		webutil.AbortValidation(c, detail)
		return
	}

	movie.Title = req.Title
	movie.Synopsis = req.Synopsis
	movie.Poster = req.Poster
	movie.ReleaseYear = req.ReleaseYear
	movie.Genre = req.Genre

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&movie).Error; err != nil {
			return err
		}
		return m.assignCrew(tx, &movie, req.Directors, req.MainCast)
	})
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewSystemEvent(events.EventMovieUpdated,
		"Movie Updated", fmt.Sprintf("%q was updated", movie.Title)))

	payload, err := m.moviePayload(c, &movie)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteMovie handles DELETE /api/movies/:id (admins only). All relationship
// rows referencing the movie go with it.
func (m *Module) deleteMovie(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var movie database.Movie
	if err := m.db.First(&movie, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		// Relationship rows carry ON DELETE CASCADE constraints; the join
		// tables are cleared explicitly since they have no model of their own.
		for _, table := range []string{"list_movies", "movie_directors", "movie_cast"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE movie_id = ?", movie.ID).Error; err != nil {
				return err
			}
		}
		for _, model := range []interface{}{
			&database.Rating{}, &database.Seen{}, &database.Watchlist{}, &database.Report{},
		} {
			if err := tx.Where("movie_id = ?", movie.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&movie).Error
	})
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewSystemEvent(events.EventMovieDeleted,
		"Movie Deleted", fmt.Sprintf("%q was removed from the catalogue", movie.Title)))

	c.Status(http.StatusNoContent)
}

// assignCrew replaces the movie's crew associations when ids were provided
func (m *Module) assignCrew(tx *gorm.DB, movie *database.Movie, directorIDs, actorIDs []uint) error {
	if directorIDs != nil {
		var directors []database.Director
		if err := tx.Find(&directors, directorIDs).Error; err != nil {
			return err
		}
		if len(directors) != len(directorIDs) {
			return database.ErrNotFound
		}
		if err := tx.Model(movie).Association("Directors").Replace(directors); err != nil {
			return err
		}
	}
	if actorIDs != nil {
		var cast []database.Actor
		if err := tx.Find(&cast, actorIDs).Error; err != nil {
			return err
		}
		if len(cast) != len(actorIDs) {
			return database.ErrNotFound
		}
		if err := tx.Model(movie).Association("MainCast").Replace(cast); err != nil {
			return err
		}
	}
	return nil
}

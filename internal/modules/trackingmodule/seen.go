package trackingmodule

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
)

func (m *Module) seenPayload(c *gin.Context, seen *database.Seen) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, seen.OwnerID).Error; err != nil {
		return nil, err
	}
	var movie database.Movie
	if err := m.db.First(&movie, seen.MovieID).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"id":                 seen.ID,
		"owner":              owner.Username,
		"owner_id":           seen.OwnerID,
		"is_owner":           caller != nil && caller.UserID == seen.OwnerID,
		"movie":              seen.MovieID,
		"movie_title":        movie.Title,
		"movie_poster":       movie.Poster,
		"movie_release_year": movie.ReleaseYear,
		"created_at":         seen.CreatedAt,
	}, nil
}

// listSeen handles GET /api/seen
func (m *Module) listSeen(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Seen{}).Order("created_at DESC")
	if owner := c.Query("owner_id"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if movie := c.Query("movie"); movie != "" {
		query = query.Where("movie_id = ?", movie)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var marks []database.Seen
	if err := query.Limit(limit).Offset(offset).Find(&marks).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(marks))
	for i := range marks {
		payload, err := m.seenPayload(c, &marks[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createSeen handles POST /api/seen. Marking a movie as seen removes any
// watchlist entry the caller had for it.
func (m *Module) createSeen(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Movie uint `json:"movie"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Movie == 0 {
		webutil.AbortValidation(c, "A movie id is required.")
		return
	}

	seen, err := m.engine.MarkSeen(c.Request.Context(), caller.UserID, req.Movie)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventSeenMarked, fmt.Sprint(caller.UserID),
		"Movie seen", fmt.Sprintf("%s marked movie %d as seen", caller.Username, req.Movie)))

	payload, err := m.seenPayload(c, seen)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getSeen handles GET /api/seen/:id
func (m *Module) getSeen(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var seen database.Seen
	if err := m.db.First(&seen, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.seenPayload(c, &seen)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteSeen handles DELETE /api/seen/:id
func (m *Module) deleteSeen(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var seen database.Seen
	if err := m.db.First(&seen, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrReadOnly(webutil.Caller(c), policy.Write, seen.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := m.db.Delete(&seen).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

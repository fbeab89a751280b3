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

func (m *Module) watchlistPayload(c *gin.Context, entry *database.Watchlist) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, entry.OwnerID).Error; err != nil {
		return nil, err
	}
	var movie database.Movie
	if err := m.db.First(&movie, entry.MovieID).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"id":                 entry.ID,
		"owner":              owner.Username,
		"owner_id":           entry.OwnerID,
		"is_owner":           caller != nil && caller.UserID == entry.OwnerID,
		"movie":              entry.MovieID,
		"movie_title":        movie.Title,
		"movie_poster":       movie.Poster,
		"movie_release_year": movie.ReleaseYear,
		"created_at":         entry.CreatedAt,
	}, nil
}

// listWatchlist handles GET /api/watchlist
func (m *Module) listWatchlist(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Watchlist{}).Order("created_at DESC")
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

	var entries []database.Watchlist
	if err := query.Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(entries))
	for i := range entries {
		payload, err := m.watchlistPayload(c, &entries[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createWatchlist handles POST /api/watchlist. Adding a movie to the
// watchlist removes any seen mark and any rating the caller had for it.
func (m *Module) createWatchlist(c *gin.Context) {
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

	entry, err := m.engine.AddToWatchlist(c.Request.Context(), caller.UserID, req.Movie)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventWatchlistAdded, fmt.Sprint(caller.UserID),
		"Watchlist add", fmt.Sprintf("%s added movie %d to their watchlist", caller.Username, req.Movie)))

	payload, err := m.watchlistPayload(c, entry)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getWatchlist handles GET /api/watchlist/:id
func (m *Module) getWatchlist(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var entry database.Watchlist
	if err := m.db.First(&entry, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.watchlistPayload(c, &entry)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteWatchlist handles DELETE /api/watchlist/:id
func (m *Module) deleteWatchlist(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var entry database.Watchlist
	if err := m.db.First(&entry, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrReadOnly(webutil.Caller(c), policy.Write, entry.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := m.db.Delete(&entry).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

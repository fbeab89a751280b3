package ratingmodule

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
	"gorm.io/gorm"
)

func validRatingValue(value int) bool {
	return value >= 1 && value <= 5
}

// ratingPayload builds the rating response with owner and movie context
func (m *Module) ratingPayload(c *gin.Context, rating *database.Rating) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, rating.OwnerID).Error; err != nil {
		return nil, err
	}
	var movie database.Movie
	if err := m.db.First(&movie, rating.MovieID).Error; err != nil {
		return nil, err
	}
	commentsCount, err := m.aggs.CommentsCountForRating(rating.ID)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":                 rating.ID,
		"owner":              owner.Username,
		"owner_id":           rating.OwnerID,
		"is_owner":           caller != nil && caller.UserID == rating.OwnerID,
		"movie":              rating.MovieID,
		"movie_title":        movie.Title,
		"movie_release_year": movie.ReleaseYear,
		"movie_poster":       movie.Poster,
		"value":              rating.Value,
		"content":            rating.Content,
		"comments_count":     commentsCount,
		"created_at":         rating.CreatedAt,
		"updated_at":         rating.UpdatedAt,
	}, nil
}

// listRatings handles GET /api/ratings with movie and owner filters
func (m *Module) listRatings(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Rating{}).Order("ratings.created_at DESC")
	if movie := c.Query("movie"); movie != "" {
		query = query.Where("movie_id = ?", movie)
	}
	if ownerID := c.Query("owner_id"); ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	if owner := c.Query("owner"); owner != "" {
		query = query.Joins("JOIN users ON users.id = ratings.owner_id").
			Where("users.username LIKE ?", "%"+owner+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var ratings []database.Rating
	if err := query.Limit(limit).Offset(offset).Find(&ratings).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(ratings))
	for i := range ratings {
		payload, err := m.ratingPayload(c, &ratings[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createRating handles POST /api/ratings. The transition runs through the
// consistency engine: rating implies seen, retracts watchlist, and a second
// rating for the same movie is rejected.
func (m *Module) createRating(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Movie   uint   `json:"movie"`
		Value   int    `json:"value"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Movie == 0 {
		webutil.AbortValidation(c, "A movie id is required.")
		return
	}
	if !validRatingValue(req.Value) {
		webutil.AbortValidation(c, "Rating value must be between 1 and 5.")
		return
	}
	if len(req.Content) > 250 {
		webutil.AbortValidation(c, "Content must be at most 250 characters.")
		return
	}

	rating, err := m.engine.RateMovie(c.Request.Context(), caller.UserID, req.Movie, req.Value, req.Content)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventRatingCreated, fmt.Sprint(caller.UserID),
		"Movie Rated", fmt.Sprintf("%s rated movie %d: %d/5", caller.Username, req.Movie, req.Value)))

	payload, err := m.ratingPayload(c, rating)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getRating handles GET /api/ratings/:id
func (m *Module) getRating(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var rating database.Rating
	if err := m.db.First(&rating, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.ratingPayload(c, &rating)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updateRating handles PUT /api/ratings/:id. The movie binding is fixed;
// only the value and content may change.
func (m *Module) updateRating(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var rating database.Rating
	if err := m.db.First(&rating, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, rating.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Value   *int    `json:"value"`
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}
	if req.Value != nil {
		if !validRatingValue(*req.Value) {
			webutil.AbortValidation(c, "Rating value must be between 1 and 5.")
			return
		}
		rating.Value = *req.Value
	}
	if req.Content != nil {
		if len(*req.Content) > 250 {
			webutil.AbortValidation(c, "Content must be at most 250 characters.")
			return
		}
		rating.Content = *req.Content
	}

	if err := m.db.Save(&rating).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.ratingPayload(c, &rating)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteRating handles DELETE /api/ratings/:id. Deleting a rating has no
// cross-entity side effects; the seen row it implied stays.
func (m *Module) deleteRating(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var rating database.Rating
	if err := m.db.First(&rating, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, rating.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rating_id = ?", rating.ID).Delete(&database.RatingComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rating).Error
	}); err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

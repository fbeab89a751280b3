package listmodule

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

type listRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Movies      []uint `json:"movies"`
}

func (r *listRequest) validate() string {
	if r.Title == "" || len(r.Title) > 100 {
		return "Title is required and must be at most 100 characters."
	}
	if len(r.Description) > 400 {
		return "Description must be at most 400 characters."
	}
	return ""
}

// listPayload builds the list response with its member movies inlined
func (m *Module) listPayload(c *gin.Context, list *database.List) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, list.OwnerID).Error; err != nil {
		return nil, err
	}

	var movies []database.Movie
	if err := m.db.Model(list).Association("Movies").Find(&movies); err != nil {
		return nil, err
	}
	members := make([]gin.H, 0, len(movies))
	for i := range movies {
		members = append(members, gin.H{
			"id":           movies[i].ID,
			"title":        movies[i].Title,
			"poster":       movies[i].Poster,
			"release_year": movies[i].ReleaseYear,
			"genre":        movies[i].Genre,
		})
	}

	comments, err := m.aggs.CommentsCountForList(list.ID)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":             list.ID,
		"owner":          owner.Username,
		"owner_id":       list.OwnerID,
		"is_owner":       caller != nil && caller.UserID == list.OwnerID,
		"title":          list.Title,
		"description":    list.Description,
		"movies":         members,
		"movies_count":   len(members),
		"comments_count": comments,
		"created_at":     list.CreatedAt,
		"updated_at":     list.UpdatedAt,
	}, nil
}

// listLists handles GET /api/lists
func (m *Module) listLists(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.List{}).Order("updated_at DESC")
	if owner := c.Query("owner_id"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if title := c.Query("title"); title != "" {
		query = query.Where("title LIKE ?", "%"+title+"%")
	}
	if movie := c.Query("movie"); movie != "" {
		query = query.Where("id IN (SELECT list_id FROM list_movies WHERE movie_id = ?)", movie)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var lists []database.List
	if err := query.Limit(limit).Offset(offset).Find(&lists).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(lists))
	for i := range lists {
		payload, err := m.listPayload(c, &lists[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createList handles POST /api/lists
func (m *Module) createList(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}
	if detail := req.validate(); detail != "" {
		webutil.AbortValidation(c, detail)
		return
	}

	list := &database.List{
		OwnerID:     caller.UserID,
		Title:       req.Title,
		Description: req.Description,
	}
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return err
		}
		return assignMovies(tx, list, req.Movies)
	})
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventListCreated, fmt.Sprint(caller.UserID),
		"List created", fmt.Sprintf("%s created list %q", caller.Username, list.Title)))

	payload, err := m.listPayload(c, list)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getList handles GET /api/lists/:id
func (m *Module) getList(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var list database.List
	if err := m.db.First(&list, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.listPayload(c, &list)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updateList handles PUT /api/lists/:id
func (m *Module) updateList(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var list database.List
	if err := m.db.First(&list, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, list.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Movies      *[]uint `json:"movies"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}
	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > 100 {
			webutil.AbortValidation(c, "Title is required and must be at most 100 characters.")
			return
		}
		list.Title = *req.Title
	}
	if req.Description != nil {
		if len(*req.Description) > 400 {
			webutil.AbortValidation(c, "Description must be at most 400 characters.")
			return
		}
		list.Description = *req.Description
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&list).Error; err != nil {
			return err
		}
		if req.Movies != nil {
			return assignMovies(tx, &list, *req.Movies)
		}
		return nil
	})
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.listPayload(c, &list)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteList handles DELETE /api/lists/:id
func (m *Module) deleteList(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var list database.List
	if err := m.db.First(&list, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, list.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM list_movies WHERE list_id = ?", list.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", list.ID).Delete(&database.ListComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&list).Error
	})
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// assignMovies replaces the list membership with the given id set. Every
// referenced movie must exist.
func assignMovies(tx *gorm.DB, list *database.List, movieIDs []uint) error {
	movies := make([]database.Movie, 0, len(movieIDs))
	if len(movieIDs) > 0 {
		if err := tx.Find(&movies, movieIDs).Error; err != nil {
			return err
		}
		if len(movies) != len(movieIDs) {
			return database.ErrNotFound
		}
	}
	return tx.Model(list).Association("Movies").Replace(movies)
}

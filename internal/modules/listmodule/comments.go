package listmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
)

func (m *Module) commentPayload(c *gin.Context, comment *database.ListComment) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, comment.OwnerID).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"id":         comment.ID,
		"owner":      owner.Username,
		"owner_id":   comment.OwnerID,
		"is_owner":   caller != nil && caller.UserID == comment.OwnerID,
		"list":       comment.ListID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt,
		"updated_at": comment.UpdatedAt,
	}, nil
}

// listComments handles GET /api/listcomments
func (m *Module) listComments(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.ListComment{}).Order("created_at DESC")
	if list := c.Query("list"); list != "" {
		query = query.Where("list_id = ?", list)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var comments []database.ListComment
	if err := query.Limit(limit).Offset(offset).Find(&comments).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(comments))
	for i := range comments {
		payload, err := m.commentPayload(c, &comments[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createComment handles POST /api/listcomments
func (m *Module) createComment(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		List    uint   `json:"list"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.List == 0 {
		webutil.AbortValidation(c, "A list id is required.")
		return
	}
	if req.Content == "" {
		webutil.AbortValidation(c, "Content is required.")
		return
	}

	// The parent list must exist
	var list database.List
	if err := m.db.First(&list, req.List).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	comment := &database.ListComment{
		OwnerID: caller.UserID,
		ListID:  list.ID,
		Content: req.Content,
	}
	if err := m.db.Create(comment).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.commentPayload(c, comment)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getComment handles GET /api/listcomments/:id
func (m *Module) getComment(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var comment database.ListComment
	if err := m.db.First(&comment, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.commentPayload(c, &comment)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updateComment handles PUT /api/listcomments/:id
func (m *Module) updateComment(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var comment database.ListComment
	if err := m.db.First(&comment, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, comment.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		webutil.AbortValidation(c, "Content is required.")
		return
	}

	comment.Content = req.Content
	if err := m.db.Save(&comment).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.commentPayload(c, &comment)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteComment handles DELETE /api/listcomments/:id
func (m *Module) deleteComment(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var comment database.ListComment
	if err := m.db.First(&comment, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, comment.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := m.db.Delete(&comment).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

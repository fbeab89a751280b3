package usermodule

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
)

func (m *Module) followerPayload(follower *database.Follower) (gin.H, error) {
	var owner, followed database.User
	if err := m.db.First(&owner, follower.OwnerID).Error; err != nil {
		return nil, err
	}
	if err := m.db.First(&followed, follower.FollowedID).Error; err != nil {
		return nil, err
	}
	return gin.H{
		"id":            follower.ID,
		"owner":         owner.Username,
		"owner_id":      follower.OwnerID,
		"followed":      follower.FollowedID,
		"followed_name": followed.Username,
		"created_at":    follower.CreatedAt,
	}, nil
}

// listFollowers handles GET /api/followers
func (m *Module) listFollowers(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Follower{}).Order("created_at DESC")
	if owner := c.Query("owner_id"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if followed := c.Query("followed_id"); followed != "" {
		query = query.Where("followed_id = ?", followed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var followers []database.Follower
	if err := query.Limit(limit).Offset(offset).Find(&followers).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(followers))
	for i := range followers {
		payload, err := m.followerPayload(&followers[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createFollower handles POST /api/followers
func (m *Module) createFollower(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	// The owner field of the payload is ignored: the caller always becomes
	// the owner of the new row.
	var req struct {
		Followed uint `json:"followed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Followed == 0 {
		webutil.AbortValidation(c, "A followed user id is required.")
		return
	}

	follower, err := m.engine.Follow(c.Request.Context(), caller.UserID, req.Followed)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventUserFollowed, fmt.Sprint(caller.UserID),
		"User Followed", fmt.Sprintf("%s followed user %d", caller.Username, req.Followed)))

	payload, err := m.followerPayload(follower)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// deleteFollower handles DELETE /api/followers/:id. Only the owner may
// unfollow; there is no admin override.
func (m *Module) deleteFollower(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var follower database.Follower
	if err := m.db.First(&follower, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrReadOnly(webutil.Caller(c), policy.Write, follower.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := m.db.Delete(&follower).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package usermodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/reelist/reelist/internal/webutil"
)

// profilePayload builds the profile response with its derived fields
func (m *Module) profilePayload(c *gin.Context, profile *database.Profile) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, profile.OwnerID).Error; err != nil {
		return nil, err
	}

	agg, err := m.aggs.ForProfile(profile.OwnerID)
	if err != nil {
		return nil, err
	}
	followingID, err := m.aggs.FollowingID(caller, profile.OwnerID)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":              profile.ID,
		"owner":           owner.Username,
		"owner_id":        profile.OwnerID,
		"is_owner":        caller != nil && caller.UserID == profile.OwnerID,
		"name":            profile.Name,
		"description":     profile.Description,
		"image":           profile.Image,
		"favorite_genre":  profile.FavoriteGenre,
		"is_admin":        profile.IsAdmin,
		"following_id":    followingID,
		"movie_count":     agg.MovieCount,
		"seen_count":      agg.SeenCount,
		"watchlist_count": agg.WatchlistCount,
		"list_count":      agg.ListCount,
		"rating_count":    agg.RatingCount,
		"followers_count": agg.FollowersCount,
		"following_count": agg.FollowingCount,
		"created_at":      profile.CreatedAt,
		"updated_at":      profile.UpdatedAt,
	}, nil
}

// listProfiles handles GET /api/profiles
func (m *Module) listProfiles(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	var total int64
	if err := m.db.Model(&database.Profile{}).Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var profiles []database.Profile
	if err := m.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(profiles))
	for i := range profiles {
		payload, err := m.profilePayload(c, &profiles[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// getProfile handles GET /api/profiles/:id
func (m *Module) getProfile(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var profile database.Profile
	if err := m.db.First(&profile, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.profilePayload(c, &profile)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updateProfile handles PUT /api/profiles/:id
func (m *Module) updateProfile(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var profile database.Profile
	if err := m.db.First(&profile, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.OwnerOrAdminOrReadOnly(webutil.Caller(c), policy.Write, profile.OwnerID); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Name          *string `json:"name"`
		Description   *string `json:"description"`
		Image         *string `json:"image"`
		FavoriteGenre *string `json:"favorite_genre"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		webutil.AbortValidation(c, "Invalid request body.")
		return
	}

	if req.Name != nil {
		if len(*req.Name) > 255 {
			webutil.AbortValidation(c, "Name must be at most 255 characters.")
			return
		}
		profile.Name = *req.Name
	}
	if req.Description != nil {
		profile.Description = *req.Description
	}
	if req.Image != nil {
		profile.Image = *req.Image
	}
	if req.FavoriteGenre != nil {
		if !database.ValidGenre(*req.FavoriteGenre) {
			webutil.AbortValidation(c, "Invalid favorite genre.")
			return
		}
		profile.FavoriteGenre = *req.FavoriteGenre
	}

	// IsAdmin is deliberately not writable here; it is display-only and
	// authorization never reads it.
	if err := m.db.Save(&profile).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.profilePayload(c, &profile)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

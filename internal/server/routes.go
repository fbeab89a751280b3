package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/webutil"
)

// setupRoutes mounts the server-level endpoints: route discovery, health,
// system status and the activity feed
func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("", listAPIRoutes)
		api.GET("/health", healthCheck)
		api.GET("/system/status", systemStatus)

		activity := api.Group("/activity")
		{
			activity.GET("", listActivity)
			activity.GET("/stats", activityStats)
		}
	}

	apiroutes.Register("/api/health", "GET", "Health check for the server and database.")
	apiroutes.Register("/api/system/status", "GET", "Runtime CPU and memory statistics.")
	apiroutes.Register("/api/activity", "GET", "List recorded activity events.")
	apiroutes.Register("/api/activity/stats", "GET", "Statistics about recorded activity events.")
}

// listAPIRoutes handles GET /api, the discovery endpoint
func listAPIRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": apiroutes.Get()})
}

// listActivity handles GET /api/activity
func listActivity(c *gin.Context) {
	if systemEventBus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Event system not available."})
		return
	}

	limit, offset := webutil.ParsePagination(c)

	var filter events.EventFilter
	if t := c.Query("type"); t != "" {
		filter.Types = []events.EventType{events.EventType(t)}
	}
	if s := c.Query("source"); s != "" {
		filter.Sources = []string{s}
	}

	list, total, err := systemEventBus.GetEvents(filter, limit, offset)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list, "count": total})
}

// activityStats handles GET /api/activity/stats
func activityStats(c *gin.Context) {
	if systemEventBus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Event system not available."})
		return
	}
	c.JSON(http.StatusOK, systemEventBus.GetStats())
}

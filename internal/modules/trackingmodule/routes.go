package trackingmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
)

// RegisterRoutes mounts the tracking module endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	seen := router.Group("/api/seen")
	{
		seen.GET("", m.listSeen)
		seen.POST("", m.createSeen)
		seen.GET("/:id", m.getSeen)
		seen.DELETE("/:id", m.deleteSeen)
	}

	watchlist := router.Group("/api/watchlist")
	{
		watchlist.GET("", m.listWatchlist)
		watchlist.POST("", m.createWatchlist)
		watchlist.GET("/:id", m.getWatchlist)
		watchlist.DELETE("/:id", m.deleteWatchlist)
	}

	reports := router.Group("/api/reports")
	{
		reports.GET("", m.listReports)
		reports.POST("", m.createReport)
		reports.GET("/:id", m.getReport)
		reports.PUT("/:id", m.updateReport)
		reports.DELETE("/:id", m.deleteReport)
	}

	apiroutes.Register("/api/seen", "GET", "List seen marks with owner and movie filters.")
	apiroutes.Register("/api/seen", "POST", "Mark a movie as seen (authenticated).")
	apiroutes.Register("/api/seen/:id", "GET", "Retrieve a seen mark.")
	apiroutes.Register("/api/seen/:id", "DELETE", "Remove a seen mark (owner only).")
	apiroutes.Register("/api/watchlist", "GET", "List watchlist entries with owner and movie filters.")
	apiroutes.Register("/api/watchlist", "POST", "Add a movie to the watchlist (authenticated).")
	apiroutes.Register("/api/watchlist/:id", "GET", "Retrieve a watchlist entry.")
	apiroutes.Register("/api/watchlist/:id", "DELETE", "Remove a watchlist entry (owner only).")
	apiroutes.Register("/api/reports", "GET", "List movie reports with owner, movie and status filters.")
	apiroutes.Register("/api/reports", "POST", "Report a problem with a movie entry (authenticated).")
	apiroutes.Register("/api/reports/:id", "GET", "Retrieve a report.")
	apiroutes.Register("/api/reports/:id", "PUT", "Close or reopen a report (admin only).")
	apiroutes.Register("/api/reports/:id", "DELETE", "Delete a report (admin only).")
}

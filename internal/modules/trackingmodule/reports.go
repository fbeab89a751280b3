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

func (m *Module) reportPayload(c *gin.Context, report *database.Report) (gin.H, error) {
	caller := webutil.Caller(c)

	var owner database.User
	if err := m.db.First(&owner, report.OwnerID).Error; err != nil {
		return nil, err
	}
	var movie database.Movie
	if err := m.db.First(&movie, report.MovieID).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"id":          report.ID,
		"owner":       owner.Username,
		"owner_id":    report.OwnerID,
		"is_owner":    caller != nil && caller.UserID == report.OwnerID,
		"movie":       report.MovieID,
		"movie_title": movie.Title,
		"content":     report.Content,
		"is_closed":   report.IsClosed,
		"created_at":  report.CreatedAt,
		"updated_at":  report.UpdatedAt,
	}, nil
}

// listReports handles GET /api/reports
func (m *Module) listReports(c *gin.Context) {
	limit, offset := webutil.ParsePagination(c)

	query := m.db.Model(&database.Report{}).Order("created_at DESC")
	if owner := c.Query("owner_id"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if movie := c.Query("movie"); movie != "" {
		query = query.Where("movie_id = ?", movie)
	}
	if closed := c.Query("is_closed"); closed != "" {
		query = query.Where("is_closed = ?", closed == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var reports []database.Report
	if err := query.Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	results := make([]gin.H, 0, len(reports))
	for i := range reports {
		payload, err := m.reportPayload(c, &reports[i])
		if err != nil {
			webutil.AbortWithError(c, err)
			return
		}
		results = append(results, payload)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": total})
}

// createReport handles POST /api/reports. A closed report for the same
// movie is replaced; an open one rejects the request.
func (m *Module) createReport(c *gin.Context) {
	caller := webutil.Caller(c)
	if err := policy.AuthenticatedOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		Movie   uint   `json:"movie"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Movie == 0 {
		webutil.AbortValidation(c, "A movie id is required.")
		return
	}
	if len(req.Content) > 250 {
		webutil.AbortValidation(c, "Content must be at most 250 characters.")
		return
	}

	report, err := m.engine.FileReport(c.Request.Context(), caller.UserID, req.Movie, req.Content)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	m.publish(events.NewUserEvent(events.EventReportOpened, fmt.Sprint(caller.UserID),
		"Report opened", fmt.Sprintf("%s reported movie %d", caller.Username, req.Movie)))

	payload, err := m.reportPayload(c, report)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// getReport handles GET /api/reports/:id
func (m *Module) getReport(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var report database.Report
	if err := m.db.First(&report, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	payload, err := m.reportPayload(c, &report)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// updateReport handles PUT /api/reports/:id. Only admins resolve reports.
func (m *Module) updateReport(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var report database.Report
	if err := m.db.First(&report, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	caller := webutil.Caller(c)
	if err := policy.AdminOrReadOnly(caller, policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	var req struct {
		IsClosed *bool `json:"is_closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsClosed == nil {
		webutil.AbortValidation(c, "is_closed is required.")
		return
	}

	wasClosed := report.IsClosed
	report.IsClosed = *req.IsClosed
	if err := m.db.Save(&report).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if !wasClosed && report.IsClosed {
		m.publish(events.NewUserEvent(events.EventReportClosed, fmt.Sprint(caller.UserID),
			"Report closed", fmt.Sprintf("%s closed report %d", caller.Username, report.ID)))
	}

	payload, err := m.reportPayload(c, &report)
	if err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// deleteReport handles DELETE /api/reports/:id
func (m *Module) deleteReport(c *gin.Context) {
	id, ok := webutil.ParseID(c, "id")
	if !ok {
		return
	}

	var report database.Report
	if err := m.db.First(&report, id).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := policy.AdminOrReadOnly(webutil.Caller(c), policy.Write); err != nil {
		webutil.AbortWithError(c, err)
		return
	}

	if err := m.db.Delete(&report).Error; err != nil {
		webutil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/database"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

var startTime = time.Now()

// healthCheck handles GET /api/health
func healthCheck(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(startTime).Round(time.Second).String(),
	})
}

// systemStatus handles GET /api/system/status with host-level CPU and
// memory figures
func systemStatus(c *gin.Context) {
	payload := gin.H{
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"uptime":     time.Since(startTime).Round(time.Second).String(),
	}

	if memStats, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		payload["memory_total"] = memStats.Total
		payload["memory_used"] = memStats.Used
		payload["memory_percent"] = memStats.UsedPercent
	}
	if cpuPercents, err := cpu.PercentWithContext(c.Request.Context(), 0, false); err == nil && len(cpuPercents) > 0 {
		payload["cpu_percent"] = cpuPercents[0]
	}

	c.JSON(http.StatusOK, payload)
}

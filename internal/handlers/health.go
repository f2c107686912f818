package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/model"
)

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := model.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Metrics:   make(map[string]string),
	}

	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler.IsRunning() {
		response.Metrics["scheduler"] = "running"
		response.Metrics["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
		response.Metrics["last_run"] = h.scheduler.GetLastRun().Format(time.RFC3339)
	} else {
		response.Metrics["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// RunSweeps triggers every scheduled sweep immediately.
func (h *Handlers) RunSweeps(c *gin.Context) {
	go func() {
		if err := h.scheduler.RunOnce(); err != nil {
			logrus.Errorf("Manual sweep run failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"message": "Sweeps triggered"})
}

// GetSchedulerStatus reports whether the sweeps are scheduled and when
// they run next.
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	status := gin.H{
		"running": h.scheduler.IsRunning(),
	}
	if h.scheduler.IsRunning() {
		status["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
		if last := h.scheduler.GetLastRun(); !last.IsZero() {
			status["last_run"] = last.Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, status)
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/quota"
)

// Store is the persistence the handlers need; satisfied by
// *repository.Repository.
type Store interface {
	Owner(id uint) (*model.Owner, error)
	SaveOwner(o *model.Owner) error
	Email(id uint) (*model.Email, error)
	DueEmails(ownerID uint, stage, groupID string, now time.Time) ([]model.Email, error)
	Job(id string) (*model.Job, error)
	JobsByOwner(ownerID uint, limit int) ([]model.Job, error)
	Template(id uint) (*model.Template, error)
	Templates(ownerID uint, category string) ([]model.Template, error)
	DefaultTemplate(ownerID uint, category string) (*model.Template, error)
	CreateTemplate(t *model.Template) error
	Reputation(ownerID uint) (*model.ReputationRecord, error)
}

// Engine runs the campaign jobs; satisfied by *batch.Engine.
type Engine interface {
	StartGenerationJob(owner *model.Owner, contacts []model.Contact, tmpl *model.Template, stage string, avoidDuplicates bool) (*model.Job, error)
	StartSendJob(owner *model.Owner, emailIDs []uint, stage, groupID string) (*model.Job, error)
	SendOne(owner *model.Owner, emailID uint) (*model.Email, error)
	Pause(jobID string) error
	Resume(jobID string) error
}

// Governor answers quota questions; satisfied by *quota.Governor.
type Governor interface {
	ComputeLimits(ownerID uint) (*quota.Limits, error)
	CanSend(ownerID uint, recipientCount int) (*quota.Decision, error)
	RecalculateReputation(ownerID uint) (*model.ReputationRecord, error)
}

// Sweeper exposes the background sweeps; satisfied by
// *scheduler.Scheduler.
type Sweeper interface {
	IsRunning() bool
	GetNextRun() time.Time
	GetLastRun() time.Time
	RunOnce() error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	repo      Store
	engine    Engine
	governor  Governor
	scheduler Sweeper
	metrics   *metrics.Metrics
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, repo Store, engine Engine,
	governor Governor, sched Sweeper, m *metrics.Metrics) *Handlers {
	return &Handlers{db: db, repo: repo, engine: engine, governor: governor, scheduler: sched, metrics: m}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/generate", h.Generate)
		api.POST("/send-group", h.SendGroup)
		api.POST("/emails/:id/send", h.SendEmail)

		api.GET("/jobs", h.GetJobs)
		api.GET("/jobs/:id", h.GetJob)
		api.POST("/jobs/:id/pause", h.PauseJob)
		api.POST("/jobs/:id/resume", h.ResumeJob)

		api.GET("/limits", h.GetLimits)
		api.GET("/reputation", h.GetReputation)
		api.POST("/reputation/recalculate", h.RecalculateReputation)

		api.GET("/templates", h.GetTemplates)
		api.POST("/templates", h.CreateTemplate)

		api.GET("/owner", h.GetOwner)
		api.PUT("/owner", h.UpdateOwner)

		api.POST("/scheduler/run-once", h.RunSweeps)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// currentOwner resolves the acting owner from the X-Owner-ID header.
// It writes the error response itself and returns nil when resolution
// fails.
func (h *Handlers) currentOwner(c *gin.Context) *model.Owner {
	raw := c.GetHeader("X-Owner-ID")
	if raw == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "missing_owner",
			Message: "X-Owner-ID header is required",
			Code:    http.StatusBadRequest,
		})
		return nil
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_owner",
			Message: "X-Owner-ID must be a numeric owner ID",
			Code:    http.StatusBadRequest,
		})
		return nil
	}

	owner, err := h.repo.Owner(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load owner",
			Code:    http.StatusInternalServerError,
		})
		return nil
	}
	if owner == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "owner_not_found",
			Message: "No owner with that ID",
			Code:    http.StatusNotFound,
		})
		return nil
	}
	return owner
}

func validStage(stage string) bool {
	switch stage {
	case model.StageOutreach, model.StageFollowup, model.StageLastchance:
		return true
	}
	return false
}

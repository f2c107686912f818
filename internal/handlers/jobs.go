package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach-engine-go/internal/model"
)

// GetJobs returns the owner's recent jobs, newest first.
func (h *Handlers) GetJobs(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	jobs, err := h.repo.JobsByOwner(owner.ID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch jobs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	responses := make([]model.JobResponse, 0, len(jobs))
	for i := range jobs {
		responses = append(responses, model.NewJobResponse(&jobs[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetJob returns a single job for progress polling.
func (h *Handlers) GetJob(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	job := h.ownedJob(c, owner)
	if job == nil {
		return
	}
	c.JSON(http.StatusOK, model.NewJobResponse(job))
}

// PauseJob halts a processing job between items.
func (h *Handlers) PauseJob(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	job := h.ownedJob(c, owner)
	if job == nil {
		return
	}

	if err := h.engine.Pause(job.ID); err != nil {
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   "pause_failed",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job paused", "id": job.ID})
}

// ResumeJob continues a paused job from the next unprocessed item.
func (h *Handlers) ResumeJob(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	job := h.ownedJob(c, owner)
	if job == nil {
		return
	}

	if err := h.engine.Resume(job.ID); err != nil {
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   "resume_failed",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job resumed", "id": job.ID})
}

// ownedJob loads the path job and checks it belongs to the owner. It
// writes the error response itself and returns nil on failure.
func (h *Handlers) ownedJob(c *gin.Context, owner *model.Owner) *model.Job {
	job, err := h.repo.Job(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load job",
			Code:    http.StatusInternalServerError,
		})
		return nil
	}
	if job == nil || job.OwnerID != owner.ID {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "Job not found",
			Code:    http.StatusNotFound,
		})
		return nil
	}
	return job
}

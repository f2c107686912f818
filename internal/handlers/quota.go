package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/model"
)

// GetLimits returns the owner's current quota snapshot.
func (h *Handlers) GetLimits(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	limits, err := h.governor.ComputeLimits(owner.ID)
	if err != nil {
		logrus.Errorf("Failed to compute limits for owner %d: %v", owner.ID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "quota_error",
			Message: "Failed to compute sending limits",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	response := model.LimitsResponse{
		DailyLimit:         limits.DailyLimit,
		RecipientLimit:     limits.RecipientLimit,
		SentToday:          limits.SentToday,
		UniqueToday:        limits.UniqueToday,
		RemainingDaily:     limits.RemainingDaily,
		RemainingRecipient: limits.RemainingRecipient,
		ReputationScore:    limits.ReputationScore,
		WarmupStatus:       limits.WarmupStatus,
	}

	// A probe of size 1 yields the warning the next real send would see.
	if decision, err := h.governor.CanSend(owner.ID, 1); err == nil {
		response.Warning = decision.Reason
	}

	c.JSON(http.StatusOK, response)
}

// GetReputation returns the owner's stored reputation record.
func (h *Handlers) GetReputation(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	rec, err := h.repo.Reputation(owner.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load reputation",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// RecalculateReputation recomputes the owner's score on demand instead
// of waiting for the nightly sweep.
func (h *Handlers) RecalculateReputation(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	rec, err := h.governor.RecalculateReputation(owner.ID)
	if err != nil {
		logrus.Errorf("Failed to recalculate reputation for owner %d: %v", owner.ID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "quota_error",
			Message: "Failed to recalculate reputation",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach-engine-go/internal/model"
)

// GetOwner returns the acting owner's profile.
func (h *Handlers) GetOwner(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}
	c.JSON(http.StatusOK, owner)
}

// UpdateOwner applies a partial profile update. Zero-valued strings
// leave the stored value untouched.
func (h *Handlers) UpdateOwner(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	var req model.OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	if req.Email != "" {
		owner.Email = req.Email
	}
	if req.Name != "" {
		owner.Name = req.Name
	}
	if req.Company != "" {
		owner.Company = req.Company
	}
	if req.CompanyProfile != "" {
		owner.CompanyProfile = req.CompanyProfile
	}
	if req.FollowupIntervalDays != nil {
		if *req.FollowupIntervalDays < 1 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "invalid_interval",
				Message: "followup_interval_days must be at least 1",
				Code:    http.StatusBadRequest,
			})
			return
		}
		owner.FollowupIntervalDays = *req.FollowupIntervalDays
	}
	if req.LastchanceIntervalDays != nil {
		if *req.LastchanceIntervalDays < 1 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "invalid_interval",
				Message: "lastchance_interval_days must be at least 1",
				Code:    http.StatusBadRequest,
			})
			return
		}
		owner.LastchanceIntervalDays = *req.LastchanceIntervalDays
	}
	if req.ShareContacts != nil {
		owner.ShareContacts = *req.ShareContacts
	}

	if err := h.repo.SaveOwner(owner); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to save owner",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, owner)
}

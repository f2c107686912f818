package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach-engine-go/internal/model"
)

// GetTemplates lists the owner's templates, optionally filtered by the
// category query parameter.
func (h *Handlers) GetTemplates(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	category := c.Query("category")
	if category != "" && !validStage(category) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_category",
			Message: "category must be outreach, followup or lastchance",
			Code:    http.StatusBadRequest,
		})
		return
	}

	templates, err := h.repo.Templates(owner.ID, category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch templates",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, templates)
}

// CreateTemplate stores a new template. Marking it default demotes any
// previous default of the same category.
func (h *Handlers) CreateTemplate(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	var req model.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if !validStage(req.Category) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_category",
			Message: "category must be outreach, followup or lastchance",
			Code:    http.StatusBadRequest,
		})
		return
	}

	tmpl := &model.Template{
		OwnerID:   owner.ID,
		Category:  req.Category,
		Name:      req.Name,
		Subject:   req.Subject,
		Body:      req.Body,
		IsDefault: req.IsDefault,
	}
	if err := h.repo.CreateTemplate(tmpl); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create template",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/batch"
	"outreach-engine-go/internal/model"
)

// Generate starts a background generation job and returns it with 202.
func (h *Handlers) Generate(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}

	stage := req.Stage
	if stage == "" {
		stage = model.StageOutreach
	}
	if !validStage(stage) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_stage",
			Message: "stage must be outreach, followup or lastchance",
			Code:    http.StatusBadRequest,
		})
		return
	}

	tmpl, err := h.resolveTemplate(owner.ID, req.TemplateID, stage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load template",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	job, err := h.engine.StartGenerationJob(owner, req.Contacts, tmpl, stage, req.AvoidDuplicates)
	if err != nil {
		var pre *batch.PreconditionError
		if errors.As(err, &pre) {
			c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
				Error:   "precondition_failed",
				Message: pre.Reason,
				Code:    http.StatusUnprocessableEntity,
			})
			return
		}
		logrus.Errorf("Failed to start generation job: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "job_start_failed",
			Message: "Failed to start generation job",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusAccepted, model.NewJobResponse(job))
}

// bindGenerateRequest accepts either a JSON body or a multipart form
// with a CSV contact list under the "contacts" file field. It writes
// the error response itself and reports ok=false on failure.
func (h *Handlers) bindGenerateRequest(c *gin.Context) (model.GenerateRequest, bool) {
	var req model.GenerateRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return req, false
		}
		return req, true
	}

	file, err := c.FormFile("contacts")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "multipart requests need a contacts CSV file field",
			Code:    http.StatusBadRequest,
		})
		return req, false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "failed to open uploaded contacts file",
			Code:    http.StatusBadRequest,
		})
		return req, false
	}
	defer f.Close()

	contacts, err := parseContactsCSV(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_csv",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return req, false
	}

	req.Contacts = contacts
	req.Stage = c.PostForm("stage")
	req.AvoidDuplicates = c.PostForm("avoid_duplicates") == "true"
	if raw := c.PostForm("template_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "invalid_request",
				Message: "template_id must be numeric",
				Code:    http.StatusBadRequest,
			})
			return req, false
		}
		tid := uint(id)
		req.TemplateID = &tid
	}
	return req, true
}

// resolveTemplate picks the requested template, or the owner's default
// for the stage when no ID is given. Returns nil when none exists; the
// engine turns that into a precondition failure.
func (h *Handlers) resolveTemplate(ownerID uint, templateID *uint, stage string) (*model.Template, error) {
	if templateID == nil {
		return h.repo.DefaultTemplate(ownerID, stage)
	}
	tmpl, err := h.repo.Template(*templateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil || tmpl.OwnerID != ownerID {
		return nil, nil
	}
	return tmpl, nil
}

// SendGroup starts a send job covering every due email of a stage and
// group.
func (h *Handlers) SendGroup(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	var req model.SendGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if !validStage(req.Stage) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_stage",
			Message: "stage must be outreach, followup or lastchance",
			Code:    http.StatusBadRequest,
		})
		return
	}

	due, err := h.repo.DueEmails(owner.ID, req.Stage, req.GroupID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load due emails",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	ids := make([]uint, 0, len(due))
	for _, e := range due {
		ids = append(ids, e.ID)
	}

	job, err := h.engine.StartSendJob(owner, ids, req.Stage, req.GroupID)
	if err != nil {
		var pre *batch.PreconditionError
		if errors.As(err, &pre) {
			c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
				Error:   "precondition_failed",
				Message: pre.Reason,
				Code:    http.StatusUnprocessableEntity,
			})
			return
		}
		logrus.Errorf("Failed to start send job: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "job_start_failed",
			Message: "Failed to start send job",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusAccepted, model.NewJobResponse(job))
}

// SendEmail dispatches a single draft synchronously.
func (h *Handlers) SendEmail(c *gin.Context) {
	owner := h.currentOwner(c)
	if owner == nil {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid email ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	email, err := h.repo.Email(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load email",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if email == nil || email.OwnerID != owner.ID {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "Email not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if !email.Sendable() {
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   "not_a_draft",
			Message: "Email was already sent or completed",
			Code:    http.StatusConflict,
		})
		return
	}

	advanced, err := h.engine.SendOne(owner, email.ID)
	if err != nil {
		var denied *batch.QuotaDeniedError
		if errors.As(err, &denied) {
			c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:   "quota_denied",
				Message: denied.Reason,
				Code:    http.StatusTooManyRequests,
			})
			return
		}
		logrus.Errorf("Failed to send email %d: %v", email.ID, err)
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Error:   "delivery_failed",
			Message: "Failed to deliver email",
			Code:    http.StatusBadGateway,
		})
		return
	}

	c.JSON(http.StatusOK, advanced)
}

package model

import (
	"time"
)

// GenerateRequest is the body of POST /api/v1/generate
type GenerateRequest struct {
	Contacts        []Contact `json:"contacts" binding:"required"`
	TemplateID      *uint     `json:"template_id"`
	Stage           string    `json:"stage"`
	AvoidDuplicates bool      `json:"avoid_duplicates"`
}

// SendGroupRequest is the body of POST /api/v1/send-group
type SendGroupRequest struct {
	Stage   string `json:"stage" binding:"required"`
	GroupID string `json:"group_id" binding:"required"`
}

// JobResponse is the wire shape of a job status poll
type JobResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Stage          string    `json:"stage,omitempty"`
	GroupID        string    `json:"group_id,omitempty"`
	TotalItems     int       `json:"total_items"`
	ProcessedItems int       `json:"processed_items"`
	SuccessCount   int       `json:"success_count"`
	Status         string    `json:"status"`
	Paused         bool      `json:"paused"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewJobResponse maps a Job row to its wire shape
func NewJobResponse(j *Job) JobResponse {
	return JobResponse{
		ID:             j.ID,
		Kind:           j.Kind,
		Stage:          j.Stage,
		GroupID:        j.GroupID,
		TotalItems:     j.TotalItems,
		ProcessedItems: j.ProcessedItems,
		SuccessCount:   j.SuccessCount,
		Status:         j.Status,
		Paused:         j.Paused,
		ErrorMessage:   j.ErrorMessage,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

// LimitsResponse is the wire shape of GET /api/v1/limits
type LimitsResponse struct {
	DailyLimit         int     `json:"daily_limit"`
	RecipientLimit     int     `json:"recipient_limit"`
	SentToday          int     `json:"sent_today"`
	UniqueToday        int     `json:"unique_today"`
	RemainingDaily     int     `json:"remaining_daily"`
	RemainingRecipient int     `json:"remaining_recipient"`
	ReputationScore    float64 `json:"reputation_score"`
	WarmupStatus       string  `json:"warmup_status"`
	Warning            string  `json:"warning,omitempty"`
}

// TemplateRequest is the body of POST /api/v1/templates
type TemplateRequest struct {
	Category  string `json:"category" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	IsDefault bool   `json:"is_default"`
}

// OwnerRequest is the body of PUT /api/v1/owner
type OwnerRequest struct {
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	Company                string `json:"company"`
	CompanyProfile         string `json:"company_profile"`
	FollowupIntervalDays   *int   `json:"followup_interval_days"`
	LastchanceIntervalDays *int   `json:"lastchance_interval_days"`
	ShareContacts          *bool  `json:"share_contacts"`
}

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is the response for health check requests
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics"`
}

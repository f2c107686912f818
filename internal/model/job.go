package model

import (
	"time"
)

// Job kinds.
const (
	JobKindGenerate = "generate"
	JobKindSend     = "send"
)

// Job statuses. Transitions are monotone: processing -> completed | error.
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusError      = "error"
)

// Job represents a unit of asynchronous batch work
type Job struct {
	ID             string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	OwnerID        uint      `json:"owner_id" gorm:"not null;index"`
	Kind           string    `json:"kind" gorm:"type:varchar(20);not null"`
	Stage          string    `json:"stage" gorm:"type:varchar(20)"`
	GroupID        string    `json:"group_id" gorm:"type:varchar(36);index"`
	TotalItems     int       `json:"total_items"`
	ProcessedItems int       `json:"processed_items"`
	SuccessCount   int       `json:"success_count"`
	Status         string    `json:"status" gorm:"type:varchar(20);not null;index"`
	Paused         bool      `json:"paused" gorm:"default:false"`
	ErrorMessage   string    `json:"error_message" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Job
func (Job) TableName() string {
	return "jobs"
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}

package model

import (
	"time"
)

// Outreach stages, in the order a recipient moves through them.
const (
	StageOutreach   = "outreach"
	StageFollowup   = "followup"
	StageLastchance = "lastchance"
)

// Email statuses. Draft means generated but not yet sent; the per-stage
// due statuses mark a stage as sent and the next one as owed.
const (
	StatusDraft           = "draft"
	StatusOutreachPending = "outreach_pending"
	StatusFollowupDue     = "followup_due"
	StatusLastchanceDue   = "lastchance_due"
	StatusCompleted       = "completed"
)

// Email represents one outreach artifact per (owner, recipient, stage)
type Email struct {
	ID               uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID          uint       `json:"owner_id" gorm:"not null;index;uniqueIndex:idx_owner_recipient_stage"`
	RecipientAddress string     `json:"recipient_address" gorm:"type:varchar(255);not null;uniqueIndex:idx_owner_recipient_stage"`
	RecipientName    string     `json:"recipient_name" gorm:"type:varchar(255)"`
	RecipientCompany string     `json:"recipient_company" gorm:"type:varchar(255)"`
	Subject          string     `json:"subject" gorm:"type:varchar(998)"`
	Body             string     `json:"body" gorm:"type:text"`
	Stage            string     `json:"stage" gorm:"type:varchar(20);not null;uniqueIndex:idx_owner_recipient_stage"`
	Status           string     `json:"status" gorm:"type:varchar(30);not null;index"`
	GroupID          string     `json:"group_id" gorm:"type:varchar(36);index"`
	TemplateID       *uint      `json:"template_id"`
	CreatedAt        time.Time  `json:"created_at"`
	SentAt           *time.Time `json:"sent_at"`
	FollowupDueAt    *time.Time `json:"followup_due_at"`
	LastchanceDueAt  *time.Time `json:"lastchance_due_at"`
}

// TableName specifies the table name for Email
func (Email) TableName() string {
	return "emails"
}

// Sendable reports whether the email is still waiting to be dispatched.
// Outreach rows imported from older systems carry outreach_pending
// instead of draft.
func (e *Email) Sendable() bool {
	return e.Status == StatusDraft || e.Status == StatusOutreachPending
}

// SentStatus returns the status an email of this stage carries once it
// has been dispatched.
func SentStatus(stage string) string {
	switch stage {
	case StageOutreach:
		return StatusFollowupDue
	case StageFollowup:
		return StatusLastchanceDue
	default:
		return StatusCompleted
	}
}

// NextStage returns the stage that follows the given one, or "" for the
// last stage.
func NextStage(stage string) string {
	switch stage {
	case StageOutreach:
		return StageFollowup
	case StageFollowup:
		return StageLastchance
	default:
		return ""
	}
}

// CompletionRecord is the immutable trace left behind when a recipient
// finishes all three stages and their Email rows are purged.
type CompletionRecord struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID          uint      `json:"owner_id" gorm:"not null;uniqueIndex:idx_completion_owner_recipient"`
	RecipientAddress string    `json:"recipient_address" gorm:"type:varchar(255);not null;uniqueIndex:idx_completion_owner_recipient"`
	RecipientName    string    `json:"recipient_name" gorm:"type:varchar(255)"`
	CompletedAt      time.Time `json:"completed_at"`
}

// TableName specifies the table name for CompletionRecord
func (CompletionRecord) TableName() string {
	return "completion_records"
}

package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// CreateEmail inserts a new email after checking the one-active-email
// invariant: at most one non-completed email per (owner, recipient, stage).
func (r *Repository) CreateEmail(e *model.Email) error {
	var count int64
	err := r.db.Model(&model.Email{}).
		Where("owner_id = ? AND LOWER(recipient_address) = LOWER(?) AND stage = ? AND status <> ?",
			e.OwnerID, e.RecipientAddress, e.Stage, model.StatusCompleted).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check active email invariant: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("active %s email already exists for %s", e.Stage, e.RecipientAddress)
	}
	if err := r.db.Create(e).Error; err != nil {
		return fmt.Errorf("failed to create email: %w", err)
	}
	return nil
}

// SaveEmail persists all fields of an existing email row.
func (r *Repository) SaveEmail(e *model.Email) error {
	if err := r.db.Save(e).Error; err != nil {
		return fmt.Errorf("failed to save email: %w", err)
	}
	return nil
}

// Email fetches one email by ID, nil if it does not exist.
func (r *Repository) Email(id uint) (*model.Email, error) {
	var e model.Email
	err := r.db.First(&e, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch email %d: %w", id, err)
	}
	return &e, nil
}

// EmailsByRecipient returns every email for one (owner, recipient) pair.
func (r *Repository) EmailsByRecipient(ownerID uint, address string) ([]model.Email, error) {
	var emails []model.Email
	err := r.db.Where("owner_id = ? AND LOWER(recipient_address) = LOWER(?)", ownerID, address).
		Order("id").Find(&emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails for recipient: %w", err)
	}
	return emails, nil
}

// DeleteEmailsByRecipient hard-deletes every email row for the pair.
func (r *Repository) DeleteEmailsByRecipient(ownerID uint, address string) error {
	err := r.db.Where("owner_id = ? AND LOWER(recipient_address) = LOWER(?)", ownerID, address).
		Delete(&model.Email{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete emails for recipient: %w", err)
	}
	return nil
}

// DueEmails returns the emails of one group/stage that are ready to send,
// in id order. Outreach drafts are always ready; followup and lastchance
// drafts become ready once their due date has passed.
func (r *Repository) DueEmails(ownerID uint, stage, groupID string, now time.Time) ([]model.Email, error) {
	q := r.db.Where("owner_id = ? AND stage = ? AND status IN ?", ownerID, stage,
		[]string{model.StatusDraft, model.StatusOutreachPending})
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	}
	switch stage {
	case model.StageFollowup:
		q = q.Where("followup_due_at IS NOT NULL AND followup_due_at <= ?", now)
	case model.StageLastchance:
		q = q.Where("lastchance_due_at IS NOT NULL AND lastchance_due_at <= ?", now)
	}

	var emails []model.Email
	if err := q.Order("id").Find(&emails).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch due emails: %w", err)
	}
	return emails, nil
}

// CountDueEmails returns how many draft emails of a stage are past due
// for an owner, for the visibility sweep.
func (r *Repository) CountDueEmails(ownerID uint, stage string, now time.Time) (int64, error) {
	emails, err := r.DueEmails(ownerID, stage, "", now)
	if err != nil {
		return 0, err
	}
	return int64(len(emails)), nil
}

// ActiveRecipient is a recipient with at least one dispatched email whose
// sequence has not yet completed.
type ActiveRecipient struct {
	Address     string
	Name        string
	FirstSentAt time.Time
}

// ActiveRecipients lists recipients the reply sweep should probe.
func (r *Repository) ActiveRecipients(ownerID uint) ([]ActiveRecipient, error) {
	var rows []model.Email
	err := r.db.Where("owner_id = ? AND sent_at IS NOT NULL AND status <> ?", ownerID, model.StatusCompleted).
		Order("sent_at").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active recipients: %w", err)
	}

	seen := make(map[string]bool)
	var out []ActiveRecipient
	for _, e := range rows {
		key := strings.ToLower(e.RecipientAddress)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ActiveRecipient{
			Address:     e.RecipientAddress,
			Name:        e.RecipientName,
			FirstSentAt: *e.SentAt,
		})
	}
	return out, nil
}

// HasCompletionRecord reports whether the pair already has a completion trace.
func (r *Repository) HasCompletionRecord(ownerID uint, address string) (bool, error) {
	var count int64
	err := r.db.Model(&model.CompletionRecord{}).
		Where("owner_id = ? AND LOWER(recipient_address) = LOWER(?)", ownerID, address).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check completion record: %w", err)
	}
	return count > 0, nil
}

// CreateCompletionRecord writes the immutable completion trace.
func (r *Repository) CreateCompletionRecord(rec *model.CompletionRecord) error {
	if err := r.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create completion record: %w", err)
	}
	return nil
}

// ContactedAddresses returns every recipient address ever recorded for
// the owner: live email rows plus completion records left by purged ones.
func (r *Repository) ContactedAddresses(ownerID uint) ([]string, error) {
	var fromEmails []string
	err := r.db.Model(&model.Email{}).Where("owner_id = ?", ownerID).
		Distinct().Pluck("recipient_address", &fromEmails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacted addresses: %w", err)
	}

	var fromCompletions []string
	err = r.db.Model(&model.CompletionRecord{}).Where("owner_id = ?", ownerID).
		Distinct().Pluck("recipient_address", &fromCompletions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed addresses: %w", err)
	}

	return append(fromEmails, fromCompletions...), nil
}

package repository

import (
	"fmt"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// CreateJob inserts a new job row.
func (r *Repository) CreateJob(j *model.Job) error {
	if err := r.db.Create(j).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Job fetches one job by ID, nil if it does not exist.
func (r *Repository) Job(id string) (*model.Job, error) {
	var j model.Job
	err := r.db.Where("id = ?", id).First(&j).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	return &j, nil
}

// UpdateJobProgress persists the counters after one processed item.
// Only the counters: the paused flag is owned by Pause/Resume and a
// whole-row save from the worker would race with it.
func (r *Repository) UpdateJobProgress(id string, processed, success int) error {
	err := r.db.Model(&model.Job{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_items": processed,
			"success_count":   success,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update job %s progress: %w", id, err)
	}
	return nil
}

// SetJobPaused flips the cooperative pause flag.
func (r *Repository) SetJobPaused(id string, paused bool) error {
	err := r.db.Model(&model.Job{}).Where("id = ?", id).
		Update("paused", paused).Error
	if err != nil {
		return fmt.Errorf("failed to set job %s paused=%v: %w", id, paused, err)
	}
	return nil
}

// SetJobWarning records a non-fatal job-level warning while the job
// keeps processing.
func (r *Repository) SetJobWarning(id, message string) error {
	err := r.db.Model(&model.Job{}).Where("id = ?", id).
		Update("error_message", message).Error
	if err != nil {
		return fmt.Errorf("failed to set job %s warning: %w", id, err)
	}
	return nil
}

// FinishJob moves the job to its terminal status. An empty errorMessage
// leaves the column alone so a warning set mid-run survives completion.
func (r *Repository) FinishJob(id, status, errorMessage string) error {
	updates := map[string]interface{}{
		"status": status,
		"paused": false,
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	err := r.db.Model(&model.Job{}).Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	return nil
}

// JobsByOwner lists an owner's jobs, newest first.
func (r *Repository) JobsByOwner(ownerID uint, limit int) ([]model.Job, error) {
	var jobs []model.Job
	q := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

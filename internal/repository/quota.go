package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// QuotaForDay returns the owner's usage row for one day, zero-valued if
// no send has happened yet that day.
func (r *Repository) QuotaForDay(ownerID uint, day string) (*model.QuotaRecord, error) {
	var rec model.QuotaRecord
	err := r.db.Where("owner_id = ? AND day = ?", ownerID, day).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return &model.QuotaRecord{OwnerID: ownerID, Day: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quota record: %w", err)
	}
	return &rec, nil
}

// AddUsage increments the day's counters, creating the row at first use.
func (r *Repository) AddUsage(ownerID uint, day string, sent, newUnique int) error {
	rec, err := r.QuotaForDay(ownerID, day)
	if err != nil {
		return err
	}
	rec.EmailsSent += sent
	rec.UniqueRecipients += newUnique
	rec.LastUpdated = time.Now()
	if rec.ID == 0 {
		if err := r.db.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create quota record: %w", err)
		}
		return nil
	}
	if err := r.db.Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update quota record: %w", err)
	}
	return nil
}

// AddBounce increments the day's bounce counter, creating the row at
// first use.
func (r *Repository) AddBounce(ownerID uint, day string) error {
	rec, err := r.QuotaForDay(ownerID, day)
	if err != nil {
		return err
	}
	rec.EmailsBounced++
	rec.LastUpdated = time.Now()
	if rec.ID == 0 {
		if err := r.db.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create quota record: %w", err)
		}
		return nil
	}
	if err := r.db.Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update quota record: %w", err)
	}
	return nil
}

// RecipientCounted reports whether the address has already been counted
// toward today's unique-recipient quota.
func (r *Repository) RecipientCounted(ownerID uint, day, address string) (bool, error) {
	var count int64
	err := r.db.Model(&model.SentRecipient{}).
		Where("owner_id = ? AND day = ? AND LOWER(address) = LOWER(?)", ownerID, day, address).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check counted recipient: %w", err)
	}
	return count > 0, nil
}

// CountRecipient marks the address as counted for the day.
func (r *Repository) CountRecipient(ownerID uint, day, address string) error {
	rec := model.SentRecipient{OwnerID: ownerID, Day: day, Address: address}
	if err := r.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to count recipient: %w", err)
	}
	return nil
}

// Reputation returns the owner's reputation row, creating the default
// (score 5, warmup status new) on first access.
func (r *Repository) Reputation(ownerID uint) (*model.ReputationRecord, error) {
	var rec model.ReputationRecord
	err := r.db.Where("owner_id = ?", ownerID).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		rec = model.ReputationRecord{OwnerID: ownerID, Score: 5.0, WarmupStatus: model.WarmupNew}
		if err := r.db.Create(&rec).Error; err != nil {
			return nil, fmt.Errorf("failed to create reputation record: %w", err)
		}
		return &rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reputation record: %w", err)
	}
	return &rec, nil
}

// SaveReputation persists a recomputed reputation row.
func (r *Repository) SaveReputation(rec *model.ReputationRecord) error {
	if err := r.db.Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save reputation record: %w", err)
	}
	return nil
}

// LimitRules returns all limit rules.
func (r *Repository) LimitRules() ([]model.LimitRule, error) {
	var rules []model.LimitRule
	if err := r.db.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch limit rules: %w", err)
	}
	return rules, nil
}

// ActivityWindow summarizes the owner's quota records since the given
// time: on how many days they sent anything, how much in total, and how
// many of those sends bounced.
func (r *Repository) ActivityWindow(ownerID uint, since time.Time) (activeDays, totalSent, totalBounced int, err error) {
	var recs []model.QuotaRecord
	day := since.Format("2006-01-02")
	err = r.db.Where("owner_id = ? AND day >= ?", ownerID, day).Find(&recs).Error
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch activity window: %w", err)
	}
	for _, rec := range recs {
		if rec.EmailsSent > 0 {
			activeDays++
			totalSent += rec.EmailsSent
		}
		totalBounced += rec.EmailsBounced
	}
	return activeDays, totalSent, totalBounced, nil
}

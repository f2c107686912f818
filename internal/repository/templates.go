package repository

import (
	"fmt"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// CreateTemplate inserts a template, demoting any existing default of
// the same category first so at most one default exists per
// (owner, category).
func (r *Repository) CreateTemplate(t *model.Template) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if t.IsDefault {
			err := tx.Model(&model.Template{}).
				Where("owner_id = ? AND category = ? AND is_default = ?", t.OwnerID, t.Category, true).
				Update("is_default", false).Error
			if err != nil {
				return fmt.Errorf("failed to demote existing default template: %w", err)
			}
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		return nil
	})
}

// Template fetches one template by ID, nil if it does not exist.
func (r *Repository) Template(id uint) (*model.Template, error) {
	var t model.Template
	err := r.db.First(&t, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template %d: %w", id, err)
	}
	return &t, nil
}

// Templates lists an owner's templates, optionally filtered by category.
func (r *Repository) Templates(ownerID uint, category string) ([]model.Template, error) {
	q := r.db.Where("owner_id = ?", ownerID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var templates []model.Template
	if err := q.Order("id").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// DefaultTemplate returns the owner's default template for a category,
// falling back to any template of that category, nil if none exist.
func (r *Repository) DefaultTemplate(ownerID uint, category string) (*model.Template, error) {
	var t model.Template
	err := r.db.Where("owner_id = ? AND category = ? AND is_default = ?", ownerID, category, true).
		First(&t).Error
	if err == nil {
		return &t, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch default template: %w", err)
	}

	err = r.db.Where("owner_id = ? AND category = ?", ownerID, category).Order("id").First(&t).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template for category %s: %w", category, err)
	}
	return &t, nil
}

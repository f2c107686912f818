package repository

import (
	"fmt"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// Owner fetches one owner by ID, nil if it does not exist.
func (r *Repository) Owner(id uint) (*model.Owner, error) {
	var o model.Owner
	err := r.db.First(&o, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch owner %d: %w", id, err)
	}
	return &o, nil
}

// SaveOwner persists owner profile changes.
func (r *Repository) SaveOwner(o *model.Owner) error {
	if err := r.db.Save(o).Error; err != nil {
		return fmt.Errorf("failed to save owner: %w", err)
	}
	return nil
}

// CreateOwner inserts a new owner.
func (r *Repository) CreateOwner(o *model.Owner) error {
	if err := r.db.Create(o).Error; err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return nil
}

// OwnerIDs returns every owner ID, for the periodic sweeps.
func (r *Repository) OwnerIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Owner{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list owner IDs: %w", err)
	}
	return ids, nil
}

// SharingCollaborators returns the IDs of the owner's collaborators that
// have opted into contact sharing.
func (r *Repository) SharingCollaborators(ownerID uint) ([]uint, error) {
	var owner model.Owner
	err := r.db.Preload("Collaborators").First(&owner, ownerID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collaborators: %w", err)
	}

	var ids []uint
	for _, c := range owner.Collaborators {
		if c.ShareContacts {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

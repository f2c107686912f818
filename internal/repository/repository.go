package repository

import (
	"gorm.io/gorm"
)

// Repository is the gorm-backed store behind every engine. Engines
// declare the narrow interfaces they consume; this type satisfies all
// of them.
type Repository struct {
	db *gorm.DB
}

// New creates a new Repository
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

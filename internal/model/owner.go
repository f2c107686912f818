package model

import (
	"strings"
	"time"
)

// Owner is a sending identity: the person or mailbox on whose behalf
// campaigns are generated and dispatched.
type Owner struct {
	ID                     uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email                  string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name                   string    `json:"name" gorm:"type:varchar(255)"`
	Company                string    `json:"company" gorm:"type:varchar(255)"`
	CompanyProfile         string    `json:"company_profile" gorm:"type:text"`
	FollowupIntervalDays   int       `json:"followup_interval_days" gorm:"default:3"`
	LastchanceIntervalDays int       `json:"lastchance_interval_days" gorm:"default:6"`
	ShareContacts          bool      `json:"share_contacts" gorm:"default:false"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	Collaborators []*Owner `json:"collaborators,omitempty" gorm:"many2many:collaborations;"`
}

// TableName specifies the table name for Owner
func (Owner) TableName() string {
	return "owners"
}

// ProfileComplete reports whether the owner has filled in enough of
// their profile for content generation to personalize emails.
func (o *Owner) ProfileComplete() bool {
	return o.Email != "" && o.Name != "" && o.Company != ""
}

// Template is an owner-authored content template for one stage category.
type Template struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID   uint      `json:"owner_id" gorm:"not null;index"`
	Category  string    `json:"category" gorm:"type:varchar(20);not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(998)"`
	Body      string    `json:"body" gorm:"type:text"`
	IsDefault bool      `json:"is_default" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Template
func (Template) TableName() string {
	return "templates"
}

// Contact is one row of an incoming contact list, before any Email
// exists for it.
type Contact struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

// Valid reports whether the contact has the fields generation requires.
func (c Contact) Valid() bool {
	at := strings.Index(c.Address, "@")
	return at > 0 && at < len(c.Address)-1
}

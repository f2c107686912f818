package model

import (
	"time"
)

// Warm-up statuses for a sending identity. New and restricted are only
// entered or left by explicit action; warming and active are earned.
const (
	WarmupNew        = "new"
	WarmupWarming    = "warming"
	WarmupActive     = "active"
	WarmupRestricted = "restricted"
)

// Limit rule types understood by the governor.
const (
	RuleDailySend        = "daily_send"
	RuleUniqueRecipients = "unique_recipients"
)

// QuotaRecord tracks one owner's send usage for one calendar day.
// Counters only ever increase within a day; a new row starts each day.
type QuotaRecord struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID          uint      `json:"owner_id" gorm:"not null;uniqueIndex:idx_quota_owner_day"`
	Day              string    `json:"day" gorm:"type:varchar(10);not null;uniqueIndex:idx_quota_owner_day"`
	EmailsSent       int       `json:"emails_sent"`
	EmailsBounced    int       `json:"emails_bounced"`
	UniqueRecipients int       `json:"unique_recipients"`
	LastUpdated      time.Time `json:"last_updated"`
}

// TableName specifies the table name for QuotaRecord
func (QuotaRecord) TableName() string {
	return "quota_records"
}

// SentRecipient backs the unique-recipients-per-day counter: one row per
// (owner, day, address) that has been counted.
type SentRecipient struct {
	ID      uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID uint   `json:"owner_id" gorm:"not null;uniqueIndex:idx_sent_owner_day_addr"`
	Day     string `json:"day" gorm:"type:varchar(10);not null;uniqueIndex:idx_sent_owner_day_addr"`
	Address string `json:"address" gorm:"type:varchar(255);not null;uniqueIndex:idx_sent_owner_day_addr"`
}

// TableName specifies the table name for SentRecipient
func (SentRecipient) TableName() string {
	return "sent_recipients"
}

// ReputationRecord holds the derived delivery-health score for one owner.
type ReputationRecord struct {
	ID                   uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID              uint      `json:"owner_id" gorm:"not null;uniqueIndex"`
	Score                float64   `json:"score" gorm:"default:5"`
	TotalSent            int       `json:"total_sent"`
	TotalBounced         int       `json:"total_bounced"`
	TotalSpamReports     int       `json:"total_spam_reports"`
	SuccessfulDeliveries int       `json:"successful_deliveries"`
	WarmupStatus         string    `json:"warmup_status" gorm:"type:varchar(20);default:'new'"`
	LastCalculated       time.Time `json:"last_calculated"`
}

// TableName specifies the table name for ReputationRecord
func (ReputationRecord) TableName() string {
	return "reputation_records"
}

// LimitRule is static quota configuration: the floor/ceiling values the
// governor picks between depending on reputation tier.
type LimitRule struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RuleType     string `json:"rule_type" gorm:"type:varchar(50);not null;uniqueIndex"`
	DefaultValue int    `json:"default_value"`
	WarmupValue  int    `json:"warmup_value"`
	MaxValue     int    `json:"max_value"`
}

// TableName specifies the table name for LimitRule
func (LimitRule) TableName() string {
	return "limit_rules"
}

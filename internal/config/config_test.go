package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"outreach-engine-go/internal/model"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Database: DatabaseConfig{
			Host:   "localhost",
			User:   "test",
			DBName: "test",
		},
		Campaign: CampaignConfig{
			FollowupIntervalDays:   3,
			LastchanceIntervalDays: 6,
			PausePollInterval:      time.Second,
		},
		Quota: QuotaConfig{
			WarmupDailyLimit:     50,
			DefaultDailyLimit:    200,
			MaxDailyLimit:        500,
			WarmupRecipientLimit: 25,
			DefaultRecipient:     100,
			MaxRecipient:         250,
			LowQuotaWarning:      50,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	missingPort := validConfig()
	missingPort.Server.Port = ""
	assert.Error(t, missingPort.Validate())

	missingDB := validConfig()
	missingDB.Database.User = ""
	assert.Error(t, missingDB.Validate())

	gmailWithoutCreds := validConfig()
	gmailWithoutCreds.Gmail.Enabled = true
	assert.Error(t, gmailWithoutCreds.Validate())

	imapWithoutCreds := validConfig()
	imapWithoutCreds.IMAP.Enabled = true
	assert.Error(t, imapWithoutCreds.Validate())

	invertedIntervals := validConfig()
	invertedIntervals.Campaign.FollowupIntervalDays = 6
	invertedIntervals.Campaign.LastchanceIntervalDays = 3
	assert.Error(t, invertedIntervals.Validate())

	invertedQuota := validConfig()
	invertedQuota.Quota.DefaultDailyLimit = 10
	assert.Error(t, invertedQuota.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	config := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	dsn := config.GetDSN()
	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, expected, dsn)
}

func TestQuotaLimitRules(t *testing.T) {
	rules := validConfig().Quota.LimitRules()

	assert.Len(t, rules, 2)
	byType := make(map[string]model.LimitRule)
	for _, r := range rules {
		byType[r.RuleType] = r
	}

	daily := byType[model.RuleDailySend]
	assert.Equal(t, 50, daily.WarmupValue)
	assert.Equal(t, 200, daily.DefaultValue)
	assert.Equal(t, 500, daily.MaxValue)

	recipients := byType[model.RuleUniqueRecipients]
	assert.Equal(t, 25, recipients.WarmupValue)
	assert.Equal(t, 100, recipients.DefaultValue)
	assert.Equal(t, 250, recipients.MaxValue)
}

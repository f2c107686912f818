package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"outreach-engine-go/internal/config"
	"outreach-engine-go/internal/model"
)

// InitDatabase initializes the database connection and runs migrations
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Database initialized successfully")
	return db, nil
}

func runMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&model.Owner{},
		&model.Template{},
		&model.Email{},
		&model.CompletionRecord{},
		&model.Job{},
		&model.QuotaRecord{},
		&model.SentRecipient{},
		&model.ReputationRecord{},
		&model.LimitRule{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// SeedLimitRules inserts the configured limit rules if no row exists yet
// for their type. Existing rows win so operators can tune them in place.
func SeedLimitRules(db *gorm.DB, rules []model.LimitRule) error {
	for _, rule := range rules {
		var existing model.LimitRule
		err := db.Where("rule_type = ?", rule.RuleType).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check limit rule %s: %w", rule.RuleType, err)
		}
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to seed limit rule %s: %w", rule.RuleType, err)
		}
		logrus.Infof("Seeded limit rule %s (warmup=%d default=%d max=%d)",
			rule.RuleType, rule.WarmupValue, rule.DefaultValue, rule.MaxValue)
	}
	return nil
}

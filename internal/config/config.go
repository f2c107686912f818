package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"outreach-engine-go/internal/model"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gmail     GmailConfig     `mapstructure:"gmail"`
	IMAP      IMAPConfig      `mapstructure:"imap"`
	Campaign  CampaignConfig  `mapstructure:"campaign"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GmailConfig holds Gmail API sending credentials
type GmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
}

// IMAPConfig holds the mailbox credentials the reply probe reads from
type IMAPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// CampaignConfig holds stage-lifecycle and batch-engine tuning
type CampaignConfig struct {
	FollowupIntervalDays   int           `mapstructure:"followup_interval_days"`
	LastchanceIntervalDays int           `mapstructure:"lastchance_interval_days"`
	PausePollInterval      time.Duration `mapstructure:"pause_poll_interval"`
}

// QuotaConfig holds the sending-rate governor tuning. The warm-up daily
// limit differs between deployments (legacy systems used both 50 and 20),
// so it is configuration, not code.
type QuotaConfig struct {
	WarmupDailyLimit     int `mapstructure:"warmup_daily_limit"`
	DefaultDailyLimit    int `mapstructure:"default_daily_limit"`
	MaxDailyLimit        int `mapstructure:"max_daily_limit"`
	WarmupRecipientLimit int `mapstructure:"warmup_recipient_limit"`
	DefaultRecipient     int `mapstructure:"default_recipient_limit"`
	MaxRecipient         int `mapstructure:"max_recipient_limit"`
	LowQuotaWarning      int `mapstructure:"low_quota_warning"`
}

// SchedulerConfig holds cron schedules for the periodic sweeps
type SchedulerConfig struct {
	ReputationSpec string `mapstructure:"reputation_spec"`
	DueSweepSpec   string `mapstructure:"due_sweep_spec"`
	ReplySweepSpec string `mapstructure:"reply_sweep_spec"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("gmail.enabled", false)

	viper.SetDefault("imap.enabled", false)
	viper.SetDefault("imap.host", "imap.gmail.com")
	viper.SetDefault("imap.port", 993)

	viper.SetDefault("campaign.followup_interval_days", 3)
	viper.SetDefault("campaign.lastchance_interval_days", 6)
	viper.SetDefault("campaign.pause_poll_interval", "1s")

	viper.SetDefault("quota.warmup_daily_limit", 50)
	viper.SetDefault("quota.default_daily_limit", 200)
	viper.SetDefault("quota.max_daily_limit", 500)
	viper.SetDefault("quota.warmup_recipient_limit", 25)
	viper.SetDefault("quota.default_recipient_limit", 100)
	viper.SetDefault("quota.max_recipient_limit", 250)
	viper.SetDefault("quota.low_quota_warning", 50)

	viper.SetDefault("scheduler.reputation_spec", "0 0 3 * * *")
	viper.SetDefault("scheduler.due_sweep_spec", "0 0 * * * *")
	viper.SetDefault("scheduler.reply_sweep_spec", "0 30 * * * *")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")
	viper.BindEnv("database.sslmode", "DB_SSLMODE")

	viper.BindEnv("gmail.enabled", "GMAIL_ENABLED")
	viper.BindEnv("gmail.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("gmail.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("gmail.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("gmail.user_email", "GMAIL_USER_EMAIL")

	viper.BindEnv("imap.enabled", "IMAP_ENABLED")
	viper.BindEnv("imap.host", "IMAP_HOST")
	viper.BindEnv("imap.port", "IMAP_PORT")
	viper.BindEnv("imap.user", "IMAP_USER")
	viper.BindEnv("imap.password", "IMAP_PASSWORD")

	viper.BindEnv("campaign.followup_interval_days", "CAMPAIGN_FOLLOWUP_INTERVAL_DAYS")
	viper.BindEnv("campaign.lastchance_interval_days", "CAMPAIGN_LASTCHANCE_INTERVAL_DAYS")
	viper.BindEnv("campaign.pause_poll_interval", "CAMPAIGN_PAUSE_POLL_INTERVAL")

	viper.BindEnv("quota.warmup_daily_limit", "QUOTA_WARMUP_DAILY_LIMIT")
	viper.BindEnv("quota.default_daily_limit", "QUOTA_DEFAULT_DAILY_LIMIT")
	viper.BindEnv("quota.max_daily_limit", "QUOTA_MAX_DAILY_LIMIT")
	viper.BindEnv("quota.warmup_recipient_limit", "QUOTA_WARMUP_RECIPIENT_LIMIT")
	viper.BindEnv("quota.default_recipient_limit", "QUOTA_DEFAULT_RECIPIENT_LIMIT")
	viper.BindEnv("quota.max_recipient_limit", "QUOTA_MAX_RECIPIENT_LIMIT")
	viper.BindEnv("quota.low_quota_warning", "QUOTA_LOW_QUOTA_WARNING")

	viper.BindEnv("scheduler.reputation_spec", "SCHEDULER_REPUTATION_SPEC")
	viper.BindEnv("scheduler.due_sweep_spec", "SCHEDULER_DUE_SWEEP_SPEC")
	viper.BindEnv("scheduler.reply_sweep_spec", "SCHEDULER_REPLY_SWEEP_SPEC")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// LimitRules maps the quota configuration onto the seed rule rows the
// governor reads at runtime.
func (c *QuotaConfig) LimitRules() []model.LimitRule {
	return []model.LimitRule{
		{RuleType: model.RuleDailySend, DefaultValue: c.DefaultDailyLimit, WarmupValue: c.WarmupDailyLimit, MaxValue: c.MaxDailyLimit},
		{RuleType: model.RuleUniqueRecipients, DefaultValue: c.DefaultRecipient, WarmupValue: c.WarmupRecipientLimit, MaxValue: c.MaxRecipient},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Gmail.Enabled {
		if c.Gmail.ClientID == "" || c.Gmail.ClientSecret == "" || c.Gmail.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required when gmail delivery is enabled")
		}
	}

	if c.IMAP.Enabled {
		if c.IMAP.User == "" || c.IMAP.Password == "" {
			return fmt.Errorf("IMAP credentials are required when the reply probe is enabled")
		}
	}

	if c.Campaign.FollowupIntervalDays <= 0 || c.Campaign.LastchanceIntervalDays <= c.Campaign.FollowupIntervalDays {
		return fmt.Errorf("lastchance interval must be greater than followup interval, both positive")
	}

	if c.Campaign.PausePollInterval <= 0 {
		return fmt.Errorf("pause poll interval must be greater than 0")
	}

	if c.Quota.WarmupDailyLimit <= 0 || c.Quota.DefaultDailyLimit < c.Quota.WarmupDailyLimit || c.Quota.MaxDailyLimit < c.Quota.DefaultDailyLimit {
		return fmt.Errorf("daily quota limits must satisfy 0 < warmup <= default <= max")
	}

	return nil
}

package config

import (
	"time"

	"github.com/s0up4200/jellyrequest/jellyseerr"
)

// Config represents the complete configuration structure
type Config struct {
	Jellyseerr JellyseerrConfig `mapstructure:"jellyseerr"`
	IMDb       IMDbConfig       `mapstructure:"imdb"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Request    RequestConfig    `mapstructure:"request"`
	Filter     FilterConfig     `mapstructure:"filter"`
	Safety     SafetyConfig     `mapstructure:"safety"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// JellyseerrConfig holds Jellyseerr API connection details
type JellyseerrConfig struct {
	URL        string        `mapstructure:"url" validate:"required,http_url"`
	APIKey     string        `mapstructure:"api_key" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RateLimit  float64       `mapstructure:"rate_limit" validate:"gte=0"`
}

// IMDbConfig describes the listing page
type IMDbConfig struct {
	URL        string        `mapstructure:"url" validate:"required,http_url"`
	Limit      int           `mapstructure:"limit" validate:"gte=1,lte=250"`
	UserAgent  string        `mapstructure:"user_agent" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// ScheduleConfig controls how often a run happens
type ScheduleConfig struct {
	IntervalDays int `mapstructure:"interval_days" validate:"gte=1"`
}

// Interval returns the time between runs
func (c ScheduleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalDays) * 24 * time.Hour
}

// RequestConfig holds the flags sent with every request
type RequestConfig struct {
	Is4K        bool   `mapstructure:"is_4k"`
	AutoApprove bool   `mapstructure:"auto_approve"`
	ServerID    *int   `mapstructure:"server_id" validate:"omitempty,gte=0"`
	ProfileID   *int   `mapstructure:"profile_id" validate:"omitempty,gte=0"`
	RootFolder  string `mapstructure:"root_folder"`
	UserID      *int   `mapstructure:"user_id" validate:"omitempty,gte=1"`
}

// Options converts the request settings into client options
func (c RequestConfig) Options() jellyseerr.RequestOptions {
	return jellyseerr.RequestOptions{
		Is4K:        c.Is4K,
		AutoApprove: c.AutoApprove,
		ServerID:    c.ServerID,
		ProfileID:   c.ProfileID,
		RootFolder:  c.RootFolder,
		UserID:      c.UserID,
	}
}

// FilterConfig holds the optional request filter
type FilterConfig struct {
	Expression string `mapstructure:"expression"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Verbosity  string `mapstructure:"verbosity" validate:"verbosity"`
	Format     string `mapstructure:"format" validate:"oneof=console json"`
	Color      string `mapstructure:"color" validate:"oneof=auto always never"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// MetricsConfig controls the optional Prometheus listener
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"omitempty,hostname_port"`
}

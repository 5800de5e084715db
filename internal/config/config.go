package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Media     MediaConfig     `mapstructure:"media"     validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig controls the task runner: pool size, queue capacity and
// the two timeout ceilings (per-task ceiling and monitor sweep interval).
type SchedulerConfig struct {
	WorkerCount     int           `mapstructure:"worker_count"     validate:"required,gt=0"`
	QueueSize       int           `mapstructure:"queue_size"       validate:"required,gt=0"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout"     validate:"required"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval" validate:"required"`
	DequeueTimeout  time.Duration `mapstructure:"dequeue_timeout"  validate:"required"`
}

// LLMConfig contains settings for the Gemini script analyzer and prompt rewriter.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// MediaConfig contains settings for the media generation provider
// (speech, image and video synthesis) and the supervised-call policies.
type MediaConfig struct {
	AccessKey        string        `mapstructure:"access_key" validate:"required"`
	SecretKey        string        `mapstructure:"secret_key" validate:"required"`
	BaseURL          string        `mapstructure:"base_url"   validate:"required,url"`
	PollInterval     time.Duration `mapstructure:"poll_interval"      validate:"required"`
	QueuedInterval   time.Duration `mapstructure:"queued_interval"    validate:"required"`
	PollMaxAttempts  int           `mapstructure:"poll_max_attempts"  validate:"required,gt=0"`
	PolicyRetryLimit int           `mapstructure:"policy_retry_limit" validate:"required,gt=0"`
}

// StorageConfig contains local filesystem paths for intermediate and final artifacts.
type StorageConfig struct {
	MediaDir  string `mapstructure:"media_dir"  validate:"required"`
	OutputDir string `mapstructure:"output_dir" validate:"required"`
}

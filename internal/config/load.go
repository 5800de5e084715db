package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and environment
// variables, applies defaults, and validates the result. Environment
// variables use the REELFORGE_ prefix and take precedence over file values,
// e.g. REELFORGE_DATABASE_URL overrides database.url.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("REELFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env vars and defaults still apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Keys without a meaningful default still need a registered default so
	// that AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("media.access_key", "")
	v.SetDefault("media.secret_key", "")
	v.SetDefault("media.base_url", "")

	v.SetDefault("scheduler.worker_count", 3)
	v.SetDefault("scheduler.queue_size", 100)
	v.SetDefault("scheduler.task_timeout", time.Hour)
	v.SetDefault("scheduler.monitor_interval", 30*time.Second)
	v.SetDefault("scheduler.dequeue_timeout", time.Second)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("media.poll_interval", 5*time.Second)
	v.SetDefault("media.queued_interval", 15*time.Second)
	v.SetDefault("media.poll_max_attempts", 60)
	v.SetDefault("media.policy_retry_limit", 3)

	v.SetDefault("storage.media_dir", "data/media")
	v.SetDefault("storage.output_dir", "data/output")
}

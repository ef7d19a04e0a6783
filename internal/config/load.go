package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and from environment
// variables with the UPKEEP_ prefix (e.g. UPKEEP_DATABASE_URL maps to
// database.url). Environment variables take precedence over file values,
// which take precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env and defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("UPKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateProviderKey(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values for every setting that has a sensible
// one. Secrets (database URL, JWT secret, API keys) have no defaults and must
// be supplied.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_lifetime_minutes", 10080) // 7 days
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model_name", "gpt-4.1-mini")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("generation.daily_task_limit", 100)
	v.SetDefault("generation.worker_count", 2)
	v.SetDefault("generation.queue_size", 100)
	v.SetDefault("generation.stuck_item_age_minutes", 30)
	v.SetDefault("generation.stuck_check_interval_minutes", 5)
	v.SetDefault("generation.poll_ceiling_seconds", 45)
	v.SetDefault("generation.poll_interval_millis", 800)
}

// validateProviderKey checks that the API key for the selected provider is
// present. The unselected provider's key may be empty.
func validateProviderKey(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("invalid configuration: llm.openai_api_key is required when llm.provider is openai")
		}
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("invalid configuration: llm.gemini_api_key is required when llm.provider is gemini")
		}
	}
	return nil
}

package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret              string `mapstructure:"jwt_secret"               validate:"required,min=32"`
	TokenLifetimeMinutes   int    `mapstructure:"token_lifetime_minutes"   validate:"required,gt=0"`
	RefreshLifetimeMinutes int    `mapstructure:"refresh_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost             int    `mapstructure:"bcrypt_cost"              validate:"gte=0,lte=31"`
}

// LLMConfig contains the generation provider settings. Provider selects the
// backend; only the selected provider's API key needs to be set.
type LLMConfig struct {
	Provider          string `mapstructure:"provider"            validate:"required,oneof=openai gemini"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// GenerationConfig tunes the background generation pipeline and the
// long-poll delivery gateway.
type GenerationConfig struct {
	// DailyTaskLimit caps how many tasks may be generated per user per
	// local calendar day.
	DailyTaskLimit int `mapstructure:"daily_task_limit" validate:"required,gt=0"`

	// WorkerCount and QueueSize size the background job runner.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`

	// StuckItemAgeMinutes and StuckCheckIntervalMinutes drive the sweep
	// that re-enqueues items stuck in pending after a crash.
	StuckItemAgeMinutes       int `mapstructure:"stuck_item_age_minutes"       validate:"required,gt=0"`
	StuckCheckIntervalMinutes int `mapstructure:"stuck_check_interval_minutes" validate:"required,gt=0"`

	// PollCeilingSeconds and PollIntervalMillis bound the long-poll wait.
	PollCeilingSeconds int `mapstructure:"poll_ceiling_seconds" validate:"required,gt=0"`
	PollIntervalMillis int `mapstructure:"poll_interval_millis" validate:"required,gt=0"`
}

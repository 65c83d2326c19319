package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Admission AdmissionConfig `mapstructure:"admission" validate:"required"`
	Worker    WorkerConfig    `mapstructure:"worker" validate:"required"`
	Model     ModelConfig     `mapstructure:"model" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// AdmissionConfig bounds what submissions are accepted.
type AdmissionConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes" validate:"required,gt=0"`
	MaxPages     int   `mapstructure:"max_pages" validate:"required,gt=0"`
}

// WorkerConfig controls the scheduler and the retry policy of the
// execution workers.
type WorkerConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"required,gt=0"`
	QueueSize     int `mapstructure:"queue_size" validate:"required,gt=0"`
	MaxAttempts   int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// RetryBaseDelay is the base of the exponential backoff between
	// attempts.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"required"`

	// QueueBackend selects the pending-queue implementation.
	QueueBackend string `mapstructure:"queue_backend" validate:"required,oneof=memory redis"`

	// RedisAddr is required when QueueBackend is "redis".
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=QueueBackend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// ModelConfig contains all vision-language model integration settings.
type ModelConfig struct {
	APIKey             string        `mapstructure:"api_key" validate:"required"`
	ModelName          string        `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string        `mapstructure:"prompt_template_path" validate:"required"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"required"`
}

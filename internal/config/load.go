package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory. A missing file is
	// fine; environment variables alone are a complete configuration.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables with the EXTRACT_ prefix override file
	// values, e.g. EXTRACT_SERVER_PORT, EXTRACT_MODEL_API_KEY.
	v.SetEnvPrefix("EXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("admission.max_size_bytes", 50*1024*1024)
	v.SetDefault("admission.max_pages", 300)

	v.SetDefault("worker.max_concurrent", 5)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.retry_base_delay", "2s")
	v.SetDefault("worker.queue_backend", "memory")
	v.SetDefault("worker.redis_db", 0)

	v.SetDefault("model.model_name", "gemini-2.0-flash")
	v.SetDefault("model.prompt_template_path", "prompts/extraction.tmpl")
	v.SetDefault("model.timeout", "120s")
}

// bindEnvKeys registers every config key with viper so AutomaticEnv
// picks them up even when the key is absent from defaults and file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"admission.max_size_bytes",
		"admission.max_pages",
		"worker.max_concurrent",
		"worker.queue_size",
		"worker.max_attempts",
		"worker.retry_base_delay",
		"worker.queue_backend",
		"worker.redis_addr",
		"worker.redis_password",
		"worker.redis_db",
		"model.api_key",
		"model.model_name",
		"model.prompt_template_path",
		"model.timeout",
	}
	for _, key := range keys {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key)
	}
}

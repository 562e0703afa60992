package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads application configuration from environment variables (with
// the "TACTICS_" prefix), an optional config.yaml in the working
// directory, and built-in defaults, in that order of precedence, and
// validates the result.
func Load() (*Config, error) {
	return LoadWithLogger(nil)
}

// LoadWithLogger is Load, but logs which configuration values were
// sourced from legacy environment variables.
func LoadWithLogger(logger *slog.Logger) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("admin.bcrypt_cost", 10)
	v.SetDefault("scheduler.day_end_hour", 4)
	v.SetDefault("scheduler.review_order", "due_time")
	v.SetDefault("puzzle.rating_variation_up", 0.1)
	v.SetDefault("puzzle.rating_variation_down", 0.1)
	v.SetDefault("backup.interval_hours", 24)
	v.SetDefault("backup.directory", "./backups")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file: %v\n", err)
		}
	}

	v.SetEnvPrefix("TACTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvs := []struct {
		key           string
		envVar        string
		legacyEnvVars []string
	}{
		{"database.url", "TACTICS_DATABASE_URL", []string{"DATABASE_URL"}},
		{"admin.password_hash", "TACTICS_ADMIN_PASSWORD_HASH", nil},
		{"admin.bcrypt_cost", "TACTICS_ADMIN_BCRYPT_COST", nil},
		{"server.port", "TACTICS_SERVER_PORT", nil},
		{"server.log_level", "TACTICS_SERVER_LOG_LEVEL", []string{"LOG_LEVEL"}},
		{"scheduler.day_end_hour", "TACTICS_SCHEDULER_DAY_END_HOUR", []string{"DAY_END_HOUR"}},
		{"scheduler.review_order", "TACTICS_SCHEDULER_REVIEW_ORDER", nil},
		{"puzzle.rating_variation_up", "TACTICS_PUZZLE_RATING_VARIATION_UP", nil},
		{"puzzle.rating_variation_down", "TACTICS_PUZZLE_RATING_VARIATION_DOWN", nil},
		{"backup.interval_hours", "TACTICS_BACKUP_INTERVAL_HOURS", nil},
		{"backup.directory", "TACTICS_BACKUP_DIRECTORY", []string{"BACKUP_DIR"}},
	}

	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}

		if len(env.legacyEnvVars) > 0 && os.Getenv(env.envVar) == "" {
			for _, legacyEnvVar := range env.legacyEnvVars {
				legacyValue := os.Getenv(legacyEnvVar)
				if legacyValue == "" {
					continue
				}
				os.Setenv(env.envVar, legacyValue)
				if logger != nil {
					logger.Warn("using legacy environment variable",
						slog.String("legacy_var", legacyEnvVar),
						slog.String("preferred_var", env.envVar),
						slog.String("config_key", env.key))
				} else {
					fmt.Printf("Warning: using legacy environment variable %s. Please use %s instead.\n",
						legacyEnvVar, env.envVar)
				}
				break
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

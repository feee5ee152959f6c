// Package config provides configuration loading, validation, and management
// for the reminder bot. It reads a YAML file, applies REMINDER_* environment
// overrides and default values, and validates the result.
package config

import "time"

// Config defines the application configuration parameters.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`

	// Timezone is the IANA name used to interpret reminder dates ("Local" for the host zone).
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// TelegramConfig holds settings for the Telegram transport.
type TelegramConfig struct {
	Token            string        `mapstructure:"token"             validate:"required"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"min=1s,max=5m"`
}

// DatabaseConfig holds settings for the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
	// Retention is how long delivered reminders are kept before maintenance purges them.
	Retention time.Duration `mapstructure:"retention" validate:"min=1h"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a six-field cron expression (with seconds).
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-facing reply text.
type MessagesConfig struct {
	// Greeting may contain {name}, replaced with the user's first name.
	Greeting        string `mapstructure:"greeting"         validate:"required"`
	Saved           string `mapstructure:"saved"            validate:"required"`
	MalformedInput  string `mapstructure:"malformed_input"  validate:"required"`
	InvalidDate     string `mapstructure:"invalid_date"     validate:"required"`
	MalformedUpdate string `mapstructure:"malformed_update" validate:"required"`
}

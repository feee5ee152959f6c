package config

import "time"

// Task names known to the scheduler.
const (
	TaskDueReminders   = "due_reminders"
	TaskSQLMaintenance = "sql_maintenance"
)

// Default values for configuration.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath      = "reminders.db"
	DefaultDBRetention = 30 * 24 * time.Hour

	DefaultTelegramOperationTimeout = 15 * time.Second

	DefaultTimezone = "Local"

	// Second 0 of every minute.
	DefaultDueRemindersSchedule = "0 * * * * *"
	// 03:00:00 every day.
	DefaultSQLMaintenanceSchedule = "0 0 3 * * *"
)

// DefaultMessages are the reply texts used when the config file does not override them.
var DefaultMessages = MessagesConfig{
	Greeting:        "Привет, {name}, напиши напоминание в формате : dd.mm.yyyy HH:MM текст напоминания",
	Saved:           "Напоминание сохранено!",
	MalformedInput:  "Неправильный формат, попробуй dd.mm.yyyy HH:MM текст ",
	InvalidDate:     "Ошибка даты, попробуй снова",
	MalformedUpdate: "Ошибка формата сообщения",
}

// defaults is applied to viper before the config file is read.
var defaults = map[string]any{
	"logger.level": DefaultLogLevel,
	"logger.json":  DefaultLogJSON,

	"database.path":      DefaultDBPath,
	"database.retention": DefaultDBRetention,

	"telegram.operation_timeout": DefaultTelegramOperationTimeout,

	"timezone": DefaultTimezone,

	"scheduler.tasks." + TaskDueReminders + ".enabled":    true,
	"scheduler.tasks." + TaskDueReminders + ".schedule":   DefaultDueRemindersSchedule,
	"scheduler.tasks." + TaskSQLMaintenance + ".enabled":  true,
	"scheduler.tasks." + TaskSQLMaintenance + ".schedule": DefaultSQLMaintenanceSchedule,

	"messages.greeting":         DefaultMessages.Greeting,
	"messages.saved":            DefaultMessages.Saved,
	"messages.malformed_input":  DefaultMessages.MalformedInput,
	"messages.invalid_date":     DefaultMessages.InvalidDate,
	"messages.malformed_update": DefaultMessages.MalformedUpdate,
}

// Default returns a Config populated with default values only. The Telegram
// token is left empty, so the result does not pass Validate.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			OperationTimeout: DefaultTelegramOperationTimeout,
		},
		Database: DatabaseConfig{
			Path:      DefaultDBPath,
			Retention: DefaultDBRetention,
		},
		Logger: LoggerConfig{
			Level: DefaultLogLevel,
			JSON:  DefaultLogJSON,
		},
		Scheduler: SchedulerConfig{
			Tasks: map[string]TaskConfig{
				TaskDueReminders:   {Enabled: true, Schedule: DefaultDueRemindersSchedule},
				TaskSQLMaintenance: {Enabled: true, Schedule: DefaultSQLMaintenanceSchedule},
			},
		},
		Messages: DefaultMessages,
		Timezone: DefaultTimezone,
	}
}

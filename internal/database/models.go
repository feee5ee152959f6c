package database

import (
	"database/sql"
	"time"
)

// DueAtLayout is the storage layout of a reminder's due minute. It carries the
// local wall clock only, so equality on the column is equality on the minute.
const DueAtLayout = "2006-01-02 15:04"

// Reminder represents a scheduled reminder created from a chat message.
// DueAt is always minute-aligned and, like ChatID and Body, never changes
// after the record is stored.
type Reminder struct {
	ID        int64
	ChatID    int64
	Body      string
	DueAt     time.Time
	CreatedAt time.Time

	DeliveredAt sql.NullTime // set once, after the reminder was sent successfully
}

// reminderRow is the on-disk shape of a Reminder. Timestamps are kept as TEXT
// so the SQLite driver never reinterprets them.
type reminderRow struct {
	ID          int64          `db:"id"`
	ChatID      int64          `db:"chat_id"`
	Body        string         `db:"body"`
	DueAt       string         `db:"due_at"`
	CreatedAt   string         `db:"created_at"`
	DeliveredAt sql.NullString `db:"delivered_at"`
}

// DueKey formats t as the minute key used by the due_at column.
func DueKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Truncate(time.Minute).Format(DueAtLayout)
}

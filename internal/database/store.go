package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrReminderNotFound is returned when an operation targets a reminder id that does not exist.
var ErrReminderNotFound = errors.New("reminder not found")

// Store defines the interface for reminder persistence.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Create stores a new reminder and returns its id. dueAt is truncated to the minute.
	Create(ctx context.Context, chatID int64, body string, dueAt time.Time) (int64, error)

	// FindDueAt returns the undelivered reminders whose due minute equals dueAt exactly.
	FindDueAt(ctx context.Context, dueAt time.Time) ([]Reminder, error)

	// MarkDelivered stamps a reminder as delivered so it is never matched again.
	MarkDelivered(ctx context.Context, id int64, at time.Time) error

	// PurgeDelivered deletes reminders delivered before olderThan and returns how many were removed.
	PurgeDelivered(ctx context.Context, olderThan time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	loc    *time.Location
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// Due minutes are interpreted as wall-clock times in loc (time.Local when nil).
func NewStore(db *sqlx.DB, loc *time.Location, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if loc == nil {
		loc = time.Local
	}
	return &sqlxStore{
		db:     db,
		loc:    loc,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) Create(ctx context.Context, chatID int64, body string, dueAt time.Time) (int64, error) {
	if chatID == 0 {
		return 0, fmt.Errorf("reminder must have a non-zero chat_id")
	}
	if body == "" {
		return 0, fmt.Errorf("reminder must have a non-empty body")
	}
	if dueAt.IsZero() {
		return 0, fmt.Errorf("reminder must have a non-zero due time")
	}

	row := reminderRow{
		ChatID:    chatID,
		Body:      body,
		DueAt:     DueKey(dueAt, s.loc),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	query := `
        INSERT INTO reminders (chat_id, body, due_at, created_at)
        VALUES (:chat_id, :body, :due_at, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving reminder", "chat_id", chatID, "due_at", row.DueAt, "error", err)
		return 0, fmt.Errorf("failed to save reminder (chat %d): %w", chatID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read id of saved reminder (chat %d): %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Reminder saved successfully", "chat_id", chatID, "reminder_id", id, "due_at", row.DueAt)
	return id, nil
}

func (s *sqlxStore) FindDueAt(ctx context.Context, dueAt time.Time) ([]Reminder, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	key := DueKey(dueAt, s.loc)
	query := `
        SELECT id, chat_id, body, due_at, created_at, delivered_at
        FROM reminders
        WHERE due_at = ? AND delivered_at IS NULL
        ORDER BY id ASC;
    `

	var rows []reminderRow
	err := s.db.SelectContext(ctx, &rows, query, key)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching due reminders", "due_at", key, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching due reminders", "due_at", key, "error", err)
		return nil, fmt.Errorf("failed to get reminders due at %s: %w", key, err)
	}

	reminders := make([]Reminder, 0, len(rows))
	for _, row := range rows {
		r, err := s.fromRow(row)
		if err != nil {
			// One corrupt row must not hide the rest of the minute.
			s.logger.ErrorContext(ctx, "Skipping unreadable reminder row", "reminder_id", row.ID, "error", err)
			continue
		}
		reminders = append(reminders, r)
	}

	s.logger.DebugContext(ctx, "Fetched due reminders", "due_at", key, "count", len(reminders))
	return reminders, nil
}

func (s *sqlxStore) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE reminders SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL;`

	result, err := s.db.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking reminder delivered", "reminder_id", id, "error", err)
		return fmt.Errorf("failed to mark reminder %d delivered: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for reminder %d: %w", id, err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM reminders WHERE id = ?);`, id); err != nil {
			return fmt.Errorf("failed to check reminder %d: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("%w: %d", ErrReminderNotFound, id)
		}
		s.logger.DebugContext(ctx, "Reminder already marked delivered", "reminder_id", id)
	}
	return nil
}

func (s *sqlxStore) PurgeDelivered(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM reminders WHERE delivered_at IS NOT NULL AND delivered_at < ?;`

	result, err := s.db.ExecContext(ctx, query, olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error purging delivered reminders", "error", err)
		return 0, fmt.Errorf("failed to purge delivered reminders: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purged row count: %w", err)
	}

	s.logger.InfoContext(ctx, "Purged delivered reminders", "deleted", deleted, "older_than", olderThan.UTC())
	return deleted, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error running VACUUM", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully.")
	return nil
}

func (s *sqlxStore) fromRow(row reminderRow) (Reminder, error) {
	dueAt, err := time.ParseInLocation(DueAtLayout, row.DueAt, s.loc)
	if err != nil {
		return Reminder{}, fmt.Errorf("invalid due_at %q: %w", row.DueAt, err)
	}

	r := Reminder{
		ID:     row.ID,
		ChatID: row.ChatID,
		Body:   row.Body,
		DueAt:  dueAt,
	}

	if createdAt, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		r.CreatedAt = createdAt
	}
	if row.DeliveredAt.Valid {
		if deliveredAt, err := time.Parse(time.RFC3339, row.DeliveredAt.String); err == nil {
			r.DeliveredAt = sql.NullTime{Time: deliveredAt, Valid: true}
		}
	}
	return r, nil
}

// Package database provides database setup, models, and data access layer (Store).
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/remindbot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// BusyTimeoutMillis is how long a statement waits on a locked database before failing.
const BusyTimeoutMillis = 5000

// NewDB opens the reminder database at dbPath (a file path or a file: URI),
// applies connection pragmas and brings the schema up to date.
func NewDB(dbPath string) (*sqlx.DB, error) {
	dbName := ExtractDBNameFromPath(dbPath)
	if dbName == "" {
		return nil, errors.New("database path is empty")
	}

	memory := isMemoryDB(dbPath)
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dbName), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open reminder database %s: %w", dbPath, err)
	}

	// One connection serialises the poller and the update handler, and is
	// never recycled so in-memory databases keep their contents.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db, memory); err != nil {
		closeAfterFailure(db)
		return nil, err
	}

	if err := ApplyMigrations(db.DB, dbName); err != nil {
		closeAfterFailure(db)
		return nil, fmt.Errorf("failed to migrate reminder database: %w", err)
	}

	slog.Info("Reminder database ready", "path", dbPath, "in_memory", memory)
	return db, nil
}

// applyPragmas sets the busy timeout and, for file databases, write-ahead logging.
func applyPragmas(db *sqlx.DB, memory bool) error {
	pragmas := []string{fmt.Sprintf("PRAGMA busy_timeout = %d", BusyTimeoutMillis)}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

func closeAfterFailure(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		slog.Error("Error closing reminder database after setup failure", "error", err)
	}
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing reminder database", "error", err)
		return
	}
	slog.Info("Reminder database closed")
}

// ApplyMigrations brings the schema up to the newest embedded migration.
// The caller keeps ownership of db.
func ApplyMigrations(db *sql.DB, dbName string) error {
	if db == nil {
		return errors.New("cannot migrate a nil database")
	}
	if dbName == "" {
		return errors.New("cannot migrate without a database name")
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	target, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: dbName})
	if err != nil {
		return fmt.Errorf("failed to wrap database for migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return fmt.Errorf("failed to set up migrations: %w", err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("Reminder schema already up to date", "database_name", dbName)
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		slog.Info("Reminder schema migrated", "database_name", dbName)
	}
	return nil
}

// ExtractDBNameFromPath strips the file: scheme and query from a SQLite DSN
// and unescapes what is left.
func ExtractDBNameFromPath(path string) string {
	name := strings.TrimPrefix(path, "file:")
	name, _, _ = strings.Cut(name, "?")

	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

func isMemoryDB(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "...", truncateString("abcdef", 2))
	// Cyrillic text is cut on rune boundaries.
	assert.Equal(t, "Прив...", truncateString("Привет, мир", 7))
}

func TestMiddlewareLogsAndCallsNext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "info", true)

	called := false
	next := func(context.Context, *bot.Bot, *models.Update) { called = true }

	update := &models.Update{
		ID: 7,
		Message: &models.Message{
			ID:   3,
			Chat: models.Chat{ID: 42},
			From: &models.User{ID: 99},
			Text: "25.12.2025 18:30 Buy gifts",
		},
	}
	Middleware(log)(next)(context.Background(), nil, update)

	require.True(t, called)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Finished processing update", entry["msg"])
	assert.EqualValues(t, 42, entry["chat_id"])
	assert.EqualValues(t, 99, entry["user_id"])
	assert.Equal(t, "message", entry["update_type"])
}

func TestGocronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewGocronLogger(New(&buf, "debug", true))

	l.Warn("job missed", "name", "due_reminders")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "job missed", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "gocron", entry["component"])
	assert.Equal(t, "due_reminders", entry["name"])
}

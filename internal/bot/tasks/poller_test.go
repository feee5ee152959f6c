package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/remindbot/internal/bot/tasks"
	"github.com/edgard/remindbot/internal/config"
	"github.com/edgard/remindbot/internal/database"
	"github.com/edgard/remindbot/internal/reminder"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn map[int64]bool
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chatID, _ := params.ChatID.(int64)
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: params.Text})
	if f.failOn[chatID] {
		return nil, errors.New("Forbidden: bot was blocked by the user")
	}
	return &models.Message{Text: params.Text}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store  database.Store
	sender *fakeSender
	clock  *clock
	deps   tasks.TaskDeps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.NewDB(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	cfg := config.Default()
	cfg.Timezone = "UTC"

	f := &fixture{
		store:  database.NewStore(db, time.UTC, nil),
		sender: &fakeSender{failOn: map[int64]bool{}},
		clock:  &clock{},
	}
	f.deps = tasks.TaskDeps{
		Store:      f.store,
		Dispatcher: reminder.NewDispatcher(f.sender, nil),
		Config:     cfg,
		Now:        f.clock.Now,
	}
	return f
}

func (f *fixture) create(t *testing.T, chatID int64, body string, due time.Time) int64 {
	t.Helper()
	id, err := f.store.Create(context.Background(), chatID, body, due)
	require.NoError(t, err)
	return id
}

func TestPollerDispatchesDueReminder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	due := time.Date(2025, 12, 25, 18, 30, 0, 0, time.UTC)
	f.create(t, 42, "Buy gifts", due)
	f.create(t, 43, "Not yet", due.Add(time.Minute))

	f.clock.Set(due)
	require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, sentMessage{chatID: 42, text: "Buy gifts"}, f.sender.sent[0])
}

func TestPollerMatchesAnySecondOfTheMinute(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	due := time.Date(2025, 12, 25, 18, 30, 0, 0, time.UTC)
	f.create(t, 42, "Buy gifts", due)

	f.clock.Set(due.Add(59*time.Second + 999*time.Millisecond))
	require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))
	assert.Len(t, f.sender.sent, 1)
}

func TestPollerNothingDue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.create(t, 42, "Buy gifts", time.Date(2025, 12, 25, 18, 30, 0, 0, time.UTC))

	f.clock.Set(time.Date(2025, 12, 25, 18, 31, 0, 0, time.UTC))
	require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))
	assert.Empty(t, f.sender.sent)
}

func TestPollerDeliversOncePerMinute(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	due := time.Date(2025, 12, 25, 18, 30, 0, 0, time.UTC)
	f.create(t, 42, "Buy gifts", due)

	poller := tasks.NewPoller(f.deps)
	f.clock.Set(due)
	require.NoError(t, poller.Tick(context.Background()))
	// A second tick inside the same minute, e.g. after a restart.
	f.clock.Set(due.Add(30 * time.Second))
	require.NoError(t, poller.Tick(context.Background()))

	assert.Len(t, f.sender.sent, 1)
}

func TestPollerMissedMinuteIsNotCaughtUp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	due := time.Date(2025, 12, 25, 18, 30, 0, 0, time.UTC)
	f.create(t, 42, "Buy gifts", due)

	f.clock.Set(due.Add(90 * time.Second))
	require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))
	assert.Empty(t, f.sender.sent)
}

func TestPollerSendFailureContinues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sender.failOn[1] = true

	due := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	f.create(t, 1, "blocked", due)
	f.create(t, 2, "fine", due)

	f.clock.Set(due)
	require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))
	require.Len(t, f.sender.sent, 2, "one attempt per reminder")
	assert.Equal(t, int64(2), f.sender.sent[1].chatID)

	// The failed reminder stays undelivered, the sent one is marked.
	left, err := f.store.FindDueAt(context.Background(), due)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "blocked", left[0].Body)
}

type failingStore struct {
	database.Store
}

func (failingStore) FindDueAt(context.Context, time.Time) ([]database.Reminder, error) {
	return nil, errors.New("database is locked")
}

func TestPollerStoreFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.deps.Store = failingStore{}

	err := tasks.NewPoller(f.deps).Tick(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestPollerUsesConfiguredLocation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	loc := time.FixedZone("UTC+3", 3*60*60)
	f.deps.Config.Timezone = "Etc/GMT-3"
	f.deps.Store = database.NewStore(mustDB(t), loc, nil)
	_, err := f.deps.Store.Create(context.Background(), 42, "local", time.Date(2025, 12, 25, 18, 30, 0, 0, loc))
	require.NoError(t, err)

	// 15:30 UTC is 18:30 at UTC+3.
	f.clock.Set(time.Date(2025, 12, 25, 15, 30, 5, 0, time.UTC))
	require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))
	assert.Len(t, f.sender.sent, 1)
}

func mustDB(t *testing.T) *sqlx.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.NewDB(fmt.Sprintf("file:%s_extra_%d?mode=memory&cache=shared", name, time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return db
}

// stallingSender blocks sends to stallOn until the context is done.
type stallingSender struct {
	fakeSender
	stallOn int64
}

func (s *stallingSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if chatID, _ := params.ChatID.(int64); chatID == s.stallOn {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.fakeSender.SendMessage(ctx, params)
}

func TestPollerBoundsEachSend(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	sender := &stallingSender{stallOn: 1}
	f.deps.Config.Telegram.OperationTimeout = 20 * time.Millisecond
	f.deps.Dispatcher = reminder.NewDispatcher(sender, nil)

	due := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	f.create(t, 1, "stalled", due)
	f.create(t, 2, "fine", due)
	f.clock.Set(due)

	done := make(chan error, 1)
	go func() { done <- tasks.NewPoller(f.deps).Tick(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tick blocked on a stalled send")
	}

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(2), sender.sent[0].chatID)

	left, err := f.store.FindDueAt(context.Background(), due)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "stalled", left[0].Body)
}

func TestPollerWithoutDispatcher(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.deps.Dispatcher = nil

	due := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	f.create(t, 1, "nobody sends this", due)
	f.clock.Set(due)

	require.NotPanics(t, func() {
		require.NoError(t, tasks.NewPoller(f.deps).Tick(context.Background()))
	})

	left, err := f.store.FindDueAt(context.Background(), due)
	require.NoError(t, err)
	assert.Len(t, left, 1, "undelivered reminders stay pending")
}

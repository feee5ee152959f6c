package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/remindbot/internal/bot/tasks"
	"github.com/edgard/remindbot/internal/config"
	"github.com/edgard/remindbot/internal/database"
)

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	registered := tasks.RegisterAllTasks(f.deps)
	assert.Len(t, registered, 2)
	assert.Contains(t, registered, config.TaskDueReminders)
	assert.Contains(t, registered, config.TaskSQLMaintenance)
}

func TestSQLMaintenanceTaskPurgesDelivered(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	due := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	oldID := f.create(t, 1, "old", due)
	f.create(t, 1, "pending", due)
	require.NoError(t, f.store.MarkDelivered(ctx, oldID, due))

	f.clock.Set(due.Add(f.deps.Config.Database.Retention + time.Hour))
	maintenance := tasks.RegisterAllTasks(f.deps)[config.TaskSQLMaintenance]
	require.NoError(t, maintenance(ctx))

	left, err := f.store.FindDueAt(ctx, due)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "pending", left[0].Body)
}

type maintenanceStore struct {
	database.Store
	purgeErr  error
	vacuumErr error
	purged    bool
}

func (m *maintenanceStore) PurgeDelivered(context.Context, time.Time) (int64, error) {
	m.purged = true
	return 0, m.purgeErr
}

func (m *maintenanceStore) RunSQLMaintenance(context.Context) error {
	return m.vacuumErr
}

func TestSQLMaintenanceTaskErrors(t *testing.T) {
	t.Parallel()

	deps := tasks.TaskDeps{Config: config.Default()}

	store := &maintenanceStore{purgeErr: errors.New("locked")}
	deps.Store = store
	assert.Error(t, tasks.RegisterAllTasks(deps)[config.TaskSQLMaintenance](context.Background()))

	store = &maintenanceStore{vacuumErr: errors.New("disk full")}
	deps.Store = store
	assert.Error(t, tasks.RegisterAllTasks(deps)[config.TaskSQLMaintenance](context.Background()))
	assert.True(t, store.purged)

	deps.Config.Database.Retention = 0
	store = &maintenanceStore{}
	deps.Store = store
	require.NoError(t, tasks.RegisterAllTasks(deps)[config.TaskSQLMaintenance](context.Background()))
	assert.False(t, store.purged, "zero retention keeps delivered reminders")
}

package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"taskMaster/internal/codec"
	"taskMaster/internal/repository"
	"taskMaster/internal/repository/sqlite"
	"taskMaster/internal/repository/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "taskmaster.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		store, _ := openTemp(t)
		return store
	})
}

// TestOpen_Reopen проверяет, что данные переживают повторное открытие файла
func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	store, path := openTemp(t)

	require.NoError(t, store.Tasks().Put(ctx, storetest.NewTask("task-1", "Persisted")))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Tasks().Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
}

func TestCollection_CorruptRow(t *testing.T) {
	ctx := context.Background()
	store, path := openTemp(t)
	require.NoError(t, store.Tasks().Put(ctx, storetest.NewTask("task-1", "Broken")))
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE tasks SET priority = 'URGENT' WHERE id = 'task-1'")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Tasks().Get(ctx, "task-1")
	require.Error(t, err)

	var decodeErr *codec.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "priority", decodeErr.Field)

	var storeErr *repository.StoreError
	assert.True(t, errors.As(err, &storeErr))

	_, err = reopened.Tasks().Scan(ctx, nil)
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	path, err := sqlite.DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/taskmaster/taskmaster.db", path)
}

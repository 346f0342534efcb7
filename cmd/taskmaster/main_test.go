package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "taskmaster.db")
	configPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  type: sqlite\n  sqlite:\n    path: "+dbPath+"\n"), 0o600))

	t.Run("success - sqlite schema", func(t *testing.T) {
		root := newRootCmd()
		root.SetArgs([]string{"migrate", "--config", configPath})
		require.NoError(t, root.Execute())

		_, err := os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("error - down is postgres only", func(t *testing.T) {
		root := newRootCmd()
		root.SetArgs([]string{"migrate", "--down", "--config", configPath})
		assert.Error(t, root.Execute())
	})

	t.Run("error - missing config", func(t *testing.T) {
		root := newRootCmd()
		root.SetArgs([]string{"migrate", "--config", filepath.Join(dir, "nope.yml")})
		assert.Error(t, root.Execute())
	})
}

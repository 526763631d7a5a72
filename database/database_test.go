package database_test

import (
	"path/filepath"
	"testing"

	"messaging_backend/database"
	"messaging_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteEnablesForeignKeys(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "chat.db")

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"

	_, err := database.Open(cfg)
	assert.ErrorContains(t, err, "unsupported database driver")
}

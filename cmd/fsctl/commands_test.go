package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fileshare/internal/config"
	"fileshare/internal/database"
	"fileshare/internal/repository/relational"
	"fileshare/internal/storage"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	return &config.AppConfig{
		Database: config.DatabaseConfig{Driver: database.DriverSQLite, Path: filepath.Join(dir, "fs.db")},
		Storage:  config.StorageConfig{Backend: "local", LocalDir: filepath.Join(dir, "data")},
		Auth:     config.AuthConfig{BcryptCost: 4},
	}
}

func execute(t *testing.T, cfg *config.AppConfig, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg, zap.NewNop())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAdmin(t *testing.T) {
	cfg := testConfig(t)

	out, err := execute(t, cfg, "create-admin", "--username", "root", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, `created admin "root"`)

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	defer db.Close()
	u, err := relational.NewUserRepository(db).FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = execute(t, cfg, "create-admin", "--username", "root", "--password", "pw")
	assert.Error(t, err)
}

func TestCreateAdmin_RequiresFlags(t *testing.T) {
	_, err := execute(t, testConfig(t), "create-admin", "--username", "root")
	assert.ErrorContains(t, err, "password")
}

func TestReconcile(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage)
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "uploads/stray.bin", strings.NewReader("x"), storage.PutObjectOptions{Size: 1})
	require.NoError(t, err)

	stray := filepath.Join(cfg.Storage.LocalDir, "uploads", "stray.bin")

	// Too new to tell apart from an upload still writing its record.
	out, err := execute(t, cfg, "reconcile", "--remove")
	require.NoError(t, err)
	assert.Contains(t, out, "pending\tuploads/stray.bin")
	_, statErr := os.Stat(stray)
	assert.NoError(t, statErr)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stray, old, old))

	out, err = execute(t, cfg, "reconcile")
	assert.ErrorIs(t, err, errDrift)
	assert.Contains(t, out, "orphaned\tuploads/stray.bin")
	_, statErr = os.Stat(stray)
	assert.NoError(t, statErr)

	out, err = execute(t, cfg, "reconcile", "--remove")
	require.NoError(t, err)
	assert.Contains(t, out, "removed\tuploads/stray.bin")
	_, statErr = os.Stat(stray)
	assert.True(t, os.IsNotExist(statErr))

	out, err = execute(t, cfg, "reconcile")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReconcile_MinAgeFlag(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage)
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "uploads/stray.bin", strings.NewReader("x"), storage.PutObjectOptions{Size: 1})
	require.NoError(t, err)

	out, err := execute(t, cfg, "reconcile", "--remove", "--min-age=0s")
	require.NoError(t, err)
	assert.Contains(t, out, "removed\tuploads/stray.bin")
}

package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add purchase orders", "add_purchase_orders"},
		{"Add-Consumption-Index", "add_consumption_index"},
		{"ADD__STORE__ID", "add_store_id"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000002_create_consumption_records.up.sql"), []byte("--"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000002_create_consumption_records.down.sql"), []byte("--"), 0o644))

	mf, err := CreateMigration(dir, "add lead time", "Track supplier lead time")
	require.NoError(t, err)

	assert.Equal(t, "000003", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000003_add_lead_time.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000003_add_lead_time.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Track supplier lead time")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback for add lead time")
}

func TestCreateMigration_Errors(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")
		mf, err := CreateMigration(dir, "init", "")
		require.NoError(t, err)
		assert.Equal(t, "000001", mf.Version)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("lists up migrations only", func(t *testing.T) {
		dir := t.TempDir()
		for _, f := range []string{
			"000001_create_purchase_orders.up.sql",
			"000001_create_purchase_orders.down.sql",
			"000002_create_consumption_records.up.sql",
			"000002_create_consumption_records.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("--"), 0o644))
		}

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_create_purchase_orders", "000002_create_consumption_records"}, names)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := EmbeddedMigrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_purchase_orders", "000002_create_consumption_records"}, names)
}

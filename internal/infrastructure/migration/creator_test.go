package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/feeledger/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments index", "add_payments_index"},
		{"Add-Payments-Index", "add_payments_index"},
		{"ADD__PAYMENTS", "add_payments"},
		{"Add Vouchers 123", "add_vouchers_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers the first migration 000001", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "create fee vouchers", "Fee voucher table")
		require.NoError(t, err)

		assert.Equal(t, "000001", mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_create_fee_vouchers.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_create_fee_vouchers.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "create fee vouchers")
		assert.Contains(t, string(up), "Fee voucher table")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback")
	})

	t.Run("continues after the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		for _, f := range []string{"000001_init.up.sql", "000001_init.down.sql", "000007_late.up.sql", "000007_late.down.sql"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0644))
		}

		mf, err := CreateMigration(dir, "next", "")
		require.NoError(t, err)
		assert.Equal(t, "000008", mf.Version)
	})

	t.Run("creates the directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(nested, "test", "test migration")
		require.NoError(t, err)

		info, err := os.Stat(nested)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects a name without usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})

	t.Run("rejects non numeric versions", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "init.up.sql"), []byte("-- test"), 0644))

		_, err := CreateMigration(dir, "next", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("lists up migrations and ignores other entries", func(t *testing.T) {
		dir := t.TempDir()
		for _, f := range []string{
			"000001_init.up.sql", "000001_init.down.sql",
			"000002_add_payments.up.sql", "000002_add_payments.down.sql",
			"README.md", ".gitkeep",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0755))

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"000001_init", "000002_add_payments"}, names)
	})

	t.Run("nonexistent directory is empty", func(t *testing.T) {
		names, err := ListMigrations("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := filepath.Glob("../../../migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		base := filepath.Base(up)
		down := base[:len(base)-len(".up.sql")] + ".down.sql"

		_, err := migrations.FS.Open(base)
		assert.NoError(t, err, "up migration %s should be embedded", base)
		_, err = migrations.FS.Open(down)
		assert.NoError(t, err, "down migration %s should be embedded", down)
	}
}

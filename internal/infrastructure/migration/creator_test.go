package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add ledger events", "add_ledger_events"},
		{"Add-Installment-Index", "add_installment_index"},
		{"ADD_AUDIT_LOGS", "add_audit_logs"},
		{"add__late__fee", "add_late_fee"},
		{"Backfill Accounts 2026", "backfill_accounts_2026"},
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
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add installment index", "Unique installment number per payment")
	require.NoError(t, err)

	// 14-digit timestamp version, matching pair names
	assert.Len(t, mf.Version, 14)
	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add installment index")
	assert.Contains(t, string(upContent), "Unique installment number per payment")
	assert.Contains(t, string(upContent), "UP migration SQL")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
	assert.Contains(t, string(downContent), "DOWN migration SQL")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "db", "migrations")

	mf, err := CreateMigration(nested, "create customers", "")
	require.NoError(t, err)
	assert.NotNil(t, mf)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	t.Run("lists pairs sorted and ignores strays", func(t *testing.T) {
		dir := t.TempDir()
		files := []string{
			"000002_create_billing_tables.up.sql",
			"000002_create_billing_tables.down.sql",
			"000001_create_enrollment_tables.up.sql",
			"000001_create_enrollment_tables.down.sql",
			"000003_create_ledger_events.up.sql",
			"000003_create_ledger_events.down.sql",
			"README.md",
			".gitkeep",
		}
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- sql"), 0644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0755))

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"000001_create_enrollment_tables",
			"000002_create_billing_tables",
			"000003_create_ledger_events",
		}, migrations)
	})

	t.Run("missing directory is empty, not an error", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})
}

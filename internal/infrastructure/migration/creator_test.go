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
		{"add order indexes", "add_order_indexes"},
		{"Add-Order-Indexes", "add_order_indexes"},
		{"ADD_ORDER_INDEXES", "add_order_indexes"},
		{"add__order__indexes", "add_order_indexes"},
		{"Create GroupBuys 123", "create_groupbuys_123"},
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
	tmpDir := t.TempDir()

	fp, err := CreateMigration(tmpDir, "add order indexes")
	require.NoError(t, err)
	require.NotNil(t, fp)

	// Version format is YYYYMMDDHHMMSS
	assert.Len(t, fp.Version, 14)

	assert.True(t, strings.HasSuffix(fp.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(fp.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(fp.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(fp.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(fp.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add order indexes")

	downContent, err := os.ReadFile(fp.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "rollback")
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, migrations)

	_, err = CreateMigration(tmpDir, "first migration")
	require.NoError(t, err)

	migrations, err = ListMigrations(tmpDir)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Contains(t, migrations[0], "first_migration")
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

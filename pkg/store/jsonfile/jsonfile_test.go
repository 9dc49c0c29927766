package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/appwatch/pkg/store"
	"github.com/srodi/appwatch/pkg/types"
)

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "usage_data.json"))

	table, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table.Apps)
	assert.Zero(t, table.TotalSystemUsage)
	assert.NotNil(t, table.Apps)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "usage_data.json")
	s := New(path)

	table := types.NewUsageTable()
	table.Apps["A"] = types.UsageRecord{TimeSpent: 3, RAMUsage: 30, DiskUsage: 15}
	table.Apps["B"] = types.UsageRecord{TimeSpent: 1}
	table.TotalSystemUsage = 4

	require.NoError(t, s.Save(context.Background(), table))
	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, table, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usage_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stale": {"time_spent": 99, "ram_usage": 1, "disk_usage": 1}, "total_system_usage": 99}`), 0o644))

	s := New(path)
	table := types.NewUsageTable()
	table.Apps["fresh"] = types.NewUsageRecord(1, 2)
	table.TotalSystemUsage = 1
	require.NoError(t, s.Save(context.Background(), table))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, table, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "usage_data.json", entries[0].Name())
}

func TestLoadCorruptRecordIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"A": {"time_spent": 3,`), 0o644))

	_, err := New(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrCorrupt), "expected ErrCorrupt, got %v", err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, `{"A": {"time_spent": 3,`, string(data), "corrupt record must not be rewritten")
}

func TestLoadReadsSourceFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_data.json")
	doc := `{"total_system_usage": 5, "chrome.exe": {"time_spent": 5, "ram_usage": 104857600, "disk_usage": 2048}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	table, err := New(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), table.TotalSystemUsage)
	assert.Equal(t, types.UsageRecord{TimeSpent: 5, RAMUsage: 104857600, DiskUsage: 2048}, table.Apps["chrome.exe"])
}

func TestSaveFailureKeepsPreviousRecord(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(filepath.Join(blocker, "usage_data.json"))
	err := s.Save(context.Background(), types.NewUsageTable())
	require.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New("").Path())
}

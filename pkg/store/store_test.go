package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/appwatch/pkg/types"
)

func TestEncodeLayout(t *testing.T) {
	table := types.NewUsageTable()
	table.Apps["code"] = types.UsageRecord{TimeSpent: 3, RAMUsage: 30, DiskUsage: 15}
	table.TotalSystemUsage = 3

	data, err := Encode(table)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(3), doc["total_system_usage"])
	assert.Equal(t, map[string]any{"time_spent": float64(3), "ram_usage": float64(30), "disk_usage": float64(15)}, doc["code"])
}

func TestDecodeRoundTrip(t *testing.T) {
	table := types.NewUsageTable()
	table.Apps["firefox"] = types.UsageRecord{TimeSpent: 120, RAMUsage: 1 << 40, DiskUsage: 88}
	table.Apps["Code.exe"] = types.UsageRecord{TimeSpent: 1}
	table.TotalSystemUsage = 121

	data, err := Encode(table)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, table, decoded)

	empty, err := Decode([]byte(`{"total_system_usage": 0}`))
	require.NoError(t, err)
	assert.Equal(t, types.NewUsageTable(), empty)
}

func TestDecodeFillsMissingFields(t *testing.T) {
	table, err := Decode([]byte(`{"old": {"time_spent": 4}, "x": {"time_spent": 1, "ram_usage": 9, "disk_usage": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, types.UsageRecord{TimeSpent: 4}, table.Apps["old"])
	assert.Equal(t, types.UsageRecord{TimeSpent: 1, RAMUsage: 9, DiskUsage: 2}, table.Apps["x"])
	assert.Zero(t, table.TotalSystemUsage)
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	cases := map[string]string{
		"truncated":     `{"a": {"time_spent": 1`,
		"empty":         ``,
		"null":          `null`,
		"array":         `[1,2]`,
		"totalString":   `{"total_system_usage": "many"}`,
		"totalNegative": `{"total_system_usage": -1}`,
		"recordScalar":  `{"a": 5}`,
		"fieldFloat":    `{"a": {"time_spent": 1.5}}`,
		"fieldNegative": `{"a": {"ram_usage": -3}}`,
	}
	for name, input := range cases {
		_, err := Decode([]byte(input))
		if !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

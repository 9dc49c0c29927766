package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/srodi/appwatch/pkg/types"
)

// ErrCorrupt is returned when a persisted record exists but cannot be decoded.
var ErrCorrupt = errors.New("store: usage record is corrupt")

// Store persists the usage table. Implementations own their backing record
// exclusively; two running instances sharing one record is unsupported.
type Store interface {
	Load(ctx context.Context) (types.UsageTable, error)
	Save(ctx context.Context, table types.UsageTable) error
	Close() error
}

// Encode renders the table in the usage_data.json layout: one object per
// application plus the top-level total_system_usage counter.
func Encode(table types.UsageTable) ([]byte, error) {
	doc := make(map[string]any, len(table.Apps)+1)
	for name, rec := range table.Apps {
		if name == types.TotalKey {
			continue
		}
		doc[name] = rec
	}
	doc[types.TotalKey] = table.TotalSystemUsage
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding usage table: %w", err)
	}
	return data, nil
}

// Decode parses a usage_data.json document. Malformed input is reported as
// ErrCorrupt; a missing total is treated as zero.
func Decode(data []byte) (types.UsageTable, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.UsageTable{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if raw == nil {
		return types.UsageTable{}, fmt.Errorf("%w: document is null", ErrCorrupt)
	}

	table := types.NewUsageTable()
	for key, msg := range raw {
		if key == types.TotalKey {
			if err := json.Unmarshal(msg, &table.TotalSystemUsage); err != nil {
				return types.UsageTable{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
			}
			if table.TotalSystemUsage < 0 {
				return types.UsageTable{}, fmt.Errorf("%w: %s is negative", ErrCorrupt, key)
			}
			continue
		}
		rec, err := DecodeRecord(msg)
		if err != nil {
			return types.UsageTable{}, fmt.Errorf("%s: %w", key, err)
		}
		table.Apps[key] = rec
	}
	return table, nil
}

// DecodeRecord parses one application entry. Fields missing from older
// records are filled with zero so every record in memory is complete.
func DecodeRecord(msg []byte) (types.UsageRecord, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return types.UsageRecord{}, fmt.Errorf("%w: record is not an object", ErrCorrupt)
	}
	var rec types.UsageRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return types.UsageRecord{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.TimeSpent < 0 {
		return types.UsageRecord{}, fmt.Errorf("%w: time_spent is negative", ErrCorrupt)
	}
	return rec, nil
}

// EnsureDir creates the directory for a record if it is missing.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	return nil
}

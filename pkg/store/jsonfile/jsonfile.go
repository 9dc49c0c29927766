package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/srodi/appwatch/pkg/store"
	"github.com/srodi/appwatch/pkg/types"
)

// DefaultPath matches the record name the tool has always written.
const DefaultPath = "usage_data.json"

// Store keeps the usage table in a single JSON document on disk.
type Store struct {
	path string
}

// New returns a file store rooted at path; nothing is touched until Load or Save.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the record location.
func (s *Store) Path() string { return s.path }

// Load reads the record. A missing file yields an empty table; an unreadable
// or malformed one is an error wrapping store.ErrCorrupt.
func (s *Store) Load(ctx context.Context) (types.UsageTable, error) {
	if err := ctx.Err(); err != nil {
		return types.UsageTable{}, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.NewUsageTable(), nil
	}
	if err != nil {
		return types.UsageTable{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	table, err := store.Decode(data)
	if err != nil {
		return types.UsageTable{}, fmt.Errorf("loading %s: %w", s.path, err)
	}
	return table, nil
}

// Save replaces the record atomically: the table is written to a temporary
// file in the same directory, synced, then renamed over the old record.
func (s *Store) Save(ctx context.Context, table types.UsageTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := store.Encode(table)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := store.EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp record: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("setting record permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *Store) Close() error { return nil }

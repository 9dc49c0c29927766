package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/srodi/appwatch/pkg/config"
	"github.com/srodi/appwatch/pkg/store"
	"github.com/srodi/appwatch/pkg/types"
)

// Store keeps the usage table in Redis: a hash of application records under
// <prefix>:apps and the global counter under <prefix>:total.
type Store struct {
	client   *redis.Client
	appsKey  string
	totalKey string
}

// Open creates a new Redis-backed store and verifies the connection
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "appwatch"
	}
	return &Store{
		client:   client,
		appsKey:  prefix + ":apps",
		totalKey: prefix + ":total",
	}
}

// Load returns the stored table, or an empty one when nothing was saved yet.
func (s *Store) Load(ctx context.Context) (types.UsageTable, error) {
	apps, err := s.client.HGetAll(ctx, s.appsKey).Result()
	if err != nil {
		return types.UsageTable{}, fmt.Errorf("reading %s: %w", s.appsKey, err)
	}

	table := types.NewUsageTable()
	total, err := s.client.Get(ctx, s.totalKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return types.UsageTable{}, fmt.Errorf("reading %s: %w", s.totalKey, err)
	default:
		n, perr := strconv.ParseInt(total, 10, 64)
		if perr != nil || n < 0 {
			return types.UsageTable{}, fmt.Errorf("%w: %s holds %q", store.ErrCorrupt, s.totalKey, total)
		}
		table.TotalSystemUsage = n
	}

	for name, raw := range apps {
		rec, err := store.DecodeRecord([]byte(raw))
		if err != nil {
			return types.UsageTable{}, fmt.Errorf("%s[%s]: %w", s.appsKey, name, err)
		}
		table.Apps[name] = rec
	}
	return table, nil
}

// Save replaces the stored table in a single MULTI/EXEC transaction.
func (s *Store) Save(ctx context.Context, table types.UsageTable) error {
	fields := make(map[string]interface{}, len(table.Apps))
	for name, rec := range table.Apps {
		if name == types.TotalKey {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", name, err)
		}
		fields[name] = string(data)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.appsKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.appsKey, fields)
		}
		pipe.Set(ctx, s.totalKey, table.TotalSystemUsage, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving usage table: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

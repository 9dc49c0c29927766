package main

import (
	"fmt"

	"github.com/srodi/appwatch/pkg/config"
	"github.com/srodi/appwatch/pkg/store"
	"github.com/srodi/appwatch/pkg/store/jsonfile"
	"github.com/srodi/appwatch/pkg/store/redis"
)

// openStorage returns the usage record backend selected by storage.type.
func openStorage(cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Type {
	case config.StorageJSON, "":
		return jsonfile.New(cfg.Path), nil
	case config.StorageRedis:
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

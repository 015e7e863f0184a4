package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adanyl0v/go-todo-sync/internal/config"
	"github.com/adanyl0v/go-todo-sync/internal/storage"
)

const sqliteFileName = "cache.db"

var globalKVStore storage.Store

// MustOpenCacheStore opens the byte store selected by CACHE_DRIVER. For the
// file and sqlite drivers CACHE_PATH is a directory.
func MustOpenCacheStore() {
	cfg := config.Global().Cache

	var err error
	switch cfg.Driver {
	case config.CacheDriverMemory:
		globalKVStore = storage.NewMemoryStore()
	case config.CacheDriverFile:
		globalKVStore, err = storage.NewFileStore(globalLogger, cfg.Path)
	case config.CacheDriverSQLite:
		err = os.MkdirAll(cfg.Path, 0o700)
		if err == nil {
			globalKVStore, err = storage.NewSQLiteStore(globalLogger, filepath.Join(cfg.Path, sqliteFileName), cfg.PoolSize)
		}
	case config.CacheDriverPostgres:
		MustConnectPostgres()
		globalKVStore = storage.NewPostgresStore(globalLogger, globalPostgresPool)
	default:
		err = fmt.Errorf("%w: %q", config.ErrUnknownCacheDriver, cfg.Driver)
	}
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("driver", cfg.Driver).
			Str("path", cfg.Path).
			Msg("failed to open cache store")
		panic(err)
	}
	globalLogger.Info().
		Str("driver", cfg.Driver).
		Str("namespace", cfg.Namespace).
		Msg("opened cache store")
}

func CloseCacheStore() {
	if globalKVStore != nil {
		err := globalKVStore.Close()
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to close cache store")
		} else {
			globalLogger.Info().Msg("closed cache store")
		}
	}
	DisconnectPostgres()
}

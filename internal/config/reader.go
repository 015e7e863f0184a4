package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrUnknownCacheDriver = errors.New("unknown cache driver")

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// FileReader reads a YAML, JSON, TOML or .env file. Environment variables
// override values from the file.
type FileReader struct {
	path string
}

func NewFileReader(path string) FileReader {
	return FileReader{path: path}
}

func (r FileReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadConfig(r.path, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverFile, CacheDriverSQLite, CacheDriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheDriver, c.Cache.Driver)
	}
	if c.Cache.Driver == CacheDriverPostgres && c.Postgres.Database == "" {
		return errors.New("postgres cache driver requires POSTGRES_DATABASE")
	}
	if c.Sync.MaxAttempts < 0 {
		return errors.New("SYNC_MAX_ATTEMPTS must not be negative")
	}
	return nil
}

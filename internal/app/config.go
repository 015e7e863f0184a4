package app

import (
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-todo-sync/internal/config"
)

// MustLoadEnvFile loads path on top of the .env picked up at startup.
// Variables already set in the environment win.
func MustLoadEnvFile(path string) {
	if path == "" {
		return
	}
	err := godotenv.Load(path)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to load env file")
		panic(err)
	}
	globalLogger.Info().
		Str("path", path).
		Msg("loaded env file")
}

// MustReadConfig reads the config from path, or from the environment alone
// when path is empty.
func MustReadConfig(path string) {
	var reader config.Reader = config.NewEnvReader()
	if path != "" {
		reader = config.NewFileReader(path)
	}

	cfg, err := reader.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to read config")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("cache_driver", cfg.Cache.Driver).
		Str("remote", cfg.Remote.BaseURL).
		Msg("read config")

	config.SetGlobal(cfg)
}

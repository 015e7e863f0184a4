package main

import (
	"github.com/spf13/pflag"

	"github.com/adanyl0v/go-todo-sync/internal/app"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML, JSON or TOML config file; the environment overrides it")
	envFile := pflag.String("env-file", "", "path to an extra .env file loaded before the config is read")
	pflag.Parse()

	app.InitDefaultLogger()
	app.MustLoadEnvFile(*envFile)
	app.MustReadConfig(*configPath)
	app.MustInitApplicationLogger()

	app.MustOpenCacheStore()
	defer app.CloseCacheStore()

	app.MustInitSyncEngine()
	defer app.StopSyncEngine()

	app.MustListenAndServeHTTP()
}

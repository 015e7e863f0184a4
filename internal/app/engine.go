package app

import (
	"context"

	"github.com/adanyl0v/go-todo-sync/internal/cache"
	"github.com/adanyl0v/go-todo-sync/internal/clock"
	"github.com/adanyl0v/go-todo-sync/internal/config"
	"github.com/adanyl0v/go-todo-sync/internal/network"
	"github.com/adanyl0v/go-todo-sync/internal/push"
	"github.com/adanyl0v/go-todo-sync/internal/remote"
	"github.com/adanyl0v/go-todo-sync/internal/services"
)

var (
	globalClock          clock.Clock
	globalSyncService    services.SyncService
	globalSessionService services.SessionService
	globalMonitor        *network.Monitor
)

// MustInitSyncEngine wires the remote client, sync and session services
// and the connectivity monitor over the opened cache store. A configured
// REMOTE_TOKEN signs in right away.
func MustInitSyncEngine() {
	cfg := config.Global()
	globalClock = clock.Real()

	client := remote.NewClient(globalLogger, cfg.Remote.BaseURL, "", cfg.Remote.Timeout)
	cacheStore := cache.NewStore(globalLogger, globalKVStore, cfg.Cache.Namespace)
	globalSyncService = services.NewSyncService(
		globalLogger,
		client,
		cacheStore,
		globalClock,
		cfg.Sync.MaxAttempts,
	)

	var dial services.Dialer
	if cfg.Push.URL != "" {
		pushCfg := cfg.Push
		dial = func(ctx context.Context, token string) (push.Channel, error) {
			return push.Dial(ctx, globalLogger, pushCfg.URL, token, pushCfg.HandshakeTimeout)
		}
	} else {
		globalLogger.Warn().Msg("PUSH_URL is not set, live updates are disabled")
	}

	globalSessionService = services.NewSessionService(
		globalLogger,
		client,
		globalSyncService,
		dial,
		[]byte(cfg.Remote.TokenSigningKey),
		globalClock,
		cfg.Push.RedialInterval,
	)
	globalMonitor = network.NewMonitor(
		globalLogger,
		client,
		globalSyncService,
		globalClock,
		cfg.Sync.MonitorInterval,
	)

	if cfg.Remote.Token == "" {
		globalLogger.Info().Msg("no REMOTE_TOKEN, waiting for sign in")
		return
	}
	identity, err := globalSessionService.SignIn(context.Background(), cfg.Remote.Token)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to sign in with REMOTE_TOKEN")
		panic(err)
	}
	status, _ := globalSyncService.Status()
	globalLogger.Info().
		Str("identity", identity).
		Str("status", string(status)).
		Int("pending", globalSyncService.PendingCount()).
		Msg("initialized sync engine")
}

// StopSyncEngine closes the push channel. The cache is kept for the next
// start.
func StopSyncEngine() {
	if globalSessionService != nil {
		globalSessionService.Close()
	}
	globalLogger.Info().Msg("stopped sync engine")
}

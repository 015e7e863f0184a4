// Package network decides whether the remote store is reachable and reports
// transitions between online and offline.
package network

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/clock"
)

type Prober interface {
	Ping(ctx context.Context) error
}

// Target owns the connectivity flag. Other parts of the process may flip it
// too (a request that fails to reach the store marks it offline), so the
// monitor compares every probe against the target rather than against its
// own last result.
type Target interface {
	Online() bool
	SetOnline(ctx context.Context, online bool)
}

type Monitor struct {
	logger   zerolog.Logger
	prober   Prober
	target   Target
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration

	// probing serializes overlapping checks so transitions are reported
	// in order.
	probing sync.Mutex
}

func NewMonitor(
	logger zerolog.Logger,
	prober Prober,
	target Target,
	clk clock.Clock,
	interval time.Duration,
) *Monitor {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		logger:   logger.With().Str("component", "network").Logger(),
		prober:   prober,
		target:   target,
		clock:    clk,
		interval: interval,
		timeout:  timeout,
	}
}

// Check probes once and pushes the result to the target when it differs.
func (m *Monitor) Check(ctx context.Context) bool {
	m.probing.Lock()
	defer m.probing.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Ping(probeCtx)
	cancel()
	online := err == nil

	if m.target.Online() == online {
		return online
	}
	if online {
		m.logger.Info().Msg("remote store reachable")
	} else {
		m.logger.Warn().
			Err(err).
			Msg("remote store unreachable")
	}
	m.target.SetOnline(ctx, online)
	return online
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

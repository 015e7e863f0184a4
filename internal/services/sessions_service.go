package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/clock"
	"github.com/adanyl0v/go-todo-sync/internal/push"
	"github.com/adanyl0v/go-todo-sync/internal/remote"
)

// Dialer opens a push channel authenticated with token.
type Dialer func(ctx context.Context, token string) (push.Channel, error)

// TokenHolder is the part of the remote client a session needs.
type TokenHolder interface {
	SetToken(token string)
}

type sessionServiceImpl struct {
	logger         zerolog.Logger
	client         TokenHolder
	sync           SyncService
	dial           Dialer
	signingKey     []byte
	clock          clock.Clock
	redialInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSessionService wires sign in to the sync service. A nil dial disables
// the push channel.
func NewSessionService(
	logger zerolog.Logger,
	client TokenHolder,
	syncService SyncService,
	dial Dialer,
	signingKey []byte,
	clk clock.Clock,
	redialInterval time.Duration,
) SessionService {
	return &sessionServiceImpl{
		logger:         logger.With().Str("component", "session").Logger(),
		client:         client,
		sync:           syncService,
		dial:           dial,
		signingKey:     signingKey,
		clock:          clk,
		redialInterval: redialInterval,
	}
}

func (s *sessionServiceImpl) SignIn(ctx context.Context, token string) (string, error) {
	identity, err := remote.IdentityFromToken(token, s.signingKey)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to read identity from token")
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.client.SetToken(token)
	s.sync.Switch(ctx, identity)
	s.startLocked(token, identity)

	s.logger.Info().
		Str("identity", identity).
		Msg("signed in")
	return identity, nil
}

func (s *sessionServiceImpl) SignOut(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.sync.Logout(ctx)
	s.client.SetToken("")
	s.logger.Info().Msg("signed out")
}

func (s *sessionServiceImpl) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *sessionServiceImpl) startLocked(token, identity string) {
	if s.dial == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go s.listen(ctx, token, identity, done)
}

// stopLocked tears the push channel down and waits for the listener.
func (s *sessionServiceImpl) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// listen keeps a push channel open for identity. Events may have been
// missed while disconnected, so every reconnect refetches the list.
func (s *sessionServiceImpl) listen(ctx context.Context, token, identity string, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.redialInterval)
	defer ticker.Stop()

	connected := false
	for {
		channel, err := s.dial(ctx, token)
		if err == nil {
			if connected {
				s.sync.FetchAndReconcile(ctx)
			}
			connected = true

			err = push.NewListener(s.logger, channel, s.sync, identity).Run(ctx)
			_ = channel.Close()
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, push.ErrChannelClosed) {
				s.logger.Warn().
					Err(err).
					Msg("push listener stopped")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

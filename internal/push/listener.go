package push

import (
	"context"

	"github.com/rs/zerolog"
)

// Applier receives events the listener accepted for its identity.
type Applier interface {
	ApplyEvent(event Event)
}

type Listener struct {
	logger   zerolog.Logger
	channel  Channel
	applier  Applier
	identity string
}

func NewListener(
	logger zerolog.Logger,
	channel Channel,
	applier Applier,
	identity string,
) *Listener {
	return &Listener{
		logger: logger.With().
			Str("component", "listener").
			Str("identity", identity).
			Logger(),
		channel:  channel,
		applier:  applier,
		identity: identity,
	}
}

// Run joins the channel and applies events until ctx is done or the
// channel ends. It returns ErrChannelClosed when the channel ended on its
// own.
func (l *Listener) Run(ctx context.Context) error {
	err := l.channel.Join(ctx, l.identity)
	if err != nil {
		l.logger.Error().
			Err(err).
			Msg("failed to join push channel")
		return err
	}

	events := l.channel.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				l.logger.Info().Msg("push channel ended")
				return ErrChannelClosed
			}
			if event.Task.Owner != "" && event.Task.Owner != l.identity {
				l.logger.Warn().
					Str("owner", event.Task.Owner).
					Str("task_id", event.ID).
					Msg("dropping event for another identity")
				continue
			}
			l.logger.Debug().
				Str("event", string(event.Type)).
				Str("task_id", event.ID).
				Msg("applying push event")
			l.applier.ApplyEvent(event)
		}
	}
}

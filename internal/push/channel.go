package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/remote"
)

var ErrChannelClosed = errors.New("push channel closed")

// Channel is an explicitly owned push subscription. Each identity gets its
// own handle, closed when the identity changes.
type Channel interface {
	// Join scopes the channel to identity. Events for other identities are
	// never delivered after Join.
	Join(ctx context.Context, identity string) error

	// Events is closed when the connection ends or Close is called.
	Events() <-chan Event

	Close() error
}

type frame struct {
	Type     string          `json:"type,omitempty"`
	Identity string          `json:"identity,omitempty"`
	Event    string          `json:"event,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type deletedData struct {
	ID string `json:"id"`
}

type websocketChannelImpl struct {
	logger zerolog.Logger
	conn   *websocket.Conn
	events chan Event

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens a websocket push channel. The bearer token is sent on the
// handshake request.
func Dial(
	ctx context.Context,
	logger zerolog.Logger,
	url string,
	token string,
	handshakeTimeout time.Duration,
) (Channel, error) {
	connID := uuid.NewString()
	logger = logger.With().
		Str("component", "push").
		Str("conn_id", connID).
		Logger()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("url", url).
			Msg("failed to dial push channel")
		return nil, fmt.Errorf("failed to dial push channel: %w", err)
	}
	logger.Info().
		Str("url", url).
		Msg("connected push channel")

	c := &websocketChannelImpl{
		logger: logger,
		conn:   conn,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *websocketChannelImpl) Join(ctx context.Context, identity string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	_ = c.conn.SetWriteDeadline(deadline)

	err := c.conn.WriteJSON(frame{Type: "join", Identity: identity})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("identity", identity).
			Msg("failed to join push channel")
		return err
	}
	c.logger.Info().
		Str("identity", identity).
		Msg("joined push channel")
	return nil
}

func (c *websocketChannelImpl) Events() <-chan Event {
	return c.events
}

func (c *websocketChannelImpl) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		err = c.conn.Close()
		c.logger.Info().Msg("closed push channel")
	})
	return err
}

func (c *websocketChannelImpl) readLoop() {
	defer close(c.events)

	for {
		var f frame
		err := c.conn.ReadJSON(&f)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn().
					Err(err).
					Msg("push channel read ended")
			}
			return
		}

		event, ok := c.decode(f)
		if !ok {
			continue
		}
		select {
		case c.events <- event:
		case <-c.done:
			return
		}
	}
}

func (c *websocketChannelImpl) decode(f frame) (Event, bool) {
	switch EventType(f.Event) {
	case EventCreated, EventUpdated:
		task, err := remote.DecodeTask(f.Data)
		if err != nil || task.ID == "" {
			c.logger.Warn().
				Err(err).
				Str("event", f.Event).
				Msg("dropping malformed push event")
			return Event{}, false
		}
		return Event{Type: EventType(f.Event), Task: task, ID: task.ID}, true

	case EventDeleted:
		var data deletedData
		err := json.Unmarshal(f.Data, &data)
		if err != nil || data.ID == "" {
			c.logger.Warn().
				Err(err).
				Str("event", f.Event).
				Msg("dropping malformed push event")
			return Event{}, false
		}
		return Event{Type: EventDeleted, ID: data.ID}, true

	default:
		c.logger.Trace().
			Str("event", f.Event).
			Str("type", f.Type).
			Msg("ignoring push frame")
		return Event{}, false
	}
}

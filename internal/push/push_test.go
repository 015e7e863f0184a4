package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-sync/internal/models"
)

func task(id, title string) models.Task {
	return models.Task{ID: id, Title: title}
}

func ids(tasks []models.Task) []string {
	result := make([]string, len(tasks))
	for i, t := range tasks {
		result[i] = t.ID
	}
	return result
}

func TestApplyCreatedPrependsOrReplaces(t *testing.T) {
	tasks := []models.Task{task("a", "A"), task("b", "B")}

	result := Apply(tasks, Event{Type: EventCreated, Task: task("c", "C"), ID: "c"})
	assert.Equal(t, []string{"c", "a", "b"}, ids(result))

	result = Apply(tasks, Event{Type: EventCreated, Task: task("b", "B2"), ID: "b"})
	assert.Equal(t, []string{"a", "b"}, ids(result))
	assert.Equal(t, "B2", result[1].Title)
}

func TestApplyUpdatedAppendsWhenAbsent(t *testing.T) {
	tasks := []models.Task{task("a", "A")}

	result := Apply(tasks, Event{Type: EventUpdated, Task: task("z", "Z"), ID: "z"})
	assert.Equal(t, []string{"a", "z"}, ids(result))

	result = Apply(result, Event{Type: EventUpdated, Task: task("a", "A2"), ID: "a"})
	assert.Equal(t, []string{"a", "z"}, ids(result))
	assert.Equal(t, "A2", result[0].Title)
}

func TestApplyDeletedAbsentIsNoop(t *testing.T) {
	tasks := []models.Task{task("a", "A")}

	result := Apply(tasks, Event{Type: EventDeleted, ID: "t1"})
	assert.Equal(t, []string{"a"}, ids(result))

	result = Apply(tasks, Event{Type: EventDeleted, ID: "a"})
	assert.Empty(t, result)
}

type fakeChannel struct {
	joined []string
	events chan Event
}

func (c *fakeChannel) Join(_ context.Context, identity string) error {
	c.joined = append(c.joined, identity)
	return nil
}

func (c *fakeChannel) Events() <-chan Event { return c.events }

func (c *fakeChannel) Close() error { return nil }

type recordingApplier struct {
	mu     sync.Mutex
	events []Event
}

func (a *recordingApplier) ApplyEvent(event Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func TestListenerFiltersForeignOwners(t *testing.T) {
	channel := &fakeChannel{events: make(chan Event, 4)}
	applier := &recordingApplier{}

	channel.events <- Event{Type: EventCreated, Task: models.Task{ID: "a", Owner: "user-1"}, ID: "a"}
	channel.events <- Event{Type: EventCreated, Task: models.Task{ID: "b", Owner: "user-2"}, ID: "b"}
	channel.events <- Event{Type: EventDeleted, ID: "c"}
	close(channel.events)

	err := NewListener(zerolog.Nop(), channel, applier, "user-1").Run(context.Background())

	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, []string{"user-1"}, channel.joined)
	require.Len(t, applier.events, 2)
	assert.Equal(t, "a", applier.events[0].ID)
	assert.Equal(t, "c", applier.events[1].ID)
}

func TestListenerStopsOnContext(t *testing.T) {
	channel := &fakeChannel{events: make(chan Event)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewListener(zerolog.Nop(), channel, &recordingApplier{}, "user-1").Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWebsocketChannel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	joined := make(chan frame, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		var join frame
		if !assert.NoError(t, conn.ReadJSON(&join)) {
			return
		}
		joined <- join

		frames := []string{
			`{"event":"task:created","data":{"_id":"t1","title":"Run drills","owner":"user-1"}}`,
			`{"event":"task:updated","data":{"_id":"t1","title":"Run more drills","status":"in-progress"}}`,
			`{"event":"task:created","data":{"title":"no id"}}`,
			`{"event":"something:else","data":{}}`,
			`{"event":"task:deleted","data":{"id":"t1"}}`,
		}
		for _, f := range frames {
			assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(f)))
		}

		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	channel, err := Dial(ctx, zerolog.Nop(), url, "token-abc", time.Second)
	require.NoError(t, err)

	require.NoError(t, channel.Join(ctx, "user-1"))
	join := <-joined
	assert.Equal(t, "join", join.Type)
	assert.Equal(t, "user-1", join.Identity)

	var received []Event
	for len(received) < 3 {
		select {
		case event := <-channel.Events():
			received = append(received, event)
		case <-ctx.Done():
			t.Fatal("timed out waiting for events")
		}
	}

	assert.Equal(t, EventCreated, received[0].Type)
	assert.Equal(t, "Run drills", received[0].Task.Title)
	assert.Equal(t, models.DefaultCategory, received[0].Task.Category)
	assert.Equal(t, EventUpdated, received[1].Type)
	assert.Equal(t, models.StatusInProgress, received[1].Task.Status)
	assert.Equal(t, Event{Type: EventDeleted, ID: "t1"}, received[2])

	require.NoError(t, channel.Close())
	assert.NoError(t, channel.Close())

	for range channel.Events() {
	}
}

func TestDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	_, err := Dial(context.Background(), zerolog.Nop(), url, "", time.Second)
	assert.Error(t, err)
}

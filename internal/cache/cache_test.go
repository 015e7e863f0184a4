package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/storage"
)

type failingStore struct {
	storage.Store
	failPut bool
	failGet bool
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet {
		return nil, errors.New("disk unreadable")
	}
	return s.Store.Get(ctx, key)
}

func (s *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if s.failPut {
		return errors.New("disk full")
	}
	return s.Store.Put(ctx, key, value)
}

func TestLoadAbsent(t *testing.T) {
	store := NewStore(zerolog.Nop(), storage.NewMemoryStore(), "")

	snapshot, found := store.Load(context.Background(), "user-1")
	assert.False(t, found)
	assert.False(t, snapshot.HasTasks())
	assert.Empty(t, snapshot.Tasks)
	assert.Empty(t, snapshot.Queue)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop(), storage.NewMemoryStore(), "")
	now := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)

	tasks := []models.Task{{ID: "t1", Title: "Stretch", Status: models.StatusPending, Category: "General", CreatedAt: now, UpdatedAt: now}}
	queue := []models.QueueEntry{{TargetID: "t1", Kind: models.KindUpdate, Payload: models.TaskPayload{Title: models.String("Stretch more")}, QueuedAt: now, UpdatedAt: now, Revision: 1}}

	store.SaveTasks(ctx, "user-1", tasks)
	store.SaveQueue(ctx, "user-1", queue)

	snapshot, found := store.Load(ctx, "user-1")
	require.True(t, found)
	assert.True(t, snapshot.HasTasks())
	require.Len(t, snapshot.Tasks, 1)
	assert.Equal(t, "Stretch", snapshot.Tasks[0].Title)
	assert.True(t, now.Equal(snapshot.Tasks[0].CreatedAt))
	require.Len(t, snapshot.Queue, 1)
	assert.Equal(t, models.KindUpdate, snapshot.Queue[0].Kind)
	assert.Equal(t, "Stretch more", *snapshot.Queue[0].Payload.Title)
}

func TestQueueOnlyRecordHasNoTasks(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop(), storage.NewMemoryStore(), "")

	store.SaveQueue(ctx, "user-1", []models.QueueEntry{{TargetID: "t1", Kind: models.KindDelete}})

	snapshot, found := store.Load(ctx, "user-1")
	assert.True(t, found)
	assert.False(t, snapshot.HasTasks())
	assert.Len(t, snapshot.Queue, 1)
}

func TestIdentitiesArePartitioned(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop(), storage.NewMemoryStore(), "")

	store.SaveTasks(ctx, "user-1", []models.Task{{ID: "a", Title: "A"}})
	store.SaveTasks(ctx, "user-2", []models.Task{{ID: "b", Title: "B"}})

	first, _ := store.Load(ctx, "user-1")
	second, _ := store.Load(ctx, "user-2")
	assert.Equal(t, "a", first.Tasks[0].ID)
	assert.Equal(t, "b", second.Tasks[0].ID)

	store.Clear(ctx, "user-1")
	_, found := store.Load(ctx, "user-1")
	assert.False(t, found)
	_, found = store.Load(ctx, "user-2")
	assert.True(t, found)
}

func TestCorruptRecordIsTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Put(ctx, Key(DefaultNamespace, "user-1"), []byte("{not cbor")))
	store := NewStore(zerolog.Nop(), kv, "")

	snapshot, found := store.Load(ctx, "user-1")
	assert.False(t, found)
	assert.Empty(t, snapshot.Tasks)

	store.SaveTasks(ctx, "user-1", []models.Task{{ID: "t1", Title: "Fresh"}})
	snapshot, found = store.Load(ctx, "user-1")
	assert.True(t, found)
	assert.Len(t, snapshot.Tasks, 1)
}

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	kv := &failingStore{Store: storage.NewMemoryStore(), failPut: true}
	store := NewStore(zerolog.Nop(), kv, "")

	assert.NotPanics(t, func() {
		store.SaveTasks(ctx, "user-1", []models.Task{{ID: "t1", Title: "x"}})
		store.SaveQueue(ctx, "user-1", nil)
	})

	kv.failGet = true
	_, found := store.Load(ctx, "user-1")
	assert.False(t, found)
}

func TestKeyUsesGuestForEmptyIdentity(t *testing.T) {
	assert.Equal(t, "tasksync:guest", Key("tasksync", ""))
	assert.Equal(t, "ns:user-1", Key("ns", "user-1"))
}

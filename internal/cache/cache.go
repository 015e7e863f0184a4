package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/codec"
	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/storage"
)

const (
	DefaultNamespace = "tasksync"
	guestIdentity    = "guest"
	snapshotVersion  = 1
)

// Snapshot is the persisted record of one identity.
type Snapshot struct {
	Version    int                 `json:"version"`
	Tasks      []models.Task       `json:"tasks"`
	Queue      []models.QueueEntry `json:"queue"`
	TasksSaved bool                `json:"tasksSaved"`
}

// HasTasks reports whether a task list was ever saved, as opposed to a
// record holding only a queue.
func (s Snapshot) HasTasks() bool {
	return s.TasksSaved
}

type Store interface {
	// Load never fails: an absent or undecodable record yields an empty
	// snapshot and false.
	Load(ctx context.Context, identity string) (Snapshot, bool)

	// SaveTasks, SaveQueue and Clear are best effort. Failures are logged
	// and dropped; the caller's in-memory state stays authoritative.
	SaveTasks(ctx context.Context, identity string, tasks []models.Task)
	SaveQueue(ctx context.Context, identity string, queue []models.QueueEntry)
	Clear(ctx context.Context, identity string)
}

type cacheStoreImpl struct {
	logger    zerolog.Logger
	kv        storage.Store
	namespace string

	// mu serializes read-modify-write of whole records.
	mu sync.Mutex
}

func NewStore(logger zerolog.Logger, kv storage.Store, namespace string) Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &cacheStoreImpl{
		logger:    logger.With().Str("component", "cache").Logger(),
		kv:        kv,
		namespace: namespace,
	}
}

// Key derives the namespaced storage key of an identity.
func Key(namespace, identity string) string {
	if identity == "" {
		identity = guestIdentity
	}
	return namespace + ":" + identity
}

func (s *cacheStoreImpl) Load(ctx context.Context, identity string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(ctx, identity)
}

func (s *cacheStoreImpl) read(ctx context.Context, identity string) (Snapshot, bool) {
	key := Key(s.namespace, identity)
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Err(err).
				Str("key", key).
				Msg("failed to read snapshot, treating as absent")
		}
		return Snapshot{}, false
	}

	var snapshot Snapshot
	err = codec.Unmarshal(data, &snapshot)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("failed to decode snapshot, treating as absent")
		return Snapshot{}, false
	}
	s.logger.Debug().
		Str("key", key).
		Int("tasks", len(snapshot.Tasks)).
		Int("queue", len(snapshot.Queue)).
		Msg("loaded snapshot")
	return snapshot, true
}

func (s *cacheStoreImpl) write(ctx context.Context, identity string, snapshot Snapshot) {
	key := Key(s.namespace, identity)
	snapshot.Version = snapshotVersion

	data, err := codec.Marshal(snapshot)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to encode snapshot")
		return
	}

	err = s.kv.Put(ctx, key, data)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to persist snapshot")
		return
	}
	s.logger.Debug().
		Str("key", key).
		Int("tasks", len(snapshot.Tasks)).
		Int("queue", len(snapshot.Queue)).
		Msg("persisted snapshot")
}

func (s *cacheStoreImpl) SaveTasks(ctx context.Context, identity string, tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, _ := s.read(ctx, identity)
	snapshot.Tasks = models.CloneTasks(tasks)
	snapshot.TasksSaved = true
	s.write(ctx, identity, snapshot)
}

func (s *cacheStoreImpl) SaveQueue(ctx context.Context, identity string, queue []models.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, _ := s.read(ctx, identity)
	snapshot.Queue = models.CloneQueue(queue)
	s.write(ctx, identity, snapshot)
}

func (s *cacheStoreImpl) Clear(ctx context.Context, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.namespace, identity)
	err := s.kv.Delete(ctx, key)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to clear snapshot")
		return
	}
	s.logger.Info().
		Str("key", key).
		Msg("cleared snapshot")
}

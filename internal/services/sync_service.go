package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/cache"
	"github.com/adanyl0v/go-todo-sync/internal/clock"
	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/push"
	"github.com/adanyl0v/go-todo-sync/internal/queue"
	"github.com/adanyl0v/go-todo-sync/internal/reconcile"
	"github.com/adanyl0v/go-todo-sync/internal/remote"
)

type syncServiceImpl struct {
	logger      zerolog.Logger
	remote      remote.TaskStore
	cache       cache.Store
	clock       clock.Clock
	maxAttempts int

	// replayMu allows a single replay pass at a time.
	replayMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	identity   string
	status     Status
	statusErr  error
	online     bool
	tasks      []models.Task
	queue      []models.QueueEntry
	failed     []models.QueueEntry

	// remapped maps local ids to the server ids their creates received,
	// so mutations issued against a stale local id still land.
	remapped map[string]string
}

// session pins the identity an operation started under. Results that come
// back after a Switch are discarded.
type session struct {
	generation uint64
	identity   string
}

// NewSyncService builds a signed out service that assumes connectivity
// until told otherwise. maxAttempts caps how often a queued entry is
// replayed before it is dropped; zero keeps entries forever.
func NewSyncService(
	logger zerolog.Logger,
	store remote.TaskStore,
	cacheStore cache.Store,
	clk clock.Clock,
	maxAttempts int,
) SyncService {
	return &syncServiceImpl{
		logger:      logger.With().Str("component", "sync").Logger(),
		remote:      store,
		cache:       cacheStore,
		clock:       clk,
		maxAttempts: maxAttempts,
		status:      StatusIdle,
		online:      true,
		remapped:    make(map[string]string),
	}
}

func (s *syncServiceImpl) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *syncServiceImpl) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneTasks(s.tasks)
}

func (s *syncServiceImpl) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusErr
}

func (s *syncServiceImpl) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *syncServiceImpl) Queue() []models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneQueue(s.queue)
}

func (s *syncServiceImpl) Failed() []models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneQueue(s.failed)
}

func (s *syncServiceImpl) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *syncServiceImpl) Upcoming(now time.Time) []reconcile.UpcomingTask {
	return reconcile.Upcoming(s.Tasks(), now)
}

func (s *syncServiceImpl) Create(ctx context.Context, payload models.TaskPayload) Result {
	payload = payload.Normalize()
	err := payload.ValidateCreate()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("invalid task")
		return failure(err)
	}

	s.mu.Lock()
	sess, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return failure(err)
	}
	if !s.online {
		defer s.mu.Unlock()
		return s.queueCreateLocked(ctx, payload)
	}
	s.mu.Unlock()

	created, err := s.remote.Create(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(sess) {
		return failure(ErrIdentityChanged)
	}
	if err != nil {
		if s.unreachableLocked(ctx, err) {
			return s.queueCreateLocked(ctx, payload)
		}
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return failure(err)
	}

	s.commitLocked(ctx, reconcile.Upsert(s.tasks, created, reconcile.Prepend))
	s.logger.Info().
		Str("task_id", created.ID).
		Msg("created task")
	return Result{Success: true, Task: &created}
}

func (s *syncServiceImpl) Update(ctx context.Context, id string, payload models.TaskPayload) Result {
	if id == "" {
		return failure(models.ErrEmptyTaskIdentifier)
	}
	payload = payload.Normalize()
	if payload.IsEmpty() {
		return failure(ErrEmptyUpdate)
	}
	err := payload.Validate()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("invalid task update")
		return failure(err)
	}

	mutation := queue.Mutation{Kind: models.KindUpdate, Payload: payload}

	s.mu.Lock()
	sess, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return failure(err)
	}
	id = s.resolveLocked(id)
	mutation.TargetID = id
	if models.IsLocalID(id) {
		defer s.mu.Unlock()
		if queue.Find(s.queue, id) < 0 {
			return failure(ErrTaskNotFound)
		}
		return s.queueMutationLocked(ctx, mutation)
	}
	if !s.online {
		defer s.mu.Unlock()
		return s.queueMutationLocked(ctx, mutation)
	}
	if queue.Find(s.queue, id) >= 0 {
		s.queueMutationLocked(ctx, mutation)
		s.mu.Unlock()
		return s.flushEntry(ctx, sess, id)
	}
	s.mu.Unlock()

	updated, err := s.remote.Update(ctx, id, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(sess) {
		return failure(ErrIdentityChanged)
	}
	if err != nil {
		if s.unreachableLocked(ctx, err) {
			return s.queueMutationLocked(ctx, mutation)
		}
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task")
		return failure(err)
	}

	s.commitLocked(ctx, reconcile.Upsert(s.tasks, updated, reconcile.Append))
	s.logger.Info().
		Str("task_id", id).
		Msg("updated task")
	return Result{Success: true, Task: &updated}
}

func (s *syncServiceImpl) Delete(ctx context.Context, id string) Result {
	if id == "" {
		return failure(models.ErrEmptyTaskIdentifier)
	}
	mutation := queue.Mutation{Kind: models.KindDelete}

	s.mu.Lock()
	sess, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return failure(err)
	}
	id = s.resolveLocked(id)
	mutation.TargetID = id
	if models.IsLocalID(id) {
		defer s.mu.Unlock()
		if queue.Find(s.queue, id) < 0 {
			// An optimistic leftover with nothing queued behind it.
			s.commitLocked(ctx, reconcile.Remove(s.tasks, id))
			return Result{Success: true, Offline: true}
		}
		return s.queueMutationLocked(ctx, mutation)
	}
	if !s.online {
		defer s.mu.Unlock()
		return s.queueMutationLocked(ctx, mutation)
	}
	if queue.Find(s.queue, id) >= 0 {
		s.queueMutationLocked(ctx, mutation)
		s.mu.Unlock()
		return s.flushEntry(ctx, sess, id)
	}
	s.mu.Unlock()

	err = s.remote.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(sess) {
		return failure(ErrIdentityChanged)
	}
	if err != nil {
		if s.unreachableLocked(ctx, err) {
			return s.queueMutationLocked(ctx, mutation)
		}
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return failure(err)
	}

	// Anything queued for the task while the call was in flight is moot.
	if queue.Find(s.queue, id) >= 0 {
		s.setQueueLocked(ctx, queue.Remove(s.queue, id))
	}
	s.commitLocked(ctx, reconcile.Remove(s.tasks, id))
	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	return Result{Success: true}
}

func (s *syncServiceImpl) Refresh(ctx context.Context) Result {
	switch s.FetchAndReconcile(ctx) {
	case StatusLoaded:
		return Result{Success: true}
	case StatusCached:
		return Result{Success: true, Offline: true}
	case StatusIdle:
		return failure(ErrNoIdentity)
	default:
		_, err := s.Status()
		return failure(err)
	}
}

func (s *syncServiceImpl) FetchAndReconcile(ctx context.Context) Status {
	s.mu.Lock()
	sess, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return StatusIdle
	}
	s.status = StatusLoading
	s.statusErr = nil
	s.mu.Unlock()

	tasks, err := s.remote.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(sess) {
		return s.status
	}
	if err == nil {
		s.commitLocked(ctx, tasks)
		s.status = StatusLoaded
		s.logger.Debug().
			Str("identity", sess.identity).
			Int("count", len(tasks)).
			Int("pending", len(s.queue)).
			Msg("fetched tasks")
		return s.status
	}

	s.logger.Warn().
		Err(err).
		Str("identity", sess.identity).
		Msg("failed to fetch tasks")
	s.unreachableLocked(ctx, err)

	snapshot, ok := s.cache.Load(context.WithoutCancel(ctx), sess.identity)
	if ok && snapshot.HasTasks() {
		s.commitLocked(ctx, snapshot.Tasks)
		s.status = StatusCached
		s.logger.Info().
			Str("identity", sess.identity).
			Int("count", len(s.tasks)).
			Msg("serving cached tasks")
		return s.status
	}

	s.status = StatusError
	s.statusErr = err
	return s.status
}

func (s *syncServiceImpl) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	was := s.online
	s.online = online
	s.mu.Unlock()

	if was == online {
		return
	}
	s.logger.Info().
		Bool("online", online).
		Msg("connectivity changed")
	if !online {
		return
	}

	result := s.ReplayQueue(ctx)
	if result.AnySynced {
		s.FetchAndReconcile(ctx)
	}
}

func (s *syncServiceImpl) ApplyEvent(event push.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == "" {
		return
	}
	s.commitLocked(context.Background(), push.Apply(s.tasks, event))
	s.logger.Debug().
		Str("event", string(event.Type)).
		Str("task_id", event.ID).
		Msg("applied push event")
}

func (s *syncServiceImpl) Switch(ctx context.Context, identity string) {
	s.mu.Lock()
	s.generation++
	s.identity = identity
	s.tasks = nil
	s.queue = nil
	s.failed = nil
	s.remapped = make(map[string]string)
	s.status = StatusIdle
	s.statusErr = nil
	if identity == "" {
		s.mu.Unlock()
		s.logger.Info().Msg("signed out")
		return
	}

	snapshot, _ := s.cache.Load(context.WithoutCancel(ctx), identity)
	s.queue = models.CloneQueue(snapshot.Queue)
	s.tasks = reconcile.Reconcile(snapshot.Tasks, s.queue)
	s.mu.Unlock()

	s.logger.Info().
		Str("identity", identity).
		Int("cached", len(snapshot.Tasks)).
		Int("pending", len(snapshot.Queue)).
		Msg("switched identity")
	s.FetchAndReconcile(ctx)
}

func (s *syncServiceImpl) Logout(ctx context.Context) {
	s.mu.Lock()
	identity := s.identity
	if identity != "" {
		s.cache.Clear(context.WithoutCancel(ctx), identity)
	}
	s.mu.Unlock()

	s.Switch(ctx, "")
}

func (s *syncServiceImpl) beginLocked() (session, error) {
	if s.identity == "" {
		return session{}, ErrNoIdentity
	}
	return session{generation: s.generation, identity: s.identity}, nil
}

func (s *syncServiceImpl) currentLocked(sess session) bool {
	return s.generation == sess.generation
}

func (s *syncServiceImpl) resolveLocked(id string) string {
	if serverID, ok := s.remapped[id]; ok {
		return serverID
	}
	return id
}

// unreachableLocked reports whether err means the store was not reached,
// and marks the service offline if so. A cancelled caller says nothing
// about connectivity.
func (s *syncServiceImpl) unreachableLocked(ctx context.Context, err error) bool {
	if ctx.Err() != nil || !remote.IsNetwork(err) {
		return false
	}
	if s.online {
		s.online = false
		s.logger.Warn().
			Err(err).
			Msg("remote store unreachable, switching to offline")
	}
	return true
}

// commitLocked reconciles tasks with the queue, makes the result the live
// list and persists it.
func (s *syncServiceImpl) commitLocked(ctx context.Context, tasks []models.Task) {
	s.tasks = reconcile.Reconcile(tasks, s.queue)
	s.cache.SaveTasks(context.WithoutCancel(ctx), s.identity, s.tasks)
}

func (s *syncServiceImpl) setQueueLocked(ctx context.Context, entries []models.QueueEntry) {
	s.queue = entries
	s.cache.SaveQueue(context.WithoutCancel(ctx), s.identity, entries)
}

func (s *syncServiceImpl) queueCreateLocked(ctx context.Context, payload models.TaskPayload) Result {
	now := s.clock.Now()
	id := models.NewLocalID(now)
	task, err := models.NewOptimisticTask(id, payload, now)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to build optimistic task")
		return failure(err)
	}
	task.Owner = s.identity

	s.setQueueLocked(ctx, queue.Enqueue(s.queue, queue.Mutation{
		Kind:     models.KindCreate,
		TargetID: id,
		Payload:  payload,
		Task:     &task,
	}, now))
	s.commitLocked(ctx, s.tasks)

	s.logger.Info().
		Str("temp_id", id).
		Int("pending", len(s.queue)).
		Msg("queued task creation")
	return Result{Success: true, Offline: true, TempID: id, Task: &task}
}

func (s *syncServiceImpl) queueMutationLocked(ctx context.Context, m queue.Mutation) Result {
	now := s.clock.Now()
	s.setQueueLocked(ctx, queue.Enqueue(s.queue, m, now))

	tasks := s.tasks
	switch m.Kind {
	case models.KindDelete:
		// Covers a cancelled create, which leaves no entry to hide it.
		tasks = reconcile.Remove(tasks, m.TargetID)
	case models.KindUpdate:
		tasks = models.CloneTasks(tasks)
		for i := range tasks {
			if models.IDOf(tasks[i]) == m.TargetID {
				tasks[i].UpdatedAt = now
			}
		}
	}
	s.commitLocked(ctx, tasks)

	s.logger.Info().
		Str("task_id", m.TargetID).
		Str("kind", string(m.Kind)).
		Int("pending", len(s.queue)).
		Msg("queued task mutation")
	return Result{Success: true, Offline: true}
}

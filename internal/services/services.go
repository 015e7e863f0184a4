package services

import (
	"context"
	"errors"
	"time"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/push"
	"github.com/adanyl0v/go-todo-sync/internal/reconcile"
)

var (
	ErrNoIdentity      = errors.New("no active identity")
	ErrIdentityChanged = errors.New("identity changed during the operation")
	ErrTaskNotFound    = errors.New("task not found")
	ErrEmptyUpdate     = errors.New("update has no fields")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusCached  Status = "cached"
	StatusError   Status = "error"
)

// SyncService is the per-identity controller that owns the live task list
// and the pending mutation queue. All methods are safe for concurrent use;
// remote calls run outside the state lock, so push events and user
// operations may interleave with them.
type SyncService interface {
	// Identity returns the active identity, or "" when nobody is signed in.
	Identity() string

	// Tasks returns a copy of the reconciled list.
	Tasks() []models.Task

	// Status returns the state of the last fetch and, for StatusError,
	// the error that caused it.
	Status() (Status, error)

	PendingCount() int

	// Queue returns a copy of the pending entries in FIFO order.
	Queue() []models.QueueEntry

	// Failed returns entries dropped after reaching the retry cap.
	Failed() []models.QueueEntry

	Online() bool

	// Upcoming lists tasks with a due date, nearest first.
	Upcoming(now time.Time) []reconcile.UpcomingTask

	// Create adds a task. Offline, or when the store cannot be reached,
	// an optimistic task with a local id is shown and a create entry is
	// queued; the result then carries Offline and TempID.
	//
	// Validation errors and remote rejections are returned in
	// Result.Error and nothing is queued.
	Create(ctx context.Context, payload models.TaskPayload) Result

	// Update changes the fields set in payload. Updates to a task that
	// only exists locally are always queued. Online, an update of a task
	// that already has a queued entry merges into it and the entry is
	// sent right away.
	//
	// It returns ErrTaskNotFound in Result.Error for a local id that
	// has neither a queue entry nor a server id.
	Update(ctx context.Context, id string, payload models.TaskPayload) Result

	// Delete removes a task. Deleting a task whose create is still
	// queued cancels the create and never reaches the remote store. A
	// queued update of the task is replaced by the delete.
	Delete(ctx context.Context, id string) Result

	// Refresh runs FetchAndReconcile and reports it as a Result: Offline
	// is set when the list was served from the cache.
	Refresh(ctx context.Context) Result

	// FetchAndReconcile loads the remote list and reconciles it with the
	// queue. On failure it falls back to the cached snapshot
	// (StatusCached) or, without one, ends in StatusError.
	FetchAndReconcile(ctx context.Context) Status

	// ReplayQueue drains a snapshot of the queue against the remote store
	// in FIFO order, one call per entry. Failed entries stay queued for
	// the next pass. Entries queued during the pass are left for the
	// next one.
	ReplayQueue(ctx context.Context) ReplayResult

	// SetOnline records connectivity. A transition to online replays the
	// queue and, if anything synced, fetches the list again.
	SetOnline(ctx context.Context, online bool)

	// ApplyEvent folds a push event into the live list.
	ApplyEvent(event push.Event)

	// Switch makes identity the active one: in-memory state is reset,
	// the identity's snapshot is loaded and the list is fetched. An empty
	// identity leaves the service signed out.
	Switch(ctx context.Context, identity string)

	// Logout clears the active identity's cache and signs out.
	Logout(ctx context.Context)
}

type SessionService interface {
	// SignIn activates the identity carried by token. The previous push
	// channel is torn down, the remote client switches to token and the
	// sync service switches identity. A push channel for the new identity
	// is opened in the background and redialed while the session lasts.
	//
	// It returns an error if the token is malformed or has no subject.
	// The previous session is left untouched in that case.
	SignIn(ctx context.Context, token string) (string, error)

	// SignOut ends the session and clears its cache.
	SignOut(ctx context.Context)

	// Close ends the session but keeps its cache, for process shutdown.
	Close()
}

type Result struct {
	Success bool         `json:"success"`
	Offline bool         `json:"offline"`
	TempID  string       `json:"tempId,omitempty"`
	Task    *models.Task `json:"task,omitempty"`
	Error   error        `json:"-"`
}

func failure(err error) Result {
	return Result{Error: err}
}

type ReplayResult struct {
	AnySynced      bool `json:"anySynced"`
	PendingCount   int  `json:"pendingCount"`
	ProcessedCount int  `json:"processedCount"`
}

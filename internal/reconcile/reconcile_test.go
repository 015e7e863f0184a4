package reconcile

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/queue"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func task(id, title string) models.Task {
	return models.Task{ID: id, Title: title, Status: models.StatusPending, Category: models.DefaultCategory}
}

func ids(tasks []models.Task) []string {
	result := make([]string, len(tasks))
	for i, t := range tasks {
		result[i] = t.ID
	}
	return result
}

func optimistic(t *testing.T, id, title string) queue.Mutation {
	t.Helper()
	payload := models.TaskPayload{Title: models.String(title)}
	created, err := models.NewOptimisticTask(id, payload, now)
	require.NoError(t, err)
	return queue.Mutation{Kind: models.KindCreate, TargetID: id, Payload: payload, Task: &created}
}

func TestReconcileEmptyQueue(t *testing.T) {
	base := []models.Task{task("a", "A"), task("b", "B"), task("a", "dup")}

	result := Reconcile(base, nil)
	assert.Equal(t, []string{"a", "b"}, ids(result))
	assert.Equal(t, "A", result[0].Title)
}

func TestReconcileAppliesDeletesUpdatesAndCreates(t *testing.T) {
	base := []models.Task{task("a", "A"), task("b", "B"), task("c", "C")}
	var q []models.QueueEntry
	q = queue.Enqueue(q, queue.Mutation{Kind: models.KindDelete, TargetID: "b"}, now)
	q = queue.Enqueue(q, queue.Mutation{Kind: models.KindUpdate, TargetID: "c", Payload: models.TaskPayload{Title: models.String("C2")}}, now)
	q = queue.Enqueue(q, optimistic(t, "temp-1", "first"), now)
	q = queue.Enqueue(q, optimistic(t, "temp-2", "second"), now)

	result := Reconcile(base, q)

	assert.Equal(t, []string{"temp-2", "temp-1", "a", "c"}, ids(result))
	assert.True(t, result[0].IsPending)
	assert.False(t, result[2].IsPending)
	assert.Equal(t, "C2", result[3].Title)
	assert.Equal(t, models.StatusPending, result[3].Status)
	assert.True(t, result[3].IsPending)
}

func TestReconcileCreateReplacesServerEcho(t *testing.T) {
	base := []models.Task{task("a", "A"), task("temp-1", "server copy")}
	q := queue.Enqueue(nil, optimistic(t, "temp-1", "optimistic"), now)

	result := Reconcile(base, q)

	assert.Equal(t, []string{"temp-1", "a"}, ids(result))
	assert.Equal(t, "optimistic", result[0].Title)
}

func TestReconcileDoesNotModifyBase(t *testing.T) {
	base := []models.Task{task("a", "A")}
	q := queue.Enqueue(nil, queue.Mutation{Kind: models.KindUpdate, TargetID: "a", Payload: models.TaskPayload{Title: models.String("changed")}}, now)

	_ = Reconcile(base, q)
	assert.Equal(t, "A", base[0].Title)
	assert.False(t, base[0].IsPending)
}

func TestCreateThenDeleteAbsentFromResult(t *testing.T) {
	var q []models.QueueEntry
	q = queue.Enqueue(q, optimistic(t, "temp-1", "Run drills"), now)
	q = queue.Enqueue(q, queue.Mutation{Kind: models.KindDelete, TargetID: "temp-1"}, now)

	assert.Empty(t, q)
	result := Reconcile([]models.Task{task("a", "A")}, q)
	assert.Equal(t, []string{"a"}, ids(result))
}

func randomCase(r *rand.Rand) ([]models.Task, []models.QueueEntry) {
	pool := []string{"a", "b", "c", "d", "e", "temp-1", "temp-2", "temp-3"}

	var base []models.Task
	for range r.IntN(8) {
		id := pool[r.IntN(len(pool))]
		base = append(base, task(id, "base-"+id))
	}

	var q []models.QueueEntry
	for range r.IntN(10) {
		id := pool[r.IntN(len(pool))]
		switch r.IntN(3) {
		case 0:
			created, _ := models.NewOptimisticTask(id, models.TaskPayload{Title: models.String("new-" + id)}, now)
			q = queue.Enqueue(q, queue.Mutation{Kind: models.KindCreate, TargetID: id, Payload: models.TaskPayload{Title: models.String("new-" + id)}, Task: &created}, now)
		case 1:
			title := fmt.Sprintf("upd-%s-%d", id, r.IntN(100))
			q = queue.Enqueue(q, queue.Mutation{Kind: models.KindUpdate, TargetID: id, Payload: models.TaskPayload{Title: &title}}, now)
		default:
			q = queue.Enqueue(q, queue.Mutation{Kind: models.KindDelete, TargetID: id}, now)
		}
	}
	return base, q
}

func TestReconcileIsIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 500 {
		base, q := randomCase(r)

		once := Reconcile(base, q)
		twice := Reconcile(once, q)
		require.Equal(t, once, twice, "case %d", i)
	}
}

func TestReconcileNeverDuplicatesIDs(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := range 500 {
		base, q := randomCase(r)

		seen := make(map[string]bool)
		for _, result := range Reconcile(base, q) {
			require.False(t, seen[result.ID], "case %d: duplicate id %s", i, result.ID)
			seen[result.ID] = true
		}
	}
}

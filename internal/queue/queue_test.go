package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-sync/internal/models"
)

var (
	t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(2 * time.Minute)
)

func createMutation(t *testing.T, id, title string) Mutation {
	t.Helper()
	payload := models.TaskPayload{Title: models.String(title)}
	task, err := models.NewOptimisticTask(id, payload, t0)
	require.NoError(t, err)
	return Mutation{Kind: models.KindCreate, TargetID: id, Payload: payload, Task: &task}
}

func update(id string, payload models.TaskPayload) Mutation {
	return Mutation{Kind: models.KindUpdate, TargetID: id, Payload: payload}
}

func del(id string) Mutation {
	return Mutation{Kind: models.KindDelete, TargetID: id}
}

func TestUpdateUpdateCollapses(t *testing.T) {
	q := Enqueue(nil, update("t1", models.TaskPayload{Title: models.String("a")}), t0)
	q = Enqueue(q, update("t1", models.TaskPayload{Description: models.String("b")}), t1)

	require.Len(t, q, 1)
	assert.Equal(t, models.KindUpdate, q[0].Kind)
	assert.Equal(t, "a", *q[0].Payload.Title)
	assert.Equal(t, "b", *q[0].Payload.Description)
	assert.Equal(t, t0, q[0].QueuedAt)
	assert.Equal(t, t1, q[0].UpdatedAt)
	assert.Equal(t, int64(2), q[0].Revision)
}

func TestUpdateLaterFieldsWin(t *testing.T) {
	q := Enqueue(nil, update("t1", models.TaskPayload{Title: models.String("first")}), t0)
	q = Enqueue(q, update("t1", models.TaskPayload{Title: models.String("second")}), t1)

	require.Len(t, q, 1)
	assert.Equal(t, "second", *q[0].Payload.Title)
}

func TestCreateThenUpdateStaysCreate(t *testing.T) {
	q := Enqueue(nil, createMutation(t, "temp-1", "Run drills"), t0)
	q = Enqueue(q, update("temp-1", models.TaskPayload{Status: models.String(models.StatusInProgress)}), t1)

	require.Len(t, q, 1)
	entry := q[0]
	assert.Equal(t, models.KindCreate, entry.Kind)
	assert.Equal(t, "Run drills", *entry.Payload.Title)
	assert.Equal(t, models.StatusInProgress, *entry.Payload.Status)
	require.NotNil(t, entry.Task)
	assert.Equal(t, models.StatusInProgress, entry.Task.Status)
	assert.Equal(t, t1, entry.Task.UpdatedAt)
}

func TestCreateThenDeleteCancels(t *testing.T) {
	q := Enqueue(nil, createMutation(t, "temp-1", "Run drills"), t0)
	q = Enqueue(q, del("temp-1"), t1)

	assert.Empty(t, q)
}

func TestUpdateThenDeleteBecomesDelete(t *testing.T) {
	q := Enqueue(nil, update("t1", models.TaskPayload{Title: models.String("x")}), t0)
	q = Enqueue(q, update("t2", models.TaskPayload{Title: models.String("y")}), t0)
	q = Enqueue(q, del("t1"), t1)

	require.Len(t, q, 2)
	assert.Equal(t, "t2", q[0].TargetID)
	assert.Equal(t, "t1", q[1].TargetID)
	assert.Equal(t, models.KindDelete, q[1].Kind)
	assert.True(t, q[1].Payload.IsEmpty())
	assert.Equal(t, t1, q[1].QueuedAt)
}

func TestDeleteIsNotDuplicated(t *testing.T) {
	q := Enqueue(nil, del("t1"), t0)
	q = Enqueue(q, del("t1"), t1)

	require.Len(t, q, 1)
	assert.Equal(t, t0, q[0].QueuedAt)
}

func TestUpdateAfterDeleteIsIgnored(t *testing.T) {
	q := Enqueue(nil, del("t1"), t0)
	q = Enqueue(q, update("t1", models.TaskPayload{Title: models.String("zombie")}), t1)

	require.Len(t, q, 1)
	assert.Equal(t, models.KindDelete, q[0].Kind)
}

func TestAtMostOneEntryPerTarget(t *testing.T) {
	sequences := [][]Mutation{
		{createMutation(t, "temp-1", "a"), update("temp-1", models.TaskPayload{Title: models.String("b")}), update("temp-1", models.TaskPayload{Category: models.String("Tennis")})},
		{update("t1", models.TaskPayload{}), update("t1", models.TaskPayload{}), del("t1"), del("t1")},
		{createMutation(t, "temp-2", "a"), update("temp-2", models.TaskPayload{}), del("temp-2")},
	}
	wantKinds := []models.QueueKind{models.KindCreate, models.KindDelete, ""}

	for i, sequence := range sequences {
		var q []models.QueueEntry
		for _, m := range sequence {
			q = Enqueue(q, m, t2)
		}
		if wantKinds[i] == "" {
			assert.Empty(t, q, "sequence %d", i)
			continue
		}
		require.Len(t, q, 1, "sequence %d", i)
		assert.Equal(t, wantKinds[i], q[0].Kind, "sequence %d", i)
	}
}

func TestEnqueueDoesNotModifyInput(t *testing.T) {
	original := Enqueue(nil, createMutation(t, "temp-1", "a"), t0)
	_ = Enqueue(original, update("temp-1", models.TaskPayload{Title: models.String("b")}), t1)
	_ = Enqueue(original, del("temp-1"), t1)

	require.Len(t, original, 1)
	assert.Equal(t, "a", *original[0].Payload.Title)
	assert.Equal(t, "a", original[0].Task.Title)
}

func TestRemoveIfUnchanged(t *testing.T) {
	q := Enqueue(nil, update("t1", models.TaskPayload{Title: models.String("a")}), t0)
	sent := q[0]

	changed := Enqueue(q, update("t1", models.TaskPayload{Title: models.String("b")}), t1)
	kept, removed := RemoveIfUnchanged(changed, sent)
	assert.False(t, removed)
	assert.Len(t, kept, 1)

	left, removed := RemoveIfUnchanged(q, sent)
	assert.True(t, removed)
	assert.Empty(t, left)

	_, removed = RemoveIfUnchanged(nil, sent)
	assert.False(t, removed)
}

func TestRemove(t *testing.T) {
	q := Enqueue(nil, update("t1", models.TaskPayload{Title: models.String("a")}), t0)
	q = Enqueue(q, del("t2"), t1)

	left := Remove(q, "t1")
	require.Len(t, left, 1)
	assert.Equal(t, "t2", left[0].TargetID)
	assert.Len(t, q, 2)

	assert.Len(t, Remove(q, "absent"), 2)
}

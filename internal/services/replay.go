package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/queue"
	"github.com/adanyl0v/go-todo-sync/internal/reconcile"
	"github.com/adanyl0v/go-todo-sync/internal/remote"
)

func (s *syncServiceImpl) ReplayQueue(ctx context.Context) ReplayResult {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()

	s.mu.Lock()
	sess, err := s.beginLocked()
	snapshot := models.CloneQueue(s.queue)
	online := s.online
	s.mu.Unlock()

	if err != nil {
		return ReplayResult{}
	}
	if !online || len(snapshot) == 0 {
		return ReplayResult{PendingCount: len(snapshot)}
	}

	s.logger.Info().
		Str("identity", sess.identity).
		Int("entries", len(snapshot)).
		Msg("replaying queue")

	var result ReplayResult
	for _, entry := range snapshot {
		// Going offline ends the pass after the call in flight.
		if ctx.Err() != nil || !s.Online() {
			break
		}

		err = s.replayEntry(ctx, sess, entry)
		if errors.Is(err, ErrIdentityChanged) {
			return result
		}
		if err != nil {
			s.recordFailure(ctx, sess, entry, err)
			continue
		}
		result.ProcessedCount++
	}
	result.AnySynced = result.ProcessedCount > 0

	s.mu.Lock()
	if s.currentLocked(sess) {
		result.PendingCount = len(s.queue)
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("identity", sess.identity).
		Int("processed", result.ProcessedCount).
		Int("pending", result.PendingCount).
		Msg("replayed queue")
	return result
}

// flushEntry sends the queued entry for id right away. Online operations on
// a task that already has an entry collapse into it first, so the store
// sees their net effect as one change.
func (s *syncServiceImpl) flushEntry(ctx context.Context, sess session, id string) Result {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()

	s.mu.Lock()
	if !s.currentLocked(sess) {
		s.mu.Unlock()
		return failure(ErrIdentityChanged)
	}
	index := queue.Find(s.queue, id)
	if index < 0 {
		// A replay pass sent it while this call waited.
		s.mu.Unlock()
		return Result{Success: true}
	}
	entry := s.queue[index].Clone()
	s.mu.Unlock()

	err := s.replayEntry(ctx, sess, entry)
	if errors.Is(err, ErrIdentityChanged) {
		return failure(err)
	}
	if err != nil {
		s.mu.Lock()
		unreachable := s.currentLocked(sess) && s.unreachableLocked(ctx, err)
		s.mu.Unlock()

		s.recordFailure(ctx, sess, entry, err)
		if unreachable {
			return Result{Success: true, Offline: true}
		}
		return failure(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if models.IDOf(task) == id {
			return Result{Success: true, Task: &task}
		}
	}
	return Result{Success: true}
}

func (s *syncServiceImpl) replayEntry(ctx context.Context, sess session, entry models.QueueEntry) error {
	switch entry.Kind {
	case models.KindCreate:
		created, err := s.remote.Create(ctx, entry.Payload)
		if errors.Is(err, remote.ErrInvalidResponse) {
			return s.settleUnreadable(ctx, sess, entry, err)
		}
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentLocked(sess) {
			return ErrIdentityChanged
		}
		s.settleCreateLocked(ctx, entry, created)
		return nil

	case models.KindUpdate:
		updated, err := s.remote.Update(ctx, entry.TargetID, entry.Payload)
		if errors.Is(err, remote.ErrInvalidResponse) {
			return s.settleUnreadable(ctx, sess, entry, err)
		}
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentLocked(sess) {
			return ErrIdentityChanged
		}
		if next, ok := queue.RemoveIfUnchanged(s.queue, entry); ok {
			s.setQueueLocked(ctx, next)
		}
		s.commitLocked(ctx, reconcile.Upsert(s.tasks, updated, reconcile.Append))
		s.logger.Debug().
			Str("task_id", entry.TargetID).
			Msg("replayed task update")
		return nil

	case models.KindDelete:
		err := s.remote.Delete(ctx, entry.TargetID)
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentLocked(sess) {
			return ErrIdentityChanged
		}
		if next, ok := queue.RemoveIfUnchanged(s.queue, entry); ok {
			s.setQueueLocked(ctx, next)
		}
		s.commitLocked(ctx, reconcile.Remove(s.tasks, entry.TargetID))
		s.logger.Debug().
			Str("task_id", entry.TargetID).
			Msg("replayed task deletion")
		return nil

	default:
		return fmt.Errorf("unknown queue entry kind %q", entry.Kind)
	}
}

// settleUnreadable completes an entry the store accepted without a readable
// answer. Sending it again would apply it twice, so it leaves the queue and
// the next fetch brings the canonical task. An entry changed mid-flight
// stays queued and err is returned for it.
func (s *syncServiceImpl) settleUnreadable(ctx context.Context, sess session, entry models.QueueEntry, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(sess) {
		return ErrIdentityChanged
	}
	next, ok := queue.RemoveIfUnchanged(s.queue, entry)
	if !ok {
		return err
	}
	s.setQueueLocked(ctx, next)

	tasks := models.CloneTasks(s.tasks)
	switch entry.Kind {
	case models.KindCreate:
		tasks = reconcile.Remove(tasks, entry.TargetID)
	case models.KindUpdate:
		for i := range tasks {
			if models.IDOf(tasks[i]) == entry.TargetID {
				tasks[i].IsPending = false
			}
		}
	}
	s.commitLocked(ctx, tasks)

	s.logger.Warn().
		Err(err).
		Str("task_id", entry.TargetID).
		Str("kind", string(entry.Kind)).
		Msg("replayed mutation without a readable answer")
	return nil
}

// settleCreateLocked swaps the optimistic task for the created one and
// brings the queue in line with whatever happened to the entry while the
// call was in flight.
func (s *syncServiceImpl) settleCreateLocked(ctx context.Context, sent models.QueueEntry, created models.Task) {
	now := s.clock.Now()
	localID := sent.TargetID
	serverID := models.IDOf(created)
	s.remapped[localID] = serverID

	next := s.queue
	index := queue.Find(next, localID)
	switch {
	case index < 0:
		// Deleted locally mid-flight. The store has the task now, so the
		// delete has to reach it.
		next = queue.Enqueue(next, queue.Mutation{
			Kind:     models.KindDelete,
			TargetID: serverID,
		}, now)
	case next[index].Revision == sent.Revision:
		next = queue.Remove(next, localID)
	default:
		// Edited mid-flight. Those edits become an update of the server
		// task.
		live := next[index]
		next = queue.Remove(next, localID)
		next = queue.Enqueue(next, queue.Mutation{
			Kind:     models.KindUpdate,
			TargetID: serverID,
			Payload:  live.Payload,
		}, now)
	}
	s.setQueueLocked(ctx, next)
	s.commitLocked(ctx, reconcile.ReplaceCreated(s.tasks, localID, created))

	s.logger.Debug().
		Str("temp_id", localID).
		Str("task_id", serverID).
		Msg("replayed task creation")
}

func (s *syncServiceImpl) recordFailure(ctx context.Context, sess session, entry models.QueueEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(sess) {
		return
	}

	s.logger.Warn().
		Err(err).
		Str("task_id", entry.TargetID).
		Str("kind", string(entry.Kind)).
		Msg("failed to replay queued mutation")

	index := queue.Find(s.queue, entry.TargetID)
	if index < 0 {
		return
	}
	next := models.CloneQueue(s.queue)
	live := next[index]
	live.Attempts++
	live.LastError = err.Error()
	next[index] = live

	if s.maxAttempts <= 0 || live.Attempts < s.maxAttempts {
		s.setQueueLocked(ctx, next)
		return
	}

	s.logger.Error().
		Err(err).
		Str("task_id", live.TargetID).
		Str("kind", string(live.Kind)).
		Int("attempts", live.Attempts).
		Msg("dropping queued mutation after too many attempts")

	s.failed = append(s.failed, live)
	s.setQueueLocked(ctx, queue.Remove(next, live.TargetID))

	tasks := s.tasks
	if live.Kind == models.KindCreate {
		tasks = reconcile.Remove(tasks, live.TargetID)
	}
	s.commitLocked(ctx, tasks)
}

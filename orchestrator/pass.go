package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relay-loop/ralph/agent"
	"github.com/relay-loop/ralph/notify"
	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/store"
	"github.com/relay-loop/ralph/task"
)

// runOnePass executes steps 5-13 of the iteration loop for one selected
// task: pre-iteration persistence, prompt composition, the supervised
// child run, outcome interpretation, and the resulting state mutation. It
// returns the task list the next pass should operate on (reloaded from
// disk when the agent mutated it directly).
func (l *Loop) runOnePass(ctx context.Context, list *task.List, selected *task.Task, prdContent string) (*task.List, error) {
	selected.Status = task.StatusInProgress
	list.UpdatedAt = time.Now()
	if err := l.store.SaveTasks(ctx, list); err != nil {
		return list, err
	}
	l.status.SetCurrentTask(fmt.Sprintf("%s: %s", selected.ID, selected.Title))

	progressText, _ := l.store.ReadProgress()
	// The per-iteration lock refresh is best-effort; a failed write does not
	// stop the iteration.
	l.store.WriteLock(ctx, store.LockRecord{
		PID: os.Getpid(), CurrentTask: selected.ID, Progress: progressSummary(list),
		StartedAt: time.Now(), PRDPath: l.cfg.PRDPath, Agent: l.activeAgent,
	})

	l.observer.OnEvent(ctx, observability.Event{
		Type: EventTaskSelected, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "orchestrator.runOnePass", Data: map[string]any{"task_id": selected.ID, "iteration": l.iteration},
	})

	prompt := renderPrompt(selected, list, prdContent, progressText)
	preSnapshot := marshalTasks(list.Tasks)

	start := time.Now()
	outcome := l.runIteration(prompt)
	duration := time.Since(start)

	if err := l.store.WriteIterationLog(ctx, l.iteration, selected.ID, outcome.exitCode, outcome.stdout, outcome.stderr); err != nil {
		l.observer.OnEvent(ctx, observability.Event{
			Type: EventIterationDone, Level: observability.LevelWarning, Timestamp: time.Now(),
			Source: "orchestrator.runOnePass", Data: map[string]any{"log_write_error": err.Error()},
		})
	}

	reloaded, reloadErr := l.store.LoadTasks(ctx)
	if reloadErr == nil && reloaded != nil {
		list = reloaded
	}
	cur, found := list.Get(selected.ID)
	if !found {
		// The agent's direct edit removed the in-flight task; fall back to
		// the pre-iteration view so this pass still has a task to mutate.
		list.Tasks = append(list.Tasks, *selected)
		cur = &list.Tasks[len(list.Tasks)-1]
	}

	// Any change to the stored sequence counts as completion evidence. A
	// stricter variant would require this task's status to have moved to
	// complete in the stored list.
	mutated := marshalTasks(list.Tasks) != preSnapshot
	done := outcome.err == nil && (containsCompletionMarker(outcome.stdout) || mutated)

	switch {
	case done:
		l.onDone(ctx, list, cur, duration)
	case outcome.err == nil:
		l.onNotDone(ctx, list, cur)
	default:
		l.onError(ctx, list, cur, outcome.err)
	}

	return list, nil
}

func (l *Loop) onDone(ctx context.Context, list *task.List, cur *task.Task, duration time.Duration) {
	l.consecutiveFailures = 0

	now := time.Now()
	cur.Status = task.StatusComplete
	cur.CompletedAt = &now
	list.UpdatedAt = now
	l.store.SaveTasks(ctx, list)

	l.status.IncrementCompleted()

	entry := fmt.Sprintf("**Task %s complete**: %s", cur.ID, cur.Title)
	l.store.AppendProgress(ctx, entry)

	l.observer.OnEvent(ctx, observability.Event{
		Type: EventTaskComplete, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "orchestrator.onDone", Data: map[string]any{"task_id": cur.ID, "duration_ms": duration.Milliseconds()},
	})
	l.fireHook(ctx, notify.KindTaskComplete, list, cur.ID, cur.Title, entry, duration)

	if l.cfg.VCSEnabled() {
		l.commit(ctx, cur)
	}

	if l.activeAgent != l.primaryAgent {
		l.observer.OnEvent(ctx, observability.Event{
			Type: agent.EventFallbackReverted, Level: observability.LevelInfo, Timestamp: time.Now(),
			Source: "orchestrator.onDone", Data: map[string]any{"from": l.activeAgent, "to": l.primaryAgent},
		})
		l.activeAgent = l.primaryAgent
	}
}

func (l *Loop) onNotDone(ctx context.Context, list *task.List, cur *task.Task) {
	l.consecutiveFailures++

	cur.Status = task.StatusPending
	list.UpdatedAt = time.Now()
	l.store.SaveTasks(ctx, list)

	entry := fmt.Sprintf("Task %s not completed this iteration. Consecutive failures: %d/%d", cur.ID, l.consecutiveFailures, l.cfg.MaxFailures)
	l.store.AppendProgress(ctx, entry)

	const detail = "Task not completed this iteration"
	l.observer.OnEvent(ctx, observability.Event{
		Type: EventTaskNotDone, Level: observability.LevelWarning, Timestamp: time.Now(),
		Source: "orchestrator.onNotDone", Data: map[string]any{"task_id": cur.ID, "consecutive_failures": l.consecutiveFailures},
	})
	l.fireHook(ctx, notify.KindTaskFailed, list, cur.ID, cur.Title, detail, 0)

	l.applyFallback(ctx)
}

func (l *Loop) onError(ctx context.Context, list *task.List, cur *task.Task, iterErr error) {
	l.consecutiveFailures++

	cur.Status = task.StatusFailed
	list.UpdatedAt = time.Now()
	l.store.SaveTasks(ctx, list)

	entry := fmt.Sprintf("**FAILED** task %s: %s. Consecutive failures: %d/%d", cur.ID, iterErr.Error(), l.consecutiveFailures, l.cfg.MaxFailures)
	l.store.AppendProgress(ctx, entry)

	l.observer.OnEvent(ctx, observability.Event{
		Type: EventTaskFailed, Level: observability.LevelError, Timestamp: time.Now(),
		Source: "orchestrator.onError", Data: map[string]any{"task_id": cur.ID, "error": iterErr.Error()},
	})
	l.fireHook(ctx, notify.KindTaskFailed, list, cur.ID, cur.Title, iterErr.Error(), 0)

	l.applyFallback(ctx)
}

// applyFallback implements §4.5's fallback policy: swap to the first
// available backend that differs from the one currently active, logging
// the switch in the progress journal.
func (l *Loop) applyFallback(ctx context.Context) {
	next, ok := agent.NextFallback(ctx, l.registry, l.activeAgent)
	if !ok {
		return
	}

	l.store.AppendProgress(ctx, fmt.Sprintf("Falling back from %s to %s after failure.", l.activeAgent, next))
	l.observer.OnEvent(ctx, observability.Event{
		Type: agent.EventFallbackApplied, Level: observability.LevelWarning, Timestamp: time.Now(),
		Source: "orchestrator.applyFallback", Data: map[string]any{"from": l.activeAgent, "to": next},
	})
	l.activeAgent = next
}

func (l *Loop) commit(ctx context.Context, cur *task.Task) {
	hasChanges, err := l.vcsClient.HasChanges(ctx)
	if err != nil || !hasChanges {
		return
	}
	message := fmt.Sprintf("feat: %s — %s (ralph)", cur.ID, cur.Title)
	if err := l.vcsClient.CommitAll(ctx, message); err != nil {
		l.observer.OnEvent(ctx, observability.Event{
			Type: EventCommitFailed, Level: observability.LevelWarning, Timestamp: time.Now(),
			Source: "orchestrator.commit", Data: map[string]any{"error": err.Error()},
		})
		return
	}
	l.observer.OnEvent(ctx, observability.Event{
		Type: EventCommit, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "orchestrator.commit", Data: map[string]any{"task_id": cur.ID},
	})
}

func progressSummary(list *task.List) string {
	completed, failed, total := list.Counts()
	return fmt.Sprintf("%d/%d complete, %d failed", completed, total, failed)
}

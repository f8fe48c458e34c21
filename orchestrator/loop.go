// Package orchestrator implements the supervised per-PRD iteration engine:
// it picks the next actionable task, composes a prompt, spawns an agent
// under the health watcher, interprets the outcome, mutates durable task
// state, commits to version control, and fires notifications. Cancellation
// is observed only at iteration boundaries so per-task state transitions
// stay atomic; a running child is ended solely by the hard-timeout and
// stall kill paths.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/relay-loop/ralph/agent"
	"github.com/relay-loop/ralph/config"
	"github.com/relay-loop/ralph/notify"
	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/parser"
	"github.com/relay-loop/ralph/status"
	"github.com/relay-loop/ralph/store"
	"github.com/relay-loop/ralph/task"
	"github.com/relay-loop/ralph/vcs"
)

// ParseFunc converts a PRD into a validated task list, trying the requested
// backend first and falling back across the other available backends. Its
// default implementation is parser.Parse; tests substitute a fake.
type ParseFunc func(ctx context.Context, reg *agent.Registry, requestedBackend, model, prdPath string, timeout time.Duration, observer observability.Observer) (*task.List, error)

// Loop drives one PRD to completion. It owns its Store and Shared Loop
// Status; every other collaborator (registry, notifier, vcs client) may be
// shared read-only across loops.
type Loop struct {
	cfg config.LoopConfig

	store     *store.Store
	registry  *agent.Registry
	notifier  *notify.Notifier
	status    *status.Status
	observer  observability.Observer
	vcsClient *vcs.Git
	parse     ParseFunc

	primaryAgent string
	activeAgent  string

	iteration           int
	consecutiveFailures int
}

// Option configures a Loop after config-driven initialization.
type Option func(*Loop)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// WithStore overrides the config-created Store, primarily for tests.
func WithStore(s *store.Store) Option {
	return func(l *Loop) { l.store = s }
}

// WithRegistry overrides the default agent.NewRegistry().
func WithRegistry(r *agent.Registry) Option {
	return func(l *Loop) { l.registry = r }
}

// WithNotifier overrides the default notifier, which is built from
// cfg.Notify.
func WithNotifier(n *notify.Notifier) Option {
	return func(l *Loop) { l.notifier = n }
}

// WithStatus supplies a Shared Loop Status owned by the caller (typically
// the parallel coordinator); otherwise the Loop creates its own.
func WithStatus(s *status.Status) Option {
	return func(l *Loop) { l.status = s }
}

// WithVCS overrides the default git shim rooted at the loop's workdir.
func WithVCS(g *vcs.Git) Option {
	return func(l *Loop) { l.vcsClient = g }
}

// WithParseFunc overrides parser.Parse, primarily for tests.
func WithParseFunc(p ParseFunc) Option {
	return func(l *Loop) { l.parse = p }
}

// New constructs a Loop from configuration. Side-effecting setup (creating
// the state root, writing the lock, parsing the PRD) happens in Run, not
// here, so that construction never has side effects a caller didn't ask for.
func New(cfg config.LoopConfig, opts ...Option) (*Loop, error) {
	l := &Loop{
		cfg:          cfg,
		registry:     agent.NewRegistry(),
		notifier:     notify.New(cfg.Notify, observability.NoOpObserver{}),
		observer:     observability.NoOpObserver{},
		primaryAgent: cfg.Agent,
		activeAgent:  cfg.Agent,
		parse:        parser.Parse,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.vcsClient == nil {
		l.vcsClient = vcs.New(cfg.Workdir)
	}
	if l.status == nil {
		l.status = status.New(cfg.StateName, cfg.PRDPath, cfg.Agent)
	}

	return l, nil
}

// Status returns the loop's Shared Loop Status for read-only consumers.
func (l *Loop) Status() *status.Status { return l.status }

// Run drives the PRD to completion, returning nil on all_complete and a
// non-nil error on any terminal failure (missing preconditions, circuit
// breaker, or "no actionable tasks remain"). Cancellation of ctx is polled
// only at iteration boundaries, never mid-iteration: a running child
// process is interrupted solely by the hard timeout or stall-kill paths in
// runIteration.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.checkPreconditions(ctx); err != nil {
		return err
	}

	if l.store == nil {
		s, err := store.New(l.cfg.Workdir, l.cfg.StateName, store.WithObserver(l.observer))
		if err != nil {
			return err
		}
		l.store = s
	}

	if err := l.store.WriteLock(ctx, store.LockRecord{
		PID: os.Getpid(), PRDPath: l.cfg.PRDPath, Agent: l.activeAgent, StartedAt: time.Now(),
	}); err != nil {
		return err
	}
	// Removing the lock is a scoped cleanup that must run on every exit
	// path, including setup failures after this point; it uses a detached
	// context since the caller's ctx may already be cancelled.
	defer l.store.RemoveLock(context.Background())

	list, prdContent, err := l.setup(ctx)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			l.status.SetState(status.StateStopped, "")
			return nil
		}

		l.iteration++
		l.status.SetIteration(l.iteration)

		if l.iteration > l.cfg.IterationCap {
			entry := fmt.Sprintf("**STOPPED** — max iterations (%d) reached.", l.cfg.IterationCap)
			l.store.AppendProgress(ctx, entry)
			l.fireHook(ctx, notify.KindMaxIterations, list, "", "", entry, 0)
			l.status.SetState(status.StateStopped, entry)
			return nil
		}

		if l.consecutiveFailures >= l.cfg.MaxFailures {
			entry := fmt.Sprintf("**STOPPED** — circuit breaker after %d consecutive failures (iteration %d).", l.cfg.MaxFailures, l.iteration)
			l.store.AppendProgress(ctx, entry)
			l.fireHook(ctx, notify.KindCircuitBreaker, list, "", "", entry, 0)
			l.status.SetState(status.StateFailed, entry)
			return fmt.Errorf("%w: %s", ErrCircuitBreaker, entry)
		}

		selected, ok := task.PickNext(list)
		if !ok {
			if list.AllComplete() {
				entry := "**COMPLETE** — all tasks finished successfully."
				l.store.AppendProgress(ctx, entry)
				l.fireHook(ctx, notify.KindAllComplete, list, "", "", entry, 0)
				l.status.SetState(status.StateComplete, "")
				return nil
			}
			entry := "**STOPPED** — no actionable tasks remain"
			l.store.AppendProgress(ctx, entry)
			l.status.SetState(status.StateFailed, "no actionable tasks remain")
			return ErrNoActionableTask
		}

		list, err = l.runOnePass(ctx, list, selected, prdContent)
		if err != nil {
			return err
		}
	}
}

func (l *Loop) checkPreconditions(ctx context.Context) error {
	if info, err := os.Stat(l.cfg.Workdir); err != nil || !info.IsDir() {
		return ErrWorkdirMissing
	}
	if _, err := os.Stat(l.cfg.PRDPath); err != nil {
		return ErrPRDMissing
	}
	if !l.registry.AnyAvailable(ctx) {
		return ErrNoAgentAvailable
	}
	return nil
}

// setup performs the remainder of the one-time sequence once the store
// exists and the lock is held: establish the VCS branch, and load (or
// parse) the task list, resetting any interrupted in_progress task back to
// pending.
func (l *Loop) setup(ctx context.Context) (*task.List, string, error) {
	l.observer.OnEvent(ctx, observability.Event{
		Type: EventSetupStart, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "orchestrator.setup", Data: map[string]any{"prd": l.cfg.PRDPath, "agent": l.cfg.Agent},
	})

	if l.cfg.VCSEnabled() && l.vcsClient.IsRepo(ctx) {
		branch := l.cfg.Branch
		if branch == "" {
			branch = vcs.DeriveBranchName(l.cfg.PRDPath)
		}
		if err := l.vcsClient.CreateOrCheckoutBranch(ctx, branch); err != nil {
			l.observer.OnEvent(ctx, observability.Event{
				Type: EventBranchFailed, Level: observability.LevelWarning, Timestamp: time.Now(),
				Source: "orchestrator.setup", Data: map[string]any{"error": err.Error()},
			})
		}
	}

	prdBytes, err := os.ReadFile(l.cfg.PRDPath)
	if err != nil {
		return nil, "", fmt.Errorf("read PRD: %w", err)
	}
	prdContent := string(prdBytes)

	list, err := l.store.LoadTasks(ctx)
	if err != nil {
		return nil, "", err
	}
	if list == nil {
		l.status.SetState(status.StateParsing, "")
		list, err = l.parse(ctx, l.registry, l.cfg.Agent, l.cfg.Model, l.cfg.PRDPath, l.cfg.ParseTimeout, l.observer)
		if err != nil {
			return nil, "", err
		}
		if err := l.store.SaveTasks(ctx, list); err != nil {
			return nil, "", err
		}
	}

	if list.ResetInProgress() {
		list.UpdatedAt = time.Now()
		if err := l.store.SaveTasks(ctx, list); err != nil {
			return nil, "", err
		}
	}

	l.status.SetTotal(len(list.Tasks))
	l.status.SetState(status.StateRunning, "")

	l.observer.OnEvent(ctx, observability.Event{
		Type: EventSetupDone, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "orchestrator.setup", Data: map[string]any{"task_count": len(list.Tasks)},
	})

	return list, prdContent, nil
}

// fireHook notifies the external sinks of one of the loop-boundary Hook
// Events, with a progress snapshot computed from list.
func (l *Loop) fireHook(ctx context.Context, kind notify.Kind, list *task.List, taskID, taskName, detail string, duration time.Duration) {
	completed, failed, total := list.Counts()
	l.notifier.Notify(ctx, notify.Event{
		Kind: kind, TaskID: taskID, TaskName: taskName, Detail: detail, Duration: duration,
		Progress: notify.Progress{Completed: completed, Failed: failed, Remaining: total - completed - failed, Total: total},
	})
}

// marshalTasks deterministically serializes a task sequence for the
// before/after comparison used to detect an agent-edited task file.
func marshalTasks(tasks []task.Task) string {
	data, _ := json.Marshal(tasks)
	return string(data)
}

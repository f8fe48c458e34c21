// Package coordinator runs one orchestrator loop per PRD concurrently,
// under a bounded degree of parallelism, with unified cancellation, OS
// signal handling, and a shared live-status view for a dashboard to read.
// There is deliberately no fail-fast: loops never cancel their peers, so
// the pool is a plain channel semaphore rather than an errgroup.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/relay-loop/ralph/agent"
	"github.com/relay-loop/ralph/config"
	"github.com/relay-loop/ralph/notify"
	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/orchestrator"
	"github.com/relay-loop/ralph/status"
)

// Dashboard renders the live state of every loop. It must return once ctx
// is done; the coordinator waits for it to return before Run itself
// returns.
type Dashboard func(ctx context.Context, statuses map[string]*status.Status)

// Coordinator runs N orchestrator loops concurrently.
type Coordinator struct {
	cfg       config.CoordinatorConfig
	registry  *agent.Registry
	observer  observability.Observer
	dashboard Dashboard
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithRegistry overrides the default agent.NewRegistry().
func WithRegistry(r *agent.Registry) Option {
	return func(c *Coordinator) { c.registry = r }
}

// WithDashboard installs a live-status renderer run for the duration of the
// coordinator's run.
func WithDashboard(d Dashboard) Option {
	return func(c *Coordinator) { c.dashboard = d }
}

// New constructs a Coordinator bounded to cfg.Parallelism concurrent loops
// (falling back to min(NumCPU, 4) when unset).
func New(cfg config.CoordinatorConfig, opts ...Option) *Coordinator {
	if cfg.Parallelism <= 0 {
		cfg = config.DefaultCoordinatorConfig()
	}
	c := &Coordinator{
		cfg:      cfg,
		registry: agent.NewRegistry(),
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoopResult is the terminal outcome of one PRD's loop.
type LoopResult struct {
	Slug    string
	PRDPath string
	Err     error
}

// Run canonicalizes every PRD path, derives a unique slug per PRD, installs
// OS signal handling that cancels every loop at its next iteration
// boundary, optionally drives a dashboard over the shared statuses, and
// runs one orchestrator loop per PRD under a semaphore of the configured
// parallelism. It returns once every loop has finished (or failed); a
// failing loop never cancels its peers.
func (c *Coordinator) Run(ctx context.Context, prdPaths []string, baseCfg config.LoopConfig) ([]LoopResult, error) {
	canonical := make([]string, len(prdPaths))
	for i, p := range prdPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCanonicalize, p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCanonicalize, p, err)
		}
		canonical[i] = abs
	}

	slugs := uniqueSlugs(canonical)

	statuses := make(map[string]*status.Status, len(canonical))
	for i, path := range canonical {
		statuses[slugs[i]] = status.New(slugs[i], path, baseCfg.Agent)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	c.observer.OnEvent(runCtx, observability.Event{
		Type: EventStart, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "coordinator.Run", Data: map[string]any{"run_id": runID, "prd_count": len(canonical), "parallelism": c.cfg.Parallelism},
	})

	var dashboardDone chan struct{}
	if c.dashboard != nil {
		dashboardDone = make(chan struct{})
		go func() {
			defer close(dashboardDone)
			c.dashboard(runCtx, statuses)
		}()
	}

	results := make([]LoopResult, len(canonical))
	sem := make(chan struct{}, c.cfg.Parallelism)
	var wg sync.WaitGroup

	for i, path := range canonical {
		wg.Add(1)
		go func(i int, path, slug string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = c.runOne(runCtx, path, slug, baseCfg, statuses[slug])
		}(i, path, slugs[i])
	}

	wg.Wait()
	stop()

	if dashboardDone != nil {
		<-dashboardDone
	}

	c.observer.OnEvent(context.Background(), observability.Event{
		Type: EventDone, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "coordinator.Run", Data: map[string]any{"prd_count": len(canonical)},
	})

	return results, nil
}

// runOne builds and runs one orchestrator loop for a single PRD. Version
// control is always disabled: parallel loops share one working tree, and
// concurrent branch checkouts would race.
func (c *Coordinator) runOne(ctx context.Context, path, slug string, baseCfg config.LoopConfig, st *status.Status) LoopResult {
	loopCfg := baseCfg
	loopCfg.PRDPath = path
	loopCfg.StateName = slug
	vcsOff := false
	loopCfg.VCS = &vcsOff

	l, err := orchestrator.New(loopCfg,
		orchestrator.WithRegistry(c.registry),
		orchestrator.WithObserver(c.observer),
		orchestrator.WithStatus(st),
		orchestrator.WithNotifier(notify.New(loopCfg.Notify, c.observer)),
	)
	if err != nil {
		st.SetState(status.StateFailed, err.Error())
		c.observer.OnEvent(context.Background(), observability.Event{
			Type: EventLoopFailed, Level: observability.LevelError, Timestamp: time.Now(),
			Source: "coordinator.runOne", Data: map[string]any{"slug": slug, "error": err.Error()},
		})
		return LoopResult{Slug: slug, PRDPath: path, Err: err}
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type: EventLoopSpawned, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "coordinator.runOne", Data: map[string]any{"slug": slug, "prd": path},
	})

	if err := l.Run(ctx); err != nil {
		st.SetState(status.StateFailed, err.Error())
		c.observer.OnEvent(context.Background(), observability.Event{
			Type: EventLoopFailed, Level: observability.LevelError, Timestamp: time.Now(),
			Source: "coordinator.runOne", Data: map[string]any{"slug": slug, "error": err.Error()},
		})
		return LoopResult{Slug: slug, PRDPath: path, Err: err}
	}

	c.observer.OnEvent(context.Background(), observability.Event{
		Type: EventLoopDone, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "coordinator.runOne", Data: map[string]any{"slug": slug},
	})
	return LoopResult{Slug: slug, PRDPath: path}
}

// DefaultParallelism returns min(host parallelism, 4), the default degree
// of concurrency for parallel runs.
func DefaultParallelism() int {
	p := runtime.NumCPU()
	if p > 4 {
		p = 4
	}
	return p
}

package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relay-loop/ralph/agent"
	"github.com/relay-loop/ralph/config"
	"github.com/relay-loop/ralph/status"
	"github.com/relay-loop/ralph/store"
)

type scriptAdapter struct {
	name      string
	script    string
	available bool
}

func (a scriptAdapter) Name() string                     { return a.name }
func (a scriptAdapter) IsAvailable(context.Context) bool { return a.available }

func (a scriptAdapter) Spawn(ctx context.Context, prompt, workdir, model string) (*agent.Child, error) {
	return agent.SpawnCommand(ctx, workdir, "sh", "-c", a.script)
}

// completingScript parses to a single task on the first spawn and prints
// the completion marker on every spawn, so a loop using it runs one parse,
// one iteration, and finishes.
const completingScript = `sleep 0.2; echo '{"tasks":[{"id":"T1","title":"only task","description":"d","priority":1,"depends_on":[]}]}'; echo '<promise>COMPLETE</promise>'`

func newScriptRegistry(script string) *agent.Registry {
	r := agent.NewRegistry()
	for _, name := range agent.FallbackOrder {
		r.Register(scriptAdapter{name: name, available: false})
	}
	r.Register(scriptAdapter{name: "claude", available: true, script: script})
	return r
}

func writePRDs(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("prd%d.md", i+1))
		if err := os.WriteFile(paths[i], []byte("# PRD\n\nDo the work.\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func TestRunAbortsOnMissingPRDBeforeAnySideEffect(t *testing.T) {
	dir := t.TempDir()
	c := New(config.CoordinatorConfig{Parallelism: 2})

	cfg := config.DefaultLoopConfig()
	cfg.Workdir = dir

	_, err := c.Run(context.Background(), []string{filepath.Join(dir, "absent.md")}, cfg)
	if err == nil {
		t.Fatal("want canonicalization error for missing PRD")
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("no state roots may be created on abort, found %v", entries)
	}
}

func TestRunBoundsConcurrencyAndCompletesAllLoops(t *testing.T) {
	dir := t.TempDir()
	prds := writePRDs(t, dir, 6)

	off := false
	cfg := config.DefaultLoopConfig()
	cfg.Workdir = dir
	cfg.Agent = "claude"
	cfg.VCS = &off

	maxActive := 0
	dashboard := func(ctx context.Context, statuses map[string]*status.Status) {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				active := 0
				for _, st := range statuses {
					switch st.Snapshot().State {
					case status.StateParsing, status.StateRunning:
						active++
					}
				}
				if active > maxActive {
					maxActive = active
				}
			}
		}
	}

	c := New(config.CoordinatorConfig{Parallelism: 2},
		WithRegistry(newScriptRegistry(completingScript)),
		WithDashboard(dashboard),
	)

	results, err := c.Run(context.Background(), prds, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("want 6 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("loop %s failed: %v", r.Slug, r.Err)
		}
	}

	if maxActive > 2 {
		t.Fatalf("observed %d concurrently active loops, want at most 2", maxActive)
	}

	// Every loop owns a distinct state root and finished its one task.
	for i := range prds {
		slug := fmt.Sprintf("prd%d", i+1)
		s, err := store.New(dir, slug)
		if err != nil {
			t.Fatal(err)
		}
		list, err := s.LoadTasks(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if list == nil || !list.AllComplete() {
			t.Fatalf("loop %s: tasks not complete: %+v", slug, list)
		}
	}
}

func TestRunOneLoopFailureDoesNotCancelPeers(t *testing.T) {
	dir := t.TempDir()
	prds := writePRDs(t, dir, 2)

	// Pre-seed the first loop's store with a task list containing a failed
	// task and nothing actionable, forcing that loop to stop while its peer
	// completes normally.
	s, err := store.New(dir, "prd1")
	if err != nil {
		t.Fatal(err)
	}
	seed := `{"version":1,"prd_path":"x","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z","tasks":[{"id":"T1","title":"broken","description":"d","priority":1,"status":"failed"}]}`
	if err := os.WriteFile(filepath.Join(s.Root(), "tasks.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	off := false
	cfg := config.DefaultLoopConfig()
	cfg.Workdir = dir
	cfg.Agent = "claude"
	cfg.VCS = &off

	c := New(config.CoordinatorConfig{Parallelism: 2},
		WithRegistry(newScriptRegistry(completingScript)))

	results, err := c.Run(context.Background(), prds, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 1 {
		t.Fatalf("want one failed and one succeeded loop, got %+v", results)
	}
}

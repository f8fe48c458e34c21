// Package parser implements the one-shot use of an Agent Adapter that turns
// a PRD's markdown into a validated task list, with the same fallback chain
// used by the orchestrator loop's backend-failure policy.
package parser

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/relay-loop/ralph/agent"
	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/task"
)

// rawTask mirrors the JSON shape the prompt instructs the agent to emit.
type rawTask struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    uint     `json:"priority"`
	DependsOn   []string `json:"depends_on"`
}

type rawTaskList struct {
	Tasks []rawTask `json:"tasks"`
}

// Parse converts the PRD at prdPath into a validated task.List, trying
// requestedBackend first and, on timeout or failure, every other available
// backend in agent.FallbackOrder. It returns a consolidated error naming
// every attempted backend if all fail.
func Parse(ctx context.Context, reg *agent.Registry, requestedBackend, model, prdPath string, timeout time.Duration, observer observability.Observer) (*task.List, error) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	prdBytes, err := os.ReadFile(prdPath)
	if err != nil {
		return nil, fmt.Errorf("read PRD: %w", err)
	}
	prompt := renderPrompt(string(prdBytes))

	attempted := make([]string, 0, len(agent.FallbackOrder)+1)
	var lastErr error

	for _, name := range candidateOrder(requestedBackend) {
		a, err := reg.Get(name)
		if err != nil {
			continue
		}
		if !a.IsAvailable(ctx) {
			continue
		}

		attempted = append(attempted, name)
		list, err := runOneParse(ctx, a, prompt, model, timeout, prdPath)
		if err == nil {
			observer.OnEvent(ctx, observability.Event{
				Type: EventParsed, Level: observability.LevelInfo, Timestamp: time.Now(),
				Source: "parser.Parse", Data: map[string]any{"backend": name, "task_count": len(list.Tasks)},
			})
			return list, nil
		}

		lastErr = err
		observer.OnEvent(ctx, observability.Event{
			Type: EventBackendFailed, Level: observability.LevelWarning, Timestamp: time.Now(),
			Source: "parser.Parse", Data: map[string]any{"backend": name, "error": err.Error()},
		})
	}

	if len(attempted) == 0 {
		return nil, fmt.Errorf("%w: no backend available", ErrAllBackendsTried)
	}
	return nil, fmt.Errorf("%w: tried %s: %v", ErrAllBackendsTried, strings.Join(attempted, ", "), lastErr)
}

// candidateOrder places the requested backend first, followed by the
// remaining fallback candidates in their fixed order.
func candidateOrder(requested string) []string {
	order := make([]string, 0, len(agent.FallbackOrder)+1)
	order = append(order, requested)
	for _, name := range agent.FallbackOrder {
		if name != requested {
			order = append(order, name)
		}
	}
	return order
}

// runOneParse spawns one backend with the rendered prompt, captures its
// full stdout under a deadline, and extracts + validates the embedded task
// list JSON.
func runOneParse(ctx context.Context, a agent.Adapter, prompt, model string, timeout time.Duration, prdPath string) (*task.List, error) {
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	workdir, err := os.Getwd()
	if err != nil {
		workdir = "."
	}

	child, err := a.Spawn(deadline, prompt, workdir, model)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", a.Name(), err)
	}

	var stdout strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go drainInto(&stdout, child.Stdout, &wg)
	go drainInto(nil, child.Stderr, &wg)

	// Wait closes the pipes once the child exits, so the readers must reach
	// EOF first or output still buffered in a pipe is lost.
	wg.Wait()
	waitErr := child.Wait()

	if deadline.Err() != nil {
		child.Kill()
		return nil, fmt.Errorf("%s: parse timed out after %s", a.Name(), timeout)
	}
	if waitErr != nil && strings.TrimSpace(stdout.String()) == "" {
		return nil, fmt.Errorf("%s: %w", a.Name(), waitErr)
	}

	jsonText, err := extractJSON(stdout.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), ErrNoOutput)
	}

	var raw rawTaskList
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("%s: malformed task JSON: %w", a.Name(), err)
	}

	list := task.New(prdPath, time.Now())
	for _, rt := range raw.Tasks {
		list.Tasks = append(list.Tasks, task.Task{
			ID:          rt.ID,
			Title:       rt.Title,
			Description: rt.Description,
			Priority:    rt.Priority,
			Status:      task.StatusPending,
			DependsOn:   rt.DependsOn,
		})
	}

	if err := task.Validate(list); err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), err)
	}
	return list, nil
}

func drainInto(dst *strings.Builder, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	if dst == nil {
		io.Copy(io.Discard, r)
		return
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		dst.WriteString(scanner.Text())
		dst.WriteByte('\n')
	}
}

// extractJSON returns the substring spanning the first '{' and its matching
// closing '}', tolerating surrounding prose or markdown fences that a model
// might emit despite being told not to.
func extractJSON(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoOutput
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoOutput
}

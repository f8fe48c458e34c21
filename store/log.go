package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relay-loop/ralph/observability"
)

// WriteIterationLog writes the fixed-format iteration log: exit code,
// captured standard output, and captured standard error, each under its own
// section header.
func (s *Store) WriteIterationLog(ctx context.Context, iteration int, taskID string, exitCode int, stdout, stderr string) error {
	content := fmt.Sprintf(
		"=== EXIT CODE: %d ===\n\n=== STDOUT ===\n%s\n\n=== STDERR ===\n%s\n",
		exitCode, stdout, stderr,
	)

	path := s.LogPath(iteration, taskID)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventIterationLog,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "store.WriteIterationLog",
		Data:      map[string]any{"iteration": iteration, "task_id": taskID, "exit_code": exitCode},
	})
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/task"
)

// LoadTasks reads and validates the stored task list. A missing file is not
// an error: it returns (nil, nil), signalling the caller to parse the PRD.
func (s *Store) LoadTasks(ctx context.Context) (*task.List, error) {
	data, err := os.ReadFile(s.tasksPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	var list task.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: malformed task list: %v", ErrReadFailed, err)
	}

	if err := task.Validate(&list); err != nil {
		s.observer.OnEvent(ctx, observability.Event{
			Type:      EventValidateError,
			Level:     observability.LevelError,
			Timestamp: time.Now(),
			Source:    "store.LoadTasks",
			Data:      map[string]any{"error": err.Error()},
		})
		return nil, err
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventTasksLoaded,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "store.LoadTasks",
		Data:      map[string]any{"task_count": len(list.Tasks)},
	})

	return &list, nil
}

// SaveTasks serializes the list as pretty-printed JSON and atomically
// replaces the on-disk file. On any write failure, the previous file
// contents are left bit-exactly intact.
func (s *Store) SaveTasks(ctx context.Context, list *task.List) error {
	if err := task.Validate(list); err != nil {
		return err
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	if err := atomicWrite(s.tasksPath(), data); err != nil {
		return err
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventTasksSaved,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "store.SaveTasks",
		Data:      map[string]any{"task_count": len(list.Tasks)},
	})

	return nil
}

package store

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/relay-loop/ralph/observability"
)

// LockRecord marks a loop as actively iterating over a given PRD.
type LockRecord struct {
	PID         int       `json:"pid"`
	CurrentTask string    `json:"current_task"`
	Progress    string    `json:"progress"`
	StartedAt   time.Time `json:"started_at"`
	PRDPath     string    `json:"prd_path"`
	Agent       string    `json:"agent"`
}

// WriteLock persists the lock record, atomically replacing any prior one.
// Persistence here is best-effort in spirit (callers never treat the loop's
// own lock write as fatal to the iteration in progress), but write errors
// are still returned so setup failures surface.
func (s *Store) WriteLock(ctx context.Context, rec LockRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicWrite(s.lockPath(), data); err != nil {
		return err
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventLockWritten,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "store.WriteLock",
		Data:      map[string]any{"current_task": rec.CurrentTask},
	})
	return nil
}

// ReadLock parses the lock file permissively: a missing or malformed file
// is treated as "no lock", not an error.
func (s *Store) ReadLock() (*LockRecord, bool) {
	data, err := os.ReadFile(s.lockPath())
	if err != nil {
		return nil, false
	}

	var rec LockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// RemoveLock deletes the lock file. Removing an absent lock is not an error.
func (s *Store) RemoveLock(ctx context.Context) error {
	if err := os.Remove(s.lockPath()); err != nil && !os.IsNotExist(err) {
		return err
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventLockRemoved,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "store.RemoveLock",
	})
	return nil
}

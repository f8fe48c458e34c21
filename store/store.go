// Package store implements the durable, atomic, per-loop on-disk state root:
// the task list, the loop lock record, the append-only progress journal, and
// per-iteration logs. Task-list replacement writes a temp file in the target
// directory and renames it, so readers never see a partial file.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/relay-loop/ralph/observability"
)

const (
	tasksFileName    = "tasks.json"
	progressFileName = "progress.md"
	lockFileName     = "lock"
	logsDirName      = "logs"
)

// Store is the sole writer of its state root's files.
type Store struct {
	root     string
	observer observability.Observer
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates (if absent) the state root `<workdir>/.ralph/` when name is
// empty, or `<workdir>/.ralph-<name>/` otherwise, along with its logs
// subdirectory.
func New(workdir, name string, opts ...Option) (*Store, error) {
	dirName := ".ralph"
	if name != "" {
		dirName = ".ralph-" + name
	}
	root := filepath.Join(workdir, dirName)

	if err := os.MkdirAll(filepath.Join(root, logsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create state root: %v", ErrSaveFailed, err)
	}

	s := &Store{root: root, observer: observability.NoOpObserver{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the state root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) tasksPath() string    { return filepath.Join(s.root, tasksFileName) }
func (s *Store) progressPath() string { return filepath.Join(s.root, progressFileName) }
func (s *Store) lockPath() string     { return filepath.Join(s.root, lockFileName) }

// LogPath returns the deterministic path for an iteration's log file.
func (s *Store) LogPath(iteration int, taskID string) string {
	return filepath.Join(s.root, logsDirName, fmt.Sprintf("iteration-%d-%s.log", iteration, taskID))
}

// atomicWrite writes data to a temp file in the same directory as path, then
// renames it into place. The rename is atomic on the same filesystem, so
// readers never observe a partially written file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

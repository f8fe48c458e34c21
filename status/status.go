// Package status implements the shared loop status: a single-writer,
// multi-reader in-memory record of one orchestrator loop's lifecycle state,
// progress counters, and a bounded ring of recent log lines. The owning
// loop is the sole writer; the coordinator and dashboard read through
// Snapshot.
package status

import (
	"sync"
	"time"
)

// State is the lifecycle state of a loop.
type State string

const (
	StateStarting State = "starting"
	StateParsing  State = "parsing"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
	StateStopped  State = "stopped"
)

const recentLogCapacity = 500

// Status is the mutable, mutex-guarded record for one loop.
type Status struct {
	mu sync.Mutex

	name    string
	prdPath string
	agent   string

	state       State
	reason      string
	currentTask string
	completed   int
	total       int
	iteration   int
	startedAt   time.Time
	recentLogs  []string
}

// New creates a Status in the starting state.
func New(name, prdPath, agent string) *Status {
	return &Status{
		name:      name,
		prdPath:   prdPath,
		agent:     agent,
		state:     StateStarting,
		startedAt: time.Now(),
	}
}

// Snapshot is an immutable point-in-time copy for readers.
type Snapshot struct {
	Name        string
	PRDPath     string
	Agent       string
	State       State
	Reason      string
	CurrentTask string
	Completed   int
	Total       int
	Iteration   int
	StartedAt   time.Time
	RecentLogs  []string
}

// Snapshot returns a copy of the current state for read-only consumers.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := make([]string, len(s.recentLogs))
	copy(logs, s.recentLogs)

	return Snapshot{
		Name: s.name, PRDPath: s.prdPath, Agent: s.agent,
		State: s.state, Reason: s.reason, CurrentTask: s.currentTask,
		Completed: s.completed, Total: s.total, Iteration: s.iteration,
		StartedAt: s.startedAt, RecentLogs: logs,
	}
}

// SetState transitions the lifecycle state. reason is recorded for Failed.
func (s *Status) SetState(state State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.reason = reason
}

// SetTotal records the total task count, typically at setup.
func (s *Status) SetTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
}

// SetCurrentTask records the human-readable description of the task in
// flight.
func (s *Status) SetCurrentTask(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTask = desc
}

// IncrementCompleted bumps the completed-task counter.
func (s *Status) IncrementCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
}

// SetIteration records the current iteration number.
func (s *Status) SetIteration(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iteration = n
}

// PushLog appends a line to the bounded recent-log ring, evicting the
// oldest line once capacity is exceeded.
func (s *Status) PushLog(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recentLogs = append(s.recentLogs, line)
	if over := len(s.recentLogs) - recentLogCapacity; over > 0 {
		s.recentLogs = s.recentLogs[over:]
	}
}

// Elapsed returns the time since the loop started.
func (s *Status) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startedAt)
}

// Package task defines the task list data model shared by the durable store,
// the scheduler, and the orchestrator loop.
package task

import "time"

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Task is one unit of work within a List, identified uniquely within its list.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    uint       `json:"priority"`
	Status      Status     `json:"status"`
	DependsOn   []string   `json:"depends_on,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// List is the schema-versioned, ordered sequence of Tasks parsed from one PRD.
type List struct {
	Version   int       `json:"version"`
	PRDPath   string    `json:"prd_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tasks     []Task    `json:"tasks"`
}

const schemaVersion = 1

// New creates an empty List for the given PRD path, stamped with the current
// schema version and creation time.
func New(prdPath string, now time.Time) *List {
	return &List{
		Version:   schemaVersion,
		PRDPath:   prdPath,
		CreatedAt: now,
		UpdatedAt: now,
		Tasks:     []Task{},
	}
}

// Get returns the task with the given id, if present.
func (l *List) Get(id string) (*Task, bool) {
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			return &l.Tasks[i], true
		}
	}
	return nil, false
}

// AllComplete reports whether every task in the list has status Complete.
func (l *List) AllComplete() bool {
	for _, t := range l.Tasks {
		if t.Status != StatusComplete {
			return false
		}
	}
	return true
}

// Counts returns the number of tasks in the complete and failed states, and
// the total task count.
func (l *List) Counts() (completed, failed, total int) {
	total = len(l.Tasks)
	for _, t := range l.Tasks {
		switch t.Status {
		case StatusComplete:
			completed++
		case StatusFailed:
			failed++
		}
	}
	return
}

// ResetInProgress resets any task left in_progress (from an interrupted prior
// run) back to pending. Reports whether it changed anything.
func (l *List) ResetInProgress() bool {
	changed := false
	for i := range l.Tasks {
		if l.Tasks[i].Status == StatusInProgress {
			l.Tasks[i].Status = StatusPending
			changed = true
		}
	}
	return changed
}

package store

import "github.com/relay-loop/ralph/observability"

const (
	EventTasksLoaded   observability.EventType = "store.tasks.loaded"
	EventTasksSaved    observability.EventType = "store.tasks.saved"
	EventLockWritten   observability.EventType = "store.lock.written"
	EventLockRemoved   observability.EventType = "store.lock.removed"
	EventProgress      observability.EventType = "store.progress.appended"
	EventIterationLog  observability.EventType = "store.iteration_log.written"
	EventValidateError observability.EventType = "store.validate.error"
)

package orchestrator

import "github.com/relay-loop/ralph/observability"

const (
	EventSetupStart      observability.EventType = "orchestrator.setup.start"
	EventSetupDone       observability.EventType = "orchestrator.setup.done"
	EventIterationStart  observability.EventType = "orchestrator.iteration.start"
	EventIterationDone   observability.EventType = "orchestrator.iteration.done"
	EventTaskSelected    observability.EventType = "orchestrator.task.selected"
	EventTaskComplete    observability.EventType = "orchestrator.task.complete"
	EventTaskNotDone     observability.EventType = "orchestrator.task.not_done"
	EventTaskFailed      observability.EventType = "orchestrator.task.failed"
	EventCircuitBreaker  observability.EventType = "orchestrator.circuit_breaker"
	EventAllComplete     observability.EventType = "orchestrator.all_complete"
	EventMaxIterations   observability.EventType = "orchestrator.max_iterations"
	EventStopped         observability.EventType = "orchestrator.stopped"
	EventCommit          observability.EventType = "orchestrator.vcs.commit"
	EventCommitFailed    observability.EventType = "orchestrator.vcs.commit_failed"
	EventBranchFailed    observability.EventType = "orchestrator.vcs.branch_failed"
	EventWatcherNonFatal observability.EventType = "orchestrator.watcher.non_fatal"
)

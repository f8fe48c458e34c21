package coordinator

import "github.com/relay-loop/ralph/observability"

const (
	EventStart       observability.EventType = "coordinator.start"
	EventLoopSpawned observability.EventType = "coordinator.loop.spawned"
	EventLoopDone    observability.EventType = "coordinator.loop.done"
	EventLoopFailed  observability.EventType = "coordinator.loop.failed"
	EventSignal      observability.EventType = "coordinator.signal"
	EventDone        observability.EventType = "coordinator.done"
)

package agent

import "github.com/relay-loop/ralph/observability"

const (
	EventSpawn             observability.EventType = "agent.spawn"
	EventUnavailable       observability.EventType = "agent.unavailable"
	EventFallbackApplied   observability.EventType = "agent.fallback.applied"
	EventFallbackReverted  observability.EventType = "agent.fallback.reverted"
	EventFallbackExhausted observability.EventType = "agent.fallback.exhausted"
)

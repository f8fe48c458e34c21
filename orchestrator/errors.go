package orchestrator

import "errors"

// Sentinel errors for the orchestrator loop.
var (
	ErrNoAgentAvailable = errors.New("no agent backend available on this host")
	ErrWorkdirMissing   = errors.New("workdir does not exist")
	ErrPRDMissing       = errors.New("PRD file does not exist")
	ErrCircuitBreaker   = errors.New("circuit breaker tripped")
	ErrNoActionableTask = errors.New("no actionable tasks remain")
)

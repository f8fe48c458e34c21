package agent

import "errors"

// Sentinel errors for the agent adapter subsystem.
var (
	ErrUnknownBackend   = errors.New("unknown agent backend")
	ErrNoAgentAvailable = errors.New("no agent backend available")
)

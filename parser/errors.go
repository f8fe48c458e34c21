package parser

import "errors"

// Sentinel errors for the task parser.
var (
	ErrNoOutput         = errors.New("agent produced no parseable task list")
	ErrAllBackendsTried = errors.New("all agent backends failed to parse the PRD")
)

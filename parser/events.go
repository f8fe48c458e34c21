package parser

import "github.com/relay-loop/ralph/observability"

const (
	EventParsed        observability.EventType = "parser.parsed"
	EventBackendFailed observability.EventType = "parser.backend_failed"
)

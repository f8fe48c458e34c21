package coordinator

import "errors"

// ErrCanonicalize is returned when a PRD path cannot be resolved before any
// loop is spawned, aborting the whole run before any side effect.
var ErrCanonicalize = errors.New("failed to canonicalize PRD path")

package task

import "errors"

// Sentinel errors for task list validation.
var (
	ErrDuplicateTaskID   = errors.New("duplicate task id")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCyclicDependency  = errors.New("circular dependencies")
)

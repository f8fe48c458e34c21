package store

import "errors"

// Sentinel errors for durable-store operations.
var (
	ErrSaveFailed = errors.New("save failed")
	ErrReadFailed = errors.New("read failed")
)

package async

import "errors"

var (
	ErrQueueClosed = errors.New("async: queue no longer accepts tasks")
	ErrPanic       = errors.New("async: task panicked")
)

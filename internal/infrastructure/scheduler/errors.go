package scheduler

import "errors"

var (
	// ErrAlreadyRunning is returned when registering a task on a started scheduler
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrInvalidTask is returned for a task without a name, interval or function
	ErrInvalidTask = errors.New("invalid scheduled task")

	// ErrDuplicateTask is returned when a task name is registered twice
	ErrDuplicateTask = errors.New("scheduled task already registered")
)

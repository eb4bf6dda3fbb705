package scheduler

import (
	"errors"

	"github.com/feeledger/backend/internal/domain/shared"
)

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJobKind is returned when no executor handles a job's kind
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrSweepInProgress is returned when an overdue sweep is requested while one is running
	ErrSweepInProgress = shared.NewDomainError(shared.CodeConcurrencyConflict, "An overdue sweep is already running")
)

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	feeapp "github.com/feeledger/backend/internal/application/fee"
	"go.uber.org/zap"
)

// OverdueSweeper flags vouchers whose due date has passed
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (*feeapp.OverdueSweepResult, error)
}

// OverdueSweepExecutor runs overdue sweep jobs. Only one sweep runs at a
// time; a job arriving while another sweep is active is a no-op.
type OverdueSweepExecutor struct {
	sweeper OverdueSweeper
	logger  *zap.Logger
	active  atomic.Bool
}

// NewOverdueSweepExecutor creates an OverdueSweepExecutor
func NewOverdueSweepExecutor(sweeper OverdueSweeper, logger *zap.Logger) *OverdueSweepExecutor {
	return &OverdueSweepExecutor{sweeper: sweeper, logger: logger}
}

// Kind implements JobExecutor
func (e *OverdueSweepExecutor) Kind() JobKind {
	return JobKindOverdueSweep
}

// Execute implements JobExecutor
func (e *OverdueSweepExecutor) Execute(ctx context.Context, job *Job) error {
	result, err := e.Run(ctx, job.AsOf)
	if errors.Is(err, ErrSweepInProgress) {
		e.logger.Debug("Overdue sweep already running, skipping", zap.String("job_id", job.ID.String()))
		return nil
	}
	if err != nil {
		return err
	}
	e.logger.Info("Overdue sweep finished",
		zap.String("job_id", job.ID.String()),
		zap.Time("as_of", result.AsOf),
		zap.Int("scanned", result.Scanned),
		zap.Int("marked", result.Marked),
		zap.Int("conflicts", result.Conflicts),
	)
	return nil
}

// Run sweeps synchronously, for operators triggering a sweep by hand.
// It returns ErrSweepInProgress while another sweep is active.
func (e *OverdueSweepExecutor) Run(ctx context.Context, asOf time.Time) (*feeapp.OverdueSweepResult, error) {
	if !e.active.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer e.active.Store(false)

	return e.sweeper.MarkOverdue(ctx, asOf)
}

// OverdueTrigger submits an overdue sweep every interval
type OverdueTrigger struct {
	interval   time.Duration
	runOnStart bool
	maxRetries int
	scheduler  *Scheduler
	logger     *zap.Logger
	now        func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOverdueTrigger creates an OverdueTrigger. With runOnStart a sweep is
// submitted as soon as the trigger starts.
func NewOverdueTrigger(interval time.Duration, runOnStart bool, scheduler *Scheduler, logger *zap.Logger) *OverdueTrigger {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueTrigger{
		interval:   interval,
		runOnStart: runOnStart,
		maxRetries: scheduler.config.RetryAttempts,
		scheduler:  scheduler,
		logger:     logger,
		now:        time.Now,
	}
}

// Start starts the trigger loop
func (t *OverdueTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Overdue sweep trigger started", zap.Duration("interval", t.interval))
	return nil
}

// Stop stops the trigger loop
func (t *OverdueTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *OverdueTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.runOnStart {
		t.trigger()
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.trigger()
		}
	}
}

// trigger submits a sweep evaluated at the current time
func (t *OverdueTrigger) trigger() {
	job := NewJob(JobKindOverdueSweep, t.now(), t.maxRetries)
	if err := t.scheduler.SubmitJob(job); err != nil {
		t.logger.Warn("Failed to submit overdue sweep", zap.Error(err))
	}
}

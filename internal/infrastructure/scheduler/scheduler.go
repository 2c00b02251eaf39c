// Package scheduler runs housekeeping tasks on fixed intervals for as long as
// the server is up.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFunc does one round of work
type TaskFunc func(ctx context.Context) error

// Task is a named function run every Interval
type Task struct {
	Name     string
	Interval time.Duration
	// Timeout bounds one run. Zero means the interval.
	Timeout time.Duration
	// RunOnStart runs the task once right after Start
	RunOnStart bool
	Run        TaskFunc
}

// Metrics receives the outcome of every run. A nil value disables recording.
type Metrics interface {
	RecordTaskRun(task string, duration time.Duration, err error)
}

// Scheduler runs registered tasks, one goroutine per task. A run never
// overlaps the previous run of the same task.
type Scheduler struct {
	logger  *zap.Logger
	metrics Metrics

	tasks     []Task
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a stopped scheduler
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// WithMetrics sets the run recorder
func (s *Scheduler) WithMetrics(m Metrics) *Scheduler {
	s.metrics = m
	return s
}

// Register adds a task. Tasks can only be added before Start.
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" || task.Interval <= 0 || task.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidTask, task.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrAlreadyRunning
	}
	for _, t := range s.tasks {
		if t.Name == task.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateTask, task.Name)
		}
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Tasks returns the registered task names
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.Name
	}
	return names
}

// Start launches every registered task
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, task := range tasks {
		s.wg.Add(1)
		go s.runLoop(ctx, task)
	}

	s.logger.Info("Scheduler started", zap.Int("tasks", len(tasks)))
	return nil
}

// Stop cancels the tasks and waits for running ones until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) runLoop(ctx context.Context, task Task) {
	defer s.wg.Done()

	if task.RunOnStart {
		s.runOnce(ctx, task)
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

// runOnce executes one run, turning a panic into an error
func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = task.Interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task.Run(runCtx)
	}()
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordTaskRun(task.Name, elapsed, err)
	}
	if err != nil {
		s.logger.Error("Scheduled task failed",
			zap.String("task", task.Name),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled task completed",
		zap.String("task", task.Name),
		zap.Duration("duration", elapsed))
}

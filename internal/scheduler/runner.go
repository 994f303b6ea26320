// Package scheduler runs ingestion jobs on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job is a named unit of work run every Interval. A job never overlaps
// itself; different jobs may run at the same time.
type Job struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

type Runner struct {
	logger *logrus.Logger
	jobs   []Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

func New(logger *logrus.Logger, jobs ...Job) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{logger: logger, jobs: jobs}
}

// Start launches one loop per job. The loops stop when ctx is done or
// Shutdown is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("scheduler already started")
	}
	for _, job := range r.jobs {
		if job.Run == nil || job.Interval <= 0 {
			return fmt.Errorf("job %q: run func and positive interval required", job.Name)
		}
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(job)
	}
	r.logger.Infof("scheduler started with %d jobs", len(r.jobs))
	return nil
}

// Shutdown cancels running jobs and waits for every loop and background run.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Go runs fn once in the background under the same logging and panic
// containment as scheduled jobs. It returns the run id.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) string {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.NewString()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.execute(ctx, name, runID, fn)
	}()
	return runID
}

func (r *Runner) loop(job Job) {
	defer r.wg.Done()

	if job.RunOnStart {
		_ = r.execute(r.ctx, job.Name, uuid.NewString(), job.Run)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			_ = r.execute(r.ctx, job.Name, uuid.NewString(), job.Run)
		}
	}
}

// execute runs fn, logging its outcome. A panic is recovered and reported as
// an error so the next run still happens.
func (r *Runner) execute(ctx context.Context, name, runID string, fn func(ctx context.Context) error) (err error) {
	logger := r.logger.WithFields(logrus.Fields{
		"job":    name,
		"run_id": runID,
	})
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			logger.WithField("stack", string(debug.Stack())).Errorf("job %s panicked: %v", name, p)
			return
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			logger.WithField("elapsed", elapsed).Errorf("job %s failed: %v", name, err)
			return
		}
		logger.WithField("elapsed", elapsed).Infof("job %s finished", name)
	}()

	logger.Debugf("job %s started", name)
	return fn(ctx)
}

package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"codeberg.org/algorave/apikit/internal/logger"
)

// default upper bound for a single job run
const defaultJobTimeout = 5 * time.Minute

// a unit of periodic work; ctx is canceled on shutdown or when the run times out
type Job func(ctx context.Context) error

// receives job outcomes; satisfied by *metrics.Metrics
type Recorder interface {
	RecordJobRun(job string, success bool, duration time.Duration)
}

// cron-driven runner for named jobs; overlapping runs of a job are skipped
type Scheduler struct {
	cron       *cron.Cron
	recorder   Recorder
	jobTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]Job
}

func New(recorder Recorder) *Scheduler {
	l := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		recorder:   recorder,
		jobTimeout: defaultJobTimeout,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]Job),
	}
}

// adds job under name; spec is a standard 5-field expression or a descriptor such as "@every 1m"
func (s *Scheduler) Register(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", spec, name, err)
	}

	s.jobs[name] = job
	logger.Info("scheduled job registered", "job", name, "schedule", spec)

	return nil
}

// names of the registered jobs, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// runs a registered job immediately and returns its error
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}

	return s.run(name, job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started", "jobs", len(s.Jobs()))
}

// cancels running jobs and waits for them up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		logger.Info("scheduler stopped")
	case <-ctx.Done():
		logger.Warn("scheduler stop timed out, jobs still running")
	}
}

func (s *Scheduler) run(name string, job Job) (err error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}

		duration := time.Since(start)
		if s.recorder != nil {
			s.recorder.RecordJobRun(name, err == nil, duration)
		}

		if err != nil {
			logger.ErrorErr(err, "scheduled job failed", "job", name, "duration_ms", duration.Milliseconds())
			return
		}

		logger.Debug("scheduled job finished", "job", name, "duration_ms", duration.Milliseconds())
	}()

	return job(ctx)
}

// adapts cron's logger to the application logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorErr(err, "cron: "+msg, keysAndValues...)
}

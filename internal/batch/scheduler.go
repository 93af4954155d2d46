package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler repeats a Runner on a cron schedule. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	runner   *Runner
	schedule string
	logger   logrus.FieldLogger
	cron     *cron.Cron
	entry    atomic.Int64
	runs     atomic.Int64

	// OnRun, if set, is called after every run.
	OnRun func(Summary, error)
}

// NewScheduler parses schedule, a standard 5-field cron expression or a
// descriptor such as "@every 1m".
func NewScheduler(runner *Runner, schedule string, logger logrus.FieldLogger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("component", "scheduler")

	adapter := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		cron:     c,
	}, nil
}

// Start runs the batch on each tick until ctx is done, then waits for a run
// in progress to finish. It must be called once.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.schedule, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}
	s.entry.Store(int64(id))

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"next":     s.cron.Entry(id).Next,
	}).Info("scheduler started")

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.WithField("runs", s.runs.Load()).Info("scheduler stopped")
	return nil
}

// Runs returns how many runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	id := cron.EntryID(s.entry.Load())
	if id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	summary, err := s.runner.Run(ctx)
	s.runs.Add(1)
	if err != nil {
		s.logger.WithError(err).WithField("run_id", summary.RunID).Warn("scheduled run ended early")
	}
	if s.OnRun != nil {
		s.OnRun(summary, err)
	}
}

// cronLogger adapts a logrus.FieldLogger to cron.Logger.
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}

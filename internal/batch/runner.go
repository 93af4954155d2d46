// Package batch computes determinants for a numbered set of matrix files on a
// worker pool and records each result to a report sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vnykmshr/matdet/pkg/common/validation"
	"github.com/vnykmshr/matdet/pkg/matrix"
	"github.com/vnykmshr/matdet/pkg/metrics"
	"github.com/vnykmshr/matdet/pkg/report"
	"github.com/vnykmshr/matdet/pkg/scheduling/workerpool"
)

// Failure stages, used as the "stage" metric label and log field.
const (
	StageRead        = "read"
	StageDeterminant = "determinant"
	StageRecord      = "record"
	StagePanic       = "panic"
)

// Config configures a Runner.
type Config struct {
	// Name labels metrics and logs. Defaults to "matdet".
	Name string

	// Workers is the pool size for each run.
	Workers int

	// Matrices is how many input files make up one run, numbered from 1.
	Matrices int

	// InputDir holds the input files. Defaults to the working directory.
	InputDir string

	// InputPattern names input i via fmt.Sprintf(InputPattern, i).
	InputPattern string

	// Sink receives results from every run. It is not closed by the runner.
	Sink report.Sink

	// RunSink, if set, opens an extra sink for a single run. It is closed
	// when the run ends.
	RunSink func(runID string) (report.Sink, error)

	// Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger

	// Metrics, if set, instruments each run's pool and sink.
	Metrics *metrics.Registry

	// NewPool builds the pool for a run. Defaults to workerpool.NewSafe.
	NewPool func(workerpool.Config) (workerpool.Pool, error)
}

// Summary describes one completed run.
type Summary struct {
	RunID     string
	Submitted int
	Succeeded int
	Failed    int
	Rejected  int
	Duration  time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d submitted, %d succeeded, %d failed, %d rejected in %s",
		s.RunID, s.Submitted, s.Succeeded, s.Failed, s.Rejected, s.Duration)
}

// Runner executes batch runs. Run may be called repeatedly.
type Runner struct {
	config Config
	logger logrus.FieldLogger
}

// NewRunner validates config and fills defaults.
func NewRunner(config Config) (*Runner, error) {
	if err := validation.ValidatePositive("batch", "Workers", config.Workers); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeInt("batch", "Matrices", config.Matrices); err != nil {
		return nil, err
	}
	if err := validation.ValidateVerbCount("batch", "InputPattern", config.InputPattern, "%d"); err != nil {
		return nil, err
	}
	if config.Sink == nil && config.RunSink == nil {
		return nil, validation.ValidateNotNil("batch", "Sink", nil)
	}

	if config.Name == "" {
		config.Name = "matdet"
	}
	if config.InputDir == "" {
		config.InputDir = "."
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.NewPool == nil {
		config.NewPool = workerpool.NewSafe
	}

	return &Runner{
		config: config,
		logger: config.Logger.WithField("component", "batch"),
	}, nil
}

// InputName returns the file name of input i.
func (r *Runner) InputName(i int) string {
	return fmt.Sprintf(r.config.InputPattern, i)
}

type runState struct {
	runID     string
	logger    logrus.FieldLogger
	sink      report.Sink
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Run submits one task per input, waits for the pool to drain and returns
// the tally. Per-input failures are logged and counted, not returned. If ctx
// is cancelled, no further inputs are submitted; tasks already queued still
// run and ctx.Err() is returned with the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	st := &runState{runID: uuid.NewString()}
	st.logger = r.logger.WithField("run_id", st.runID)
	summary := Summary{RunID: st.runID}

	sink, closeSink, err := r.openSink(st.runID)
	if err != nil {
		return summary, err
	}
	defer closeSink()
	st.sink = sink

	pool, err := r.config.NewPool(workerpool.Config{
		WorkerCount: r.config.Workers,
		Logger:      st.logger,
		FaultHandler: func(*workerpool.TaskFault) {
			st.failed.Add(1)
			r.countFailure(StagePanic)
		},
	})
	if err != nil {
		return summary, fmt.Errorf("failed to create worker pool: %w", err)
	}
	if reg := r.config.Metrics; reg != nil {
		reg.BatchRuns.WithLabelValues(r.config.Name).Inc()
		pool = workerpool.Instrument(pool, r.config.Name, reg)
	}

	st.logger.WithFields(logrus.Fields{
		"workers":  r.config.Workers,
		"matrices": r.config.Matrices,
	}).Info("batch started")

	var runErr error
	for i := 1; i <= r.config.Matrices; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			st.logger.WithField("remaining", r.config.Matrices-i+1).Warn("batch cancelled, not submitting remaining inputs")
			break
		}

		name := r.InputName(i)
		path := filepath.Join(r.config.InputDir, name)
		if err := pool.Submit(func() { r.process(ctx, st, name, path) }); err != nil {
			summary.Rejected++
			st.logger.WithError(err).WithField("input", name).Error("submit rejected")
			continue
		}
		summary.Submitted++
	}

	pool.Close()

	summary.Succeeded = int(st.succeeded.Load())
	summary.Failed = int(st.failed.Load())
	summary.Duration = time.Since(start)

	if reg := r.config.Metrics; reg != nil {
		reg.BatchDuration.WithLabelValues(r.config.Name).Observe(summary.Duration.Seconds())
	}

	st.logger.WithFields(logrus.Fields{
		"submitted": summary.Submitted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"rejected":  summary.Rejected,
		"duration":  summary.Duration,
	}).Info("batch finished")

	return summary, runErr
}

func (r *Runner) openSink(runID string) (report.Sink, func(), error) {
	sink := r.config.Sink
	closeSink := func() {}

	if r.config.RunSink != nil {
		extra, err := r.config.RunSink(runID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run sink: %w", err)
		}
		closeSink = func() {
			if err := extra.Close(); err != nil {
				r.logger.WithError(err).WithField("run_id", runID).Warn("closing run sink failed")
			}
		}
		sink = report.NewMultiSink(sink, extra)
	}

	if reg := r.config.Metrics; reg != nil {
		sink = report.Instrument(sink, r.config.Name, reg)
	}
	return sink, closeSink, nil
}

// process handles one input inside a pool task.
func (r *Runner) process(ctx context.Context, st *runState, name, path string) {
	logger := st.logger.WithField("input", name)

	m, err := matrix.ReadFile(path)
	if err != nil {
		r.fail(st, logger, StageRead, err)
		return
	}

	det, err := matrix.Determinant(m)
	if err != nil {
		r.fail(st, logger, StageDeterminant, err)
		return
	}

	// Queued tasks still run after cancellation, so their results are kept.
	if err := st.sink.Record(context.WithoutCancel(ctx), report.Entry{Input: name, Determinant: det}); err != nil {
		r.fail(st, logger, StageRecord, err)
		return
	}

	st.succeeded.Add(1)
	if reg := r.config.Metrics; reg != nil {
		reg.JobsSucceeded.WithLabelValues(r.config.Name).Inc()
	}
	logger.WithFields(logrus.Fields{
		"size":        m.Size(),
		"determinant": det,
	}).Debug("determinant recorded")
}

func (r *Runner) fail(st *runState, logger logrus.FieldLogger, stage string, err error) {
	st.failed.Add(1)
	r.countFailure(stage)

	entry := logger.WithError(err).WithField("stage", stage)
	if errors.Is(err, matrix.ErrNotSquare) {
		entry.Warn("skipping non-square matrix")
		return
	}
	entry.Error("input failed")
}

func (r *Runner) countFailure(stage string) {
	if reg := r.config.Metrics; reg != nil {
		reg.JobsFailed.WithLabelValues(r.config.Name, stage).Inc()
	}
}

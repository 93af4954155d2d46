package workerpool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	gferrors "github.com/vnykmshr/matdet/pkg/common/errors"
	"github.com/vnykmshr/matdet/pkg/common/validation"
)

// Task is a unit of work executed by a worker. The pool never observes a
// result; a task that needs to report one must arrange it itself.
type Task func()

var (
	// ErrPoolClosed is returned by Submit once Close has begun.
	// It matches the shared ErrClosed through errors.Is.
	ErrPoolClosed = fmt.Errorf("cannot submit task: worker pool has been shut down: %w", gferrors.ErrClosed)

	// ErrNilTask is returned by Submit for a nil task.
	ErrNilTask = errors.New("task cannot be nil")
)

// TaskFault describes a panic recovered from a task body.
type TaskFault struct {
	// WorkerID identifies which worker executed the task
	WorkerID int

	// Seq is the submission sequence number of the task, starting at 1
	Seq uint64

	// Recovered is the value passed to panic
	Recovered interface{}

	// Stack is the goroutine stack captured at recovery
	Stack []byte
}

func (f *TaskFault) Error() string {
	return fmt.Sprintf("task %d panicked on worker %d: %v", f.Seq, f.WorkerID, f.Recovered)
}

// Pool executes submitted tasks on a fixed set of workers.
type Pool interface {
	// Submit appends a task to the queue.
	// Returns ErrPoolClosed if Close has already begun.
	Submit(task Task) error

	// Close stops accepting tasks, lets the workers drain everything already
	// queued and blocks until all of them have exited. Safe to call more than
	// once; later calls wait for the first to finish.
	Close()

	// IsClosed reports whether Close has begun.
	IsClosed() bool

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks that finished,
	// including those that panicked.
	TotalCompleted() int64

	// TotalFaulted returns the total number of tasks that panicked.
	TotalFaulted() int64

	// TotalDropped returns the number of queued tasks discarded at Close by a
	// pool without workers.
	TotalDropped() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool. Must be >= 0.
	// A pool with no workers queues tasks but never runs them; Close
	// discards whatever is queued.
	WorkerCount int

	// Logger receives fault and lifecycle logs. Defaults to the logrus
	// standard logger.
	Logger logrus.FieldLogger

	// FaultHandler is called after a task panic has been recovered and logged.
	FaultHandler func(fault *TaskFault)

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called after a task has been dequeued, before it runs.
	OnTaskStart func(workerID int, seq uint64)

	// OnTaskComplete is called after a task returns. fault is nil unless the
	// task panicked.
	OnTaskComplete func(workerID int, seq uint64, fault *TaskFault)
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	logger logrus.FieldLogger
	queue  *taskQueue

	closeOnce sync.Once
	workerWg  sync.WaitGroup

	activeWorkers  atomic.Int32
	totalCompleted atomic.Int64
	totalFaulted   atomic.Int64
	totalDropped   atomic.Int64
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers.
// Panics if workerCount is negative.
func New(workerCount int) Pool {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a new worker pool with the specified configuration.
// Panics if the configuration is invalid.
func NewWithConfig(config Config) Pool {
	pool, err := NewSafe(config)
	if err != nil {
		panic(err.Error())
	}
	return pool
}

// NewSafe creates a new worker pool and returns an error instead of
// panicking when the configuration is invalid.
func NewSafe(config Config) (Pool, error) {
	if err := validation.ValidateNonNegativeInt("workerpool", "WorkerCount", config.WorkerCount); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	pool := &workerPool{
		config: config,
		logger: logger.WithField("component", "workerpool"),
		queue:  newTaskQueue(),
	}

	pool.workerWg.Add(config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		w := &worker{id: i, pool: pool}
		go w.run()
	}

	return pool, nil
}

/*
Package workerpool provides a fixed-size worker pool that runs zero-argument
tasks concurrently and drains its queue before shutting down.

A pool owns WorkerCount goroutines and one unbounded FIFO queue. Submit may be
called from any goroutine; each call appends to the tail and wakes one idle
worker. Workers take tasks from the head, so tasks are dequeued in
submission order across the whole pool. With more than one worker, tasks may
finish in any order.

Basic usage:

	pool := workerpool.New(4)
	defer pool.Close()

	for _, name := range inputs {
		name := name
		if err := pool.Submit(func() { process(name) }); err != nil {
			log.Printf("Failed to submit %s: %v", name, err)
		}
	}

Shutdown:

Close is the only way to stop a pool. It sets the shutdown flag, wakes every
worker and blocks until all of them have exited. A worker exits only after it
has seen the queue empty with the flag set, so every task accepted before
Close is executed exactly once before Close returns. Any Submit that starts
after Close has begun fails with ErrPoolClosed and the task never runs.
Calling Close from inside a task deadlocks.

Faults:

A task that panics does not kill its worker. The panic is recovered, logged
through the configured logrus.FieldLogger, counted, and handed to
Config.FaultHandler if one is set. The submitter is never told; tasks that
need to report failures must do so themselves.

	pool := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		Logger:      logger,
		FaultHandler: func(f *workerpool.TaskFault) {
			alerts <- f
		},
	})

Zero workers:

WorkerCount may be 0. Such a pool accepts tasks but never runs them; Close
discards whatever is queued, logs a warning and reports the count through
TotalDropped.

Metrics:

NewWithMetrics, NewWithConfigAndMetrics and Instrument wrap a pool in a
MetricsPool that publishes queue depth, active workers, task counters and
timing histograms to Prometheus.
*/
package workerpool

package workerpool

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Submit adds a task to the tail of the queue and wakes one idle worker.
func (p *workerPool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	_, err := p.queue.push(task)
	return err
}

// Close shuts the pool down and waits for every worker to exit.
func (p *workerPool) Close() {
	p.closeOnce.Do(func() {
		p.queue.close()
		p.workerWg.Wait()

		// No worker will ever drain these.
		if p.config.WorkerCount == 0 {
			if n := p.queue.discard(); n > 0 {
				p.totalDropped.Add(int64(n))
				p.logger.WithField("dropped", n).Warn("pool has no workers, discarding queued tasks")
			}
		}
	})
}

// IsClosed reports whether Close has begun.
func (p *workerPool) IsClosed() bool {
	return p.queue.isClosed()
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return p.queue.len()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return int64(p.queue.accepted())
}

// TotalCompleted returns the total number of tasks that finished.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// TotalFaulted returns the total number of tasks that panicked.
func (p *workerPool) TotalFaulted() int64 {
	return p.totalFaulted.Load()
}

// TotalDropped returns the number of tasks discarded without running.
func (p *workerPool) TotalDropped() int64 {
	return p.totalDropped.Load()
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for {
		item, ok := w.pool.queue.pop()
		if !ok {
			// Closed and drained
			return
		}
		w.executeTask(item)
	}
}

// executeTask runs one task outside the queue lock, recovering any panic.
func (w *worker) executeTask(item queuedTask) {
	p := w.pool
	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id, item.seq)
	}

	fault := w.invoke(item)

	p.totalCompleted.Add(1)
	if fault != nil {
		p.totalFaulted.Add(1)
		p.logger.WithFields(logrus.Fields{
			"worker_id": fault.WorkerID,
			"seq":       fault.Seq,
			"panic":     fault.Recovered,
		}).Error("task panicked")

		if p.config.FaultHandler != nil {
			p.config.FaultHandler(fault)
		}
	}

	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(w.id, item.seq, fault)
	}
}

func (w *worker) invoke(item queuedTask) (fault *TaskFault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &TaskFault{
				WorkerID:  w.id,
				Seq:       item.seq,
				Recovered: r,
				Stack:     debug.Stack(),
			}
		}
	}()

	item.task()
	return nil
}

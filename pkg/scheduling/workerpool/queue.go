package workerpool

import (
	"sync"
	"sync/atomic"
)

const defaultQueueCap = 16

// queuedTask is a task stamped with its submission order.
type queuedTask struct {
	task Task
	seq  uint64
}

// taskQueue is an unbounded FIFO shared by submitters and workers.
// mu guards tasks, nextSeq and every write of closed; cond waits on
// "non-empty or closed". closed may be read without mu.
type taskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []queuedTask
	nextSeq uint64
	closed  atomic.Bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		tasks: make([]queuedTask, 0, defaultQueueCap),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends task to the tail and wakes one waiting worker.
// The closed check and the append happen in the same critical section.
func (q *taskQueue) push(task Task) (uint64, error) {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return 0, ErrPoolClosed
	}
	q.nextSeq++
	seq := q.nextSeq
	q.tasks = append(q.tasks, queuedTask{task: task, seq: seq})
	q.mu.Unlock()

	q.cond.Signal()
	return seq, nil
}

// pop blocks until a task is available or the queue is closed and empty.
// ok is false only in the latter case.
func (q *taskQueue) pop() (item queuedTask, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed.Load() {
		q.cond.Wait()
	}

	if len(q.tasks) == 0 {
		return queuedTask{}, false
	}

	item = q.tasks[0]
	q.tasks[0] = queuedTask{}
	q.tasks = q.tasks[1:]
	if len(q.tasks) == 0 {
		// Release the drained backing array.
		q.tasks = nil
	}

	return item, true
}

// close sets the shutdown flag and wakes every waiter.
// It reports whether this call performed the transition.
func (q *taskQueue) close() bool {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return false
	}
	q.closed.Store(true)
	q.mu.Unlock()

	q.cond.Broadcast()
	return true
}

// discard empties the queue and returns how many tasks were removed.
func (q *taskQueue) discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tasks)
	q.tasks = nil
	return n
}

// accepted returns how many tasks push has ever admitted. The count moves
// under mu before the task becomes visible to pop.
func (q *taskQueue) accepted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nextSeq
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *taskQueue) isClosed() bool {
	return q.closed.Load()
}

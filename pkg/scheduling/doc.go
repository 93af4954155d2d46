/*
Package scheduling groups the task execution primitives used by matdet.

  - workerpool: fixed worker pool with an unbounded FIFO queue that drains
    before shutdown

Repeating a batch on a cron schedule lives in internal/batch, which drives a
fresh worker pool for every run.
*/
package scheduling

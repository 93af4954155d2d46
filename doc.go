/*
Package matdet computes determinants of many matrix files concurrently.

Packages:

  - pkg/scheduling/workerpool: fixed-size worker pool, FIFO queue, drain on Close
  - pkg/matrix: matrix file parsing and cofactor-expansion determinant
  - pkg/report: result sinks (writer, appending file, Redis list, fan-out)
  - pkg/metrics: Prometheus collectors for pools, batches and sinks
  - pkg/common/errors, pkg/common/validation: shared error types and checks
  - internal/batch: one task per input file, optional cron repetition
  - internal/config: defaults, YAML/JSON file, .env and MATDET_* variables
  - internal/logging: logrus setup
  - cmd/matdet: the command line tool

Example usage:

	import "github.com/vnykmshr/matdet/pkg/scheduling/workerpool"

	pool := workerpool.New(4)
	for _, path := range inputs {
		path := path
		_ = pool.Submit(func() { process(path) })
	}
	pool.Close() // waits for every submitted task

Command line:

	matdet 4 10                    # fileIn-1.txt … fileIn-10.txt on 4 workers
	matdet -schedule "@every 5m" -metrics-addr :9090 4 10
*/
package matdet

package benchmark

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vnykmshr/matdet/internal/batch"
	"github.com/vnykmshr/matdet/pkg/matrix"
	"github.com/vnykmshr/matdet/pkg/report"
	"github.com/vnykmshr/matdet/pkg/scheduling/workerpool"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// BenchmarkWorkerPoolSubmit measures task submission performance.
func BenchmarkWorkerPoolSubmit(b *testing.B) {
	for _, workers := range []int{2, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			pool, err := workerpool.NewSafe(workerpool.Config{WorkerCount: workers, Logger: quietLogger()})
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer pool.Close()

			task := func() {}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = pool.Submit(task)
			}
		})
	}
}

// BenchmarkWorkerPoolThroughput measures submit-to-drain time.
func BenchmarkWorkerPoolThroughput(b *testing.B) {
	for _, workers := range []int{1, 4, 16} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				pool := workerpool.NewWithConfig(workerpool.Config{WorkerCount: workers, Logger: quietLogger()})
				for j := 0; j < 1000; j++ {
					_ = pool.Submit(func() {})
				}
				pool.Close()
			}
		})
	}
}

// BenchmarkWorkerPoolContention measures performance under contention.
func BenchmarkWorkerPoolContention(b *testing.B) {
	pool := workerpool.NewWithConfig(workerpool.Config{WorkerCount: 8, Logger: quietLogger()})
	defer pool.Close()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = pool.Submit(func() {})
		}
	})
}

// BenchmarkDeterminant measures cofactor expansion by matrix size.
func BenchmarkDeterminant(b *testing.B) {
	for _, n := range []int{3, 5, 7, 9} {
		m := make(matrix.Matrix, n)
		for r := range m {
			m[r] = make([]float64, n)
			for c := range m[r] {
				m[r][c] = float64((r*n+c)%7) + 1
			}
		}

		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = matrix.Determinant(m)
			}
		})
	}
}

// BenchmarkBatchRun measures a full run over 32 small input files.
func BenchmarkBatchRun(b *testing.B) {
	dir := b.TempDir()
	const inputs = 32
	for i := 1; i <= inputs; i++ {
		content := fmt.Sprintf("%d 1 0 2\n0 1 3 1\n2 0 1 %d\n1 1 1 1\n", i, i%5)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("fileIn-%d.txt", i)), []byte(content), 0o644); err != nil {
			b.Fatal(err)
		}
	}

	for _, workers := range []int{1, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			runner, err := batch.NewRunner(batch.Config{
				Workers:      workers,
				Matrices:     inputs,
				InputDir:     dir,
				InputPattern: "fileIn-%d.txt",
				Sink:         report.NewWriterSink(io.Discard),
				Logger:       quietLogger(),
			})
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := runner.Run(context.Background()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func workerLabel(n int) string {
	return fmt.Sprintf("workers-%d", n)
}

// Command matdet computes the determinant of fileIn-1.txt … fileIn-M.txt on
// N workers and appends "<file>: <det>" lines to fileOut.txt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vnykmshr/matdet/internal/batch"
	"github.com/vnykmshr/matdet/internal/config"
	"github.com/vnykmshr/matdet/internal/logging"
	"github.com/vnykmshr/matdet/pkg/metrics"
	"github.com/vnykmshr/matdet/pkg/report"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitInputFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	configFile   string
	envFile      string
	output       string
	inputDir     string
	inputPattern string
	metricsAddr  string
	redisAddr    string
	redisKey     string
	schedule     string
	logLevel     string
	logFormat    string
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *flags) {
	f := &flags{}
	fs := flag.NewFlagSet("matdet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configFile, "config", "", "config file (YAML or JSON)")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file with MATDET_* variables")
	fs.StringVar(&f.output, "output", "", "file to append results to (default fileOut.txt)")
	fs.StringVar(&f.inputDir, "input-dir", "", "directory holding the input matrices")
	fs.StringVar(&f.inputPattern, "input-pattern", "", "input file name pattern with one %d (default fileIn-%d.txt)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "also push results to Redis at host:port")
	fs.StringVar(&f.redisKey, "redis-key", "", "Redis list key prefix")
	fs.StringVar(&f.schedule, "schedule", "", `repeat the batch on a cron schedule, e.g. "@every 1m"`)
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "log format (text or json)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `matdet - concurrent determinant calculator

Usage:
  matdet [options] N M

  N  number of worker goroutines
  M  number of input matrices (fileIn-1.txt … fileIn-M.txt)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Examples:
  matdet 4 10
  matdet -input-dir ./data -output results.txt 8 100
  matdet -config matdet.yaml -schedule "@every 5m" -metrics-addr :9090
`)
	}
	return fs, f
}

// loadConfig layers defaults, config file, dotenv, environment, flags and
// positional arguments.
func loadConfig(fs *flag.FlagSet, f *flags) (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		if err := cfg.LoadFile(f.configFile); err != nil {
			return cfg, err
		}
	}
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "output":
			cfg.Output = f.output
		case "input-dir":
			cfg.InputDir = f.inputDir
		case "input-pattern":
			cfg.InputPattern = f.inputPattern
		case "metrics-addr":
			cfg.MetricsAddr = f.metricsAddr
		case "redis-addr":
			cfg.RedisAddr = f.redisAddr
		case "redis-key":
			cfg.RedisKey = f.redisKey
		case "schedule":
			cfg.Schedule = f.schedule
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "log-format":
			cfg.LogFormat = f.logFormat
		}
	})

	switch fs.NArg() {
	case 0:
	case 2:
		n, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return cfg, fmt.Errorf("invalid worker count %q: %w", fs.Arg(0), err)
		}
		m, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return cfg, fmt.Errorf("invalid matrix count %q: %w", fs.Arg(1), err)
		}
		cfg.Workers, cfg.Matrices = n, m
	default:
		return cfg, errors.New("expected exactly two arguments: N M")
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	cfg, err := loadConfig(fs, f)
	if err != nil {
		fmt.Fprintf(stderr, "matdet: %v\n\n", err)
		fs.Usage()
		return exitError
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "matdet: %v\n", err)
		return exitError
	}

	if err := execute(ctx, cfg, logger); err != nil {
		var failed *inputsFailedError
		if errors.As(err, &failed) {
			logger.Warn(err.Error())
			return exitInputFailed
		}
		logger.WithError(err).Error("matdet failed")
		return exitError
	}
	return exitOK
}

type inputsFailedError struct {
	summary batch.Summary
}

func (e *inputsFailedError) Error() string {
	return fmt.Sprintf("%d of %d inputs failed", e.summary.Failed+e.summary.Rejected, e.summary.Submitted+e.summary.Rejected)
}

func execute(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	runnerConfig := batch.Config{
		Workers:      cfg.Workers,
		Matrices:     cfg.Matrices,
		InputDir:     cfg.InputDir,
		InputPattern: cfg.InputPattern,
		Logger:       logger,
	}

	if cfg.MetricsAddr != "" {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		runnerConfig.Metrics = metrics.NewRegistry(promReg)

		shutdown := serveMetrics(cfg.MetricsAddr, promReg, logger)
		defer shutdown()
	}

	if cfg.Output != "" {
		sink, err := report.NewFileSink(cfg.Output)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logger.WithError(err).Warn("closing output failed")
			}
		}()
		runnerConfig.Sink = sink
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis %s unavailable: %w", cfg.RedisAddr, err)
		}

		runnerConfig.RunSink = func(runID string) (report.Sink, error) {
			redisConfig := report.DefaultRedisConfig()
			redisConfig.Redis = rdb
			redisConfig.Key = cfg.RedisKey
			redisConfig.RunID = runID
			return report.NewRedisSink(redisConfig)
		}
	}

	runner, err := batch.NewRunner(runnerConfig)
	if err != nil {
		return err
	}

	if cfg.Schedule != "" {
		sched, err := batch.NewScheduler(runner, cfg.Schedule, logger)
		if err != nil {
			return err
		}
		return sched.Start(ctx)
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Failed > 0 || summary.Rejected > 0 {
		return &inputsFailedError{summary: summary}
	}
	return nil
}

func serveMetrics(addr string, gatherer prometheus.Gatherer, logger logrus.FieldLogger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

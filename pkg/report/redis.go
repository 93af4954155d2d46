package report

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/matdet/pkg/common/errors"
	"github.com/vnykmshr/matdet/pkg/common/validation"
)

// RedisConfig configures a RedisSink.
type RedisConfig struct {
	// Redis client; the sink does not close it.
	Redis redis.UniversalClient

	// Key is the list key prefix. Lines go to "<Key>:<RunID>".
	Key string

	// RunID separates the output of different batch runs.
	RunID string

	// Timeout bounds each push (defaults to 500ms).
	Timeout time.Duration

	// KeyTTL expires the list after the last push. Zero keeps it forever.
	KeyTTL time.Duration
}

// DefaultRedisConfig returns the default Redis sink configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Key:     "matdet:results",
		Timeout: 500 * time.Millisecond,
		KeyTTL:  24 * time.Hour,
	}
}

// RedisSink pushes result lines onto a Redis list.
type RedisSink struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisSink validates config and returns a sink.
func NewRedisSink(config RedisConfig) (*RedisSink, error) {
	if err := validation.ValidateNotNil("report", "Redis", config.Redis); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("report", "Key", config.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("report", "RunID", config.RunID); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = 500 * time.Millisecond
	}

	return &RedisSink{
		client:  config.Redis,
		key:     config.Key + ":" + config.RunID,
		timeout: config.Timeout,
		ttl:     config.KeyTTL,
	}, nil
}

// Key returns the list key this sink pushes to.
func (s *RedisSink) Key() string {
	return s.key
}

// Record appends the entry's line with RPUSH and refreshes the TTL.
func (s *RedisSink) Record(ctx context.Context, entry Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, entry.Line())
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return gferrors.NewOperationError("report", "Record", err).WithContext(entry.Input)
	}
	return nil
}

// Close is a no-op; the client belongs to the caller.
func (s *RedisSink) Close() error {
	return nil
}

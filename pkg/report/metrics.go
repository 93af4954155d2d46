package report

import (
	"context"

	"github.com/vnykmshr/matdet/pkg/metrics"
)

// MetricsSink counts records, failures and bytes for a wrapped sink.
type MetricsSink struct {
	sink     Sink
	name     string
	registry *metrics.Registry
}

// Instrument wraps sink so every Record is counted under name.
func Instrument(sink Sink, name string, registry *metrics.Registry) *MetricsSink {
	return &MetricsSink{sink: sink, name: name, registry: registry}
}

// Record forwards to the wrapped sink.
func (m *MetricsSink) Record(ctx context.Context, entry Entry) error {
	err := m.sink.Record(ctx, entry)
	if err != nil {
		m.registry.SinkErrors.WithLabelValues(m.name).Inc()
		return err
	}

	m.registry.SinkRecords.WithLabelValues(m.name).Inc()
	m.registry.SinkBytesWritten.WithLabelValues(m.name).Add(float64(len(entry.Line())))
	return nil
}

// Close closes the wrapped sink.
func (m *MetricsSink) Close() error {
	return m.sink.Close()
}

package report

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"

	gferrors "github.com/vnykmshr/matdet/pkg/common/errors"
	"github.com/vnykmshr/matdet/pkg/common/validation"
)

// Entry is one computed result.
type Entry struct {
	Input       string
	Determinant float64
}

// Line renders the entry as FormatLine does.
func (e Entry) Line() string {
	return FormatLine(e.Input, e.Determinant)
}

// FormatLine renders "<input>: <det>\n" with six significant digits.
func FormatLine(input string, det float64) string {
	return input + ": " + strconv.FormatFloat(det, 'g', 6, 64) + "\n"
}

// Sink receives results. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
	Close() error
}

// WriterSink writes each entry as a single Write call on w.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewWriterSink returns a sink over w. Closing the sink does not close w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Record writes the entry's line.
func (s *WriterSink) Record(_ context.Context, entry Entry) error {
	line := entry.Line()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gferrors.ErrClosed
	}
	if _, err := io.WriteString(s.w, line); err != nil {
		return gferrors.NewOperationError("report", "Record", err).WithContext(entry.Input)
	}
	return nil
}

// Close marks the sink closed. Later Records fail with ErrClosed.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// FileSink appends entries to a file.
type FileSink struct {
	*WriterSink
	file *os.File
}

// NewFileSink opens path for appending, creating it with 0644 if missing.
func NewFileSink(path string) (*FileSink, error) {
	if err := validation.ValidateNotEmpty("report", "path", path); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, gferrors.NewOperationError("report", "Open", err).WithContext(path)
	}

	return &FileSink{WriterSink: NewWriterSink(f), file: f}, nil
}

// Path returns the file name.
func (s *FileSink) Path() string {
	return s.file.Name()
}

// Close stops accepting entries and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// MultiSink records every entry to each of its sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a sink fanning out to sinks, skipping nils.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Record writes to every sink, even after one fails.
func (m *MultiSink) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of fan-out targets.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

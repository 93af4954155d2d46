package testutil

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// MockWriter is an io.Writer for sink tests. It records every write and can be
// told to fail on a given call or on all calls.
type MockWriter struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	writeCount int
	errorOnNth int
	err        error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements io.Writer.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.err != nil {
		return 0, mw.err
	}
	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, errors.New("simulated error")
	}

	return mw.buf.Write(p)
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// Lines returns the buffered contents split into lines, without the trailing
// empty element.
func (mw *MockWriter) Lines() []string {
	s := strings.TrimSuffix(mw.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetErrorOnNth configures the writer to error on the nth write.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.err = err
}

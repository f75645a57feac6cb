package interfaces

import (
	"fmt"
	"sync"
)

// TestLogger is a Logger for tests. It records every message so tests can
// assert on logging, and only prints when verbose. Scans log warnings for
// every dead URL, which would otherwise drown test output.
type TestLogger struct {
	verbose bool

	mu       sync.Mutex
	messages []string
}

// NewTestLogger creates a new test logger.
func NewTestLogger(verbose bool) *TestLogger {
	return &TestLogger{verbose: verbose}
}

func (tl *TestLogger) record(level, msg string, fields []Field) {
	tl.mu.Lock()
	tl.messages = append(tl.messages, level+" "+msg)
	tl.mu.Unlock()
	if tl.verbose {
		fmt.Printf("[%s] %s %v\n", level, msg, fields)
	}
}

// Messages returns a copy of everything logged so far, as "LEVEL msg" lines.
func (tl *TestLogger) Messages() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	out := make([]string, len(tl.messages))
	copy(out, tl.messages)
	return out
}

func (tl *TestLogger) Debug(msg string, fields ...Field) {
	tl.record("DEBUG", msg, fields)
}

func (tl *TestLogger) Info(msg string, fields ...Field) {
	tl.record("INFO", msg, fields)
}

func (tl *TestLogger) Warn(msg string, fields ...Field) {
	tl.record("WARN", msg, fields)
}

func (tl *TestLogger) Error(msg string, fields ...Field) {
	tl.record("ERROR", msg, fields)
}

func (tl *TestLogger) With(fields ...Field) Logger {
	return tl
}

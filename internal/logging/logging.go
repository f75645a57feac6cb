package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/avelter/qrscan/internal/interfaces"
)

// Re-exported so call sites can write logging.Field without importing
// interfaces as well.
type (
	Logger = interfaces.Logger
	Field  = interfaces.Field
)

// F builds a Field.
func F(key string, value any) Field {
	return interfaces.F(key, value)
}

// JSONLogger prints one JSON object per log line. It writes to stderr so the
// one-shot scan command can print its report on stdout without log lines
// interleaved into the JSON.
type JSONLogger struct {
	component string
	fields    []interfaces.Field

	mu  *sync.Mutex
	out io.Writer
}

// NewJSONLogger creates a JSONLogger writing to stderr. component is optional
// and appears on every line; With() can override it.
func NewJSONLogger(component string) *JSONLogger {
	return &JSONLogger{component: component, mu: &sync.Mutex{}, out: os.Stderr}
}

// NewJSONLoggerTo is NewJSONLogger with an explicit destination.
func NewJSONLoggerTo(component string, out io.Writer) *JSONLogger {
	return &JSONLogger{component: component, mu: &sync.Mutex{}, out: out}
}

func (l *JSONLogger) log(level string, msg string, fields ...interfaces.Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any)
	for _, f := range l.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: l.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.out, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(l.out, string(enc))
}

func (l *JSONLogger) Debug(msg string, fields ...interfaces.Field) {
	l.log("debug", msg, fields...)
}

func (l *JSONLogger) Info(msg string, fields ...interfaces.Field) {
	l.log("info", msg, fields...)
}

func (l *JSONLogger) Warn(msg string, fields ...interfaces.Field) {
	l.log("warn", msg, fields...)
}

func (l *JSONLogger) Error(msg string, fields ...interfaces.Field) {
	l.log("error", msg, fields...)
}

// With returns a child logger carrying the given fields on every line. A
// "component" field overrides the component name instead.
func (l *JSONLogger) With(fields ...interfaces.Field) interfaces.Logger {
	child := &JSONLogger{component: l.component, mu: l.mu, out: l.out}
	child.fields = append(child.fields, l.fields...)
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}

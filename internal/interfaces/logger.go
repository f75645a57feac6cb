package interfaces

// Logger is a deliberately small, framework-agnostic logging interface.
// Pipeline packages depend on this rather than a concrete logger so the
// one-shot CLI, the service and tests can each supply their own.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field. Saves a composite literal at busy call sites.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

package kinesource

// Logger sends reader info and errors to a logging endpoint. The interface
// is satisfied by wrappers around STDOUT, slog, or any distributed log
// collecting platform.
type Logger interface {
	Log(args ...interface{})
}

// noopLogger implements the logging interface with discard
type noopLogger struct{}

func (n noopLogger) Log(...interface{}) {}

package qrcache

// Fields carries structured context for one log line.
type Fields map[string]any

// Logger is what the memo, the service and the HTTP server log through.
// Adapters for slog, zap and logrus live under log/.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything. It is used when no Logger is configured.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

package formstate

// LogEvent describes a noteworthy engine action, typically a degradation the
// public API absorbs: a store read treated as absence, a failed write, a
// swallowed submit-handler failure.
type LogEvent struct {
	Form string
	Op   string
	Key  string
	Path string
	Err  error
}

// Logger records engine events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

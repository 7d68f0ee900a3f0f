package log

// Logger receives radio log events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records an event. Implementations must be thread-safe.
	// The event should be processed quickly; blocking stalls the caller.
	Log(event Event)
}

// NoopLogger discards all events.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Or returns l, or NoopLogger when l is nil.
func Or(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Tee returns a Logger that hands every event to each of loggers in
// order. Nil and NoopLogger entries are dropped; with none left Tee
// returns NoopLogger and with one left it returns that logger itself.
func Tee(loggers ...Logger) Logger {
	var live tee
	for _, l := range loggers {
		switch l.(type) {
		case nil, NoopLogger:
			continue
		}
		live = append(live, l)
	}
	switch len(live) {
	case 0:
		return NoopLogger{}
	case 1:
		return live[0]
	default:
		return live
	}
}

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = tee(nil)
)

package log

import (
	"os"
	"sync"
)

// FileLogger appends radio events to a CBOR event file. Events that fail
// Validate are counted and skipped so the file only holds records the
// edgelight-log tool can read back.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	mu       sync.Mutex
	file     *os.File
	closed   bool
	written  int
	rejected int
}

// NewFileLogger opens path for appending, creating it with mode 0644.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f}, nil
}

// Log writes one event. Logging never fails the caller.
func (l *FileLogger) Log(event Event) {
	data, err := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if err != nil {
		l.rejected++
		return
	}
	if _, err := l.file.Write(data); err != nil {
		l.rejected++
		return
	}
	l.written++
}

// Counts returns how many events were written and how many were skipped.
func (l *FileLogger) Counts() (written, rejected int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.rejected
}

// Close closes the file. Later calls to Log are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)

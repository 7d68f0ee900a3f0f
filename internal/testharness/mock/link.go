package mock

import (
	"sync"

	"github.com/edgelight/edgelight-go/pkg/radio"
)

// Link is a fake radio.Link.
type Link struct {
	radio  *Radio
	addr   string
	events radio.LinkEvents
	auto   bool

	mu          sync.Mutex
	up          bool
	closed      bool
	disconnects int
	forgets     int
	discoveries int
	writes      [][]byte
	writeErr    error
	discoverErr error
	forgetErr   error
}

// Address implements radio.Link.
func (l *Link) Address() string {
	return l.addr
}

// DiscoverServices implements radio.Link.
func (l *Link) DiscoverServices() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return radio.ErrLinkClosed
	}
	if l.discoverErr != nil {
		err := l.discoverErr
		l.mu.Unlock()
		return err
	}
	l.discoveries++
	auto := l.auto
	l.mu.Unlock()

	if auto {
		l.ServicesDiscovered(radio.StatusSuccess)
	}
	return nil
}

// Write implements radio.Link.
func (l *Link) Write(data []byte) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return radio.ErrLinkClosed
	}
	if !l.up {
		l.mu.Unlock()
		return radio.ErrNotConnected
	}
	if l.writeErr != nil {
		err := l.writeErr
		l.mu.Unlock()
		return err
	}
	l.writes = append(l.writes, append([]byte(nil), data...))
	l.mu.Unlock()

	l.radio.written(l.addr, data)
	return nil
}

// Disconnect implements radio.Link.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.up = false
	l.disconnects++
	return nil
}

// Close implements radio.Link.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.up = false
	l.closed = true
	return nil
}

// ForceForget implements radio.Link.
func (l *Link) ForceForget() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forgets++
	return l.forgetErr
}

// SetWriteError makes Write fail with err. Pass nil to clear.
func (l *Link) SetWriteError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeErr = err
}

// SetDiscoverError makes DiscoverServices fail with err.
func (l *Link) SetDiscoverError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.discoverErr = err
}

// SetForgetError makes ForceForget fail with err.
func (l *Link) SetForgetError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forgetErr = err
}

// Connected reports the link layer as up.
func (l *Link) Connected() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.up = true
	l.mu.Unlock()
	l.stateChange(radio.StatusSuccess, radio.LinkConnected)
}

// Drop reports an unexpected disconnect with a success status.
func (l *Link) Drop() {
	l.mu.Lock()
	l.up = false
	closed := l.closed
	l.mu.Unlock()
	if !closed {
		l.stateChange(radio.StatusSuccess, radio.LinkDisconnected)
	}
}

// Fail reports a failed link with the given GATT status.
func (l *Link) Fail(status int) {
	l.mu.Lock()
	l.up = false
	closed := l.closed
	l.mu.Unlock()
	if !closed {
		l.stateChange(status, radio.LinkDisconnected)
	}
}

// ServicesDiscovered reports the outcome of service discovery.
func (l *Link) ServicesDiscovered(status int) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if !closed && l.events.OnServicesDiscovered != nil {
		l.events.OnServicesDiscovered(status)
	}
}

// Emit delivers a raw state callback even on a closed link, the way a
// late platform callback would.
func (l *Link) Emit(status int, state radio.LinkState) {
	l.stateChange(status, state)
}

func (l *Link) stateChange(status int, state radio.LinkState) {
	if l.events.OnStateChange != nil {
		l.events.OnStateChange(status, state)
	}
}

// Writes returns a copy of every successful write.
func (l *Link) Writes() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.writes))
	copy(out, l.writes)
	return out
}

// WriteStrings returns every successful write as a string.
func (l *Link) WriteStrings() []string {
	ws := l.Writes()
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = string(w)
	}
	return out
}

// Closed reports whether Close was called.
func (l *Link) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Up reports whether the link layer is up.
func (l *Link) Up() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.up
}

// ForgetCount returns how many times ForceForget was called.
func (l *Link) ForgetCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forgets
}

// DiscoverCount returns how many times DiscoverServices was called.
func (l *Link) DiscoverCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.discoveries
}

// DisconnectCount returns how many times Disconnect was called.
func (l *Link) DisconnectCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnects
}

var _ radio.Link = (*Link)(nil)

// Package mock provides a scriptable in-memory radio for testing.
//
// The fake records every request made against it and lets tests drive the
// callbacks a real adapter would deliver: advertisements, link state
// changes and service discovery results. With AutoConnect set, links come
// up on their own, which is what a simulated run wants.
package mock

import (
	"strings"
	"sync"

	"github.com/edgelight/edgelight-go/pkg/radio"
)

// Radio is a fake radio.Radio.
type Radio struct {
	// AutoConnect makes Connect report the link as connected and
	// DiscoverServices report success immediately.
	AutoConnect bool

	// OnWrite, if set, is called for every successful link write.
	OnWrite func(address string, data []byte)

	mu          sync.Mutex
	unavailable error
	paired      []string
	scanErr     error
	connectErr  map[string]error
	scanning    bool
	onResult    func(string)
	scans       int
	stops       int
	links       map[string][]*Link
}

// NewRadio creates a fake radio with no paired devices.
func NewRadio() *Radio {
	return &Radio{
		connectErr: make(map[string]error),
		links:      make(map[string][]*Link),
	}
}

// SetUnavailable makes Available return err.
func (r *Radio) SetUnavailable(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = err
}

// SetPaired sets the bonded device list.
func (r *Radio) SetPaired(addrs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paired = append([]string(nil), addrs...)
}

// SetScanError makes StartScan fail with err. Pass nil to clear.
func (r *Radio) SetScanError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanErr = err
}

// SetConnectError makes Connect to addr fail with err. Pass nil to clear.
func (r *Radio) SetConnectError(addr string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.connectErr, key(addr))
		return
	}
	r.connectErr[key(addr)] = err
}

// Available implements radio.Radio.
func (r *Radio) Available() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unavailable
}

// Paired implements radio.Radio.
func (r *Radio) Paired() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paired...), nil
}

// StartScan implements radio.Radio.
func (r *Radio) StartScan(onResult func(string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanErr != nil {
		return r.scanErr
	}
	r.scanning = true
	r.onResult = onResult
	r.scans++
	return nil
}

// StopScan implements radio.Radio.
func (r *Radio) StopScan() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanning {
		r.stops++
	}
	r.scanning = false
	r.onResult = nil
	return nil
}

// Advertise delivers a scan result for addr. It is ignored when no scan
// is running.
func (r *Radio) Advertise(addr string) bool {
	r.mu.Lock()
	fn := r.onResult
	r.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(addr)
	return true
}

// Scanning reports whether a scan is running.
func (r *Radio) Scanning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanning
}

// ScanCount returns how many scans were started.
func (r *Radio) ScanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

// StopCount returns how many running scans were stopped.
func (r *Radio) StopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Connect implements radio.Radio.
func (r *Radio) Connect(addr string, events radio.LinkEvents) (radio.Link, error) {
	r.mu.Lock()
	if err := r.connectErr[key(addr)]; err != nil {
		r.mu.Unlock()
		return nil, err
	}
	l := &Link{
		radio:  r,
		addr:   addr,
		events: events,
		auto:   r.AutoConnect,
	}
	r.links[key(addr)] = append(r.links[key(addr)], l)
	r.mu.Unlock()

	if l.auto {
		l.Connected()
	}
	return l, nil
}

// Link returns the most recent link opened to addr, or nil.
func (r *Radio) Link(addr string) *Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls := r.links[key(addr)]
	if len(ls) == 0 {
		return nil
	}
	return ls[len(ls)-1]
}

// ConnectCount returns how many links were opened to addr.
func (r *Radio) ConnectCount(addr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links[key(addr)])
}

// Links returns every link opened to addr, oldest first.
func (r *Radio) Links(addr string) []*Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Link(nil), r.links[key(addr)]...)
}

func (r *Radio) written(addr string, data []byte) {
	r.mu.Lock()
	fn := r.OnWrite
	r.mu.Unlock()
	if fn != nil {
		fn(addr, data)
	}
}

func key(addr string) string {
	return strings.ToUpper(addr)
}

var _ radio.Radio = (*Radio)(nil)

package zone

import (
	"fmt"
	"sync"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
)

// Status is the link status of one zone's fixture.
type Status struct {
	Zone      Zone
	Address   string
	Connected bool

	// LastSeen is when the fixture last connected or dropped.
	LastSeen time.Time

	// Connects counts successful connections.
	Connects int
}

// Manager binds a layout to fixture addresses and tracks link status.
type Manager struct {
	mu sync.RWMutex

	layout *Layout
	clock  clock.Clock
	zones  []*Status

	onConnect    func(index int, address string)
	onDisconnect func(index int, address string)
}

// NewManager binds addresses to the layout's zones by index.
func NewManager(layout *Layout, addresses []string, clk clock.Clock) (*Manager, error) {
	if layout.Count() != len(addresses) {
		return nil, fmt.Errorf("%w: %d zones, %d addresses", ErrCountMismatch, layout.Count(), len(addresses))
	}
	if clk == nil {
		clk = clock.Real()
	}

	m := &Manager{layout: layout, clock: clk}
	for i, z := range layout.Zones {
		m.zones = append(m.zones, &Status{Zone: z, Address: NormalizeAddress(addresses[i])})
	}
	return m, nil
}

// Layout returns the bound layout.
func (m *Manager) Layout() *Layout {
	return m.layout
}

// Addresses returns the normalized address of every zone, by index.
func (m *Manager) Addresses() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.zones))
	for i, z := range m.zones {
		out[i] = z.Address
	}
	return out
}

// Get returns a copy of one zone's status.
func (m *Manager) Get(index int) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.zones) {
		return Status{}, ErrZoneNotFound
	}
	return *m.zones[index], nil
}

// All returns a copy of every zone's status.
func (m *Manager) All() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, len(m.zones))
	for i, z := range m.zones {
		out[i] = *z
	}
	return out
}

// ConnectedCount returns the number of connected zones.
func (m *Manager) ConnectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, z := range m.zones {
		if z.Connected {
			n++
		}
	}
	return n
}

// SetConnected records that a zone's fixture connected.
func (m *Manager) SetConnected(index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.zones) {
		m.mu.Unlock()
		return ErrZoneNotFound
	}
	z := m.zones[index]
	z.Connected = true
	z.Connects++
	z.LastSeen = m.clock.Now()
	addr := z.Address
	cb := m.onConnect
	m.mu.Unlock()

	if cb != nil {
		cb(index, addr)
	}
	return nil
}

// SetDisconnected records that a zone's fixture dropped.
func (m *Manager) SetDisconnected(index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.zones) {
		m.mu.Unlock()
		return ErrZoneNotFound
	}
	z := m.zones[index]
	if !z.Connected {
		m.mu.Unlock()
		return nil
	}
	z.Connected = false
	z.LastSeen = m.clock.Now()
	addr := z.Address
	cb := m.onDisconnect
	m.mu.Unlock()

	if cb != nil {
		cb(index, addr)
	}
	return nil
}

// OnConnect sets the callback for zone connections.
func (m *Manager) OnConnect(fn func(index int, address string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = fn
}

// OnDisconnect sets the callback for zone disconnections.
func (m *Manager) OnDisconnect(fn func(index int, address string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = fn
}

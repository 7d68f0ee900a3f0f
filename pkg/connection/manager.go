package connection

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/radio"
	"github.com/edgelight/edgelight-go/pkg/schedule"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

// Manager errors.
var (
	ErrClosed          = errors.New("connection manager closed")
	ErrAlreadyStarted  = errors.New("connection manager already started")
	ErrInvalidEndpoint = errors.New("invalid endpoint index")
)

// endpoint is one fixture. Fields other than state, connectingSince,
// session and link are only touched on the coordination goroutine.
// Those four are also written under Manager.mu for readers.
type endpoint struct {
	index           int
	address         string
	state           State
	connectingSince time.Time
	session         string
	link            radio.Link

	// gen invalidates callbacks from links that were force-closed.
	gen uint64
}

// Manager discovers, connects and supervises the fixture links.
type Manager struct {
	cfg    Config
	radio  radio.Radio
	clock  clock.Clock
	sched  *schedule.Manager
	loop   *loop
	logger *slog.Logger
	elog   log.Logger

	closed atomic.Bool

	mu          sync.RWMutex
	endpoints   []*endpoint
	unsupported bool

	// Coordination goroutine only.
	byAddress map[string]int
	scanning  bool
	rounds    int

	cbMu           sync.RWMutex
	onConnected    func(index int)
	onDisconnected func(index int)
	onStateChange  func(index int, oldState, newState State)
}

// NewManager creates a manager for the configured addresses. Call Start
// to begin discovery.
func NewManager(r radio.Radio, cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	m := &Manager{
		cfg:       cfg,
		radio:     r,
		clock:     cfg.Clock,
		sched:     schedule.NewManager(cfg.Clock),
		loop:      newLoop(),
		logger:    cfg.Logger,
		elog:      log.Or(cfg.EventLog),
		byAddress: make(map[string]int, len(cfg.Addresses)),
	}
	for i, a := range cfg.Addresses {
		addr := zone.NormalizeAddress(a)
		m.endpoints = append(m.endpoints, &endpoint{index: i, address: addr})
		m.byAddress[addr] = i
	}
	return m, nil
}

// OnConnected sets the callback for an endpoint becoming usable.
func (m *Manager) OnConnected(fn func(index int)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets the callback for a connected endpoint being lost.
func (m *Manager) OnDisconnected(fn func(index int)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onDisconnected = fn
}

// OnStateChange sets the callback for every endpoint state transition.
func (m *Manager) OnStateChange(fn func(index int, oldState, newState State)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onStateChange = fn
}

// Start checks the radio and begins discovery. If the radio is
// unavailable the manager marks itself unsupported and returns an error
// wrapping radio.ErrUnavailable.
func (m *Manager) Start() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if err := m.radio.Available(); err != nil {
		m.mu.Lock()
		m.unsupported = true
		m.mu.Unlock()
		if !errors.Is(err, radio.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", radio.ErrUnavailable, err)
		}
		if m.logger != nil {
			m.logger.Warn("radio unavailable, lights disabled", "error", err)
		}
		m.logManager("UNSUPPORTED", err.Error())
		return err
	}
	if !m.loop.start() {
		return ErrAlreadyStarted
	}

	m.post(func() {
		m.logManager("STARTED", "")
		m.startDiscovery()
		m.armWatchdog()
	})
	return nil
}

// Close stops all activity. It cancels every scheduled task, stops the
// scan and force-closes every link. Close is idempotent.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.sched.CancelAll(true)

	done := make(chan struct{})
	teardown := func() {
		defer close(done)
		m.teardown()
	}
	if !m.loop.isRunning() || !m.loop.enqueue(teardown) {
		teardown()
	}
	<-done
	m.loop.stop()
	return nil
}

// Reset releases every link, forgets the discovered set and restarts
// discovery.
func (m *Manager) Reset() {
	m.post(func() {
		m.sched.CancelAll(false)
		m.stopScan()
		for _, ep := range m.endpoints {
			m.forceClose(ep)
			m.setState(ep, StateAbsent, "reset")
		}
		m.rounds = 0
		m.logManager("RESET", "")
		m.startDiscovery()
		m.armWatchdog()
	})
}

// Send writes data to endpoint index. The write runs on the coordination
// goroutine; Send blocks until it completes. Sends to an endpoint that is
// not connected fail with radio.ErrNotConnected.
func (m *Manager) Send(index int, data []byte) error {
	if index < 0 || index >= len(m.endpoints) {
		return fmt.Errorf("%w: %d", ErrInvalidEndpoint, index)
	}
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.loop.isRunning() {
		return fmt.Errorf("endpoint %d: %w", index, radio.ErrNotConnected)
	}

	result := make(chan error, 1)
	ok := m.loop.enqueue(func() {
		if m.closed.Load() {
			result <- ErrClosed
			return
		}
		result <- m.write(index, data)
	})
	if !ok {
		return ErrClosed
	}
	return <-result
}

// Flush blocks until every queued closure has run, including closures
// queued while flushing. Used by tests to settle the manager after
// advancing a fake clock.
func (m *Manager) Flush() {
	m.loop.flush()
}

// IsSupported reports whether the radio was available at Start.
func (m *Manager) IsSupported() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.unsupported
}

// IsConnected reports whether endpoint index is connected.
func (m *Manager) IsConnected(index int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.endpoints) {
		return false
	}
	return m.endpoints[index].state == StateConnected
}

// ConnectedCount returns the number of connected endpoints.
func (m *Manager) ConnectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ep := range m.endpoints {
		if ep.state == StateConnected {
			n++
		}
	}
	return n
}

// EndpointCount returns the number of configured endpoints.
func (m *Manager) EndpointCount() int {
	return len(m.endpoints)
}

// Snapshot returns the status of every endpoint.
func (m *Manager) Snapshot() []EndpointStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]EndpointStatus, len(m.endpoints))
	for i, ep := range m.endpoints {
		out[i] = EndpointStatus{
			Index:           ep.index,
			Address:         ep.address,
			State:           ep.state,
			ConnectingSince: ep.connectingSince,
			SessionID:       ep.session,
		}
	}
	return out
}

// Scheduler exposes the task scheduler for inspection.
func (m *Manager) Scheduler() *schedule.Manager {
	return m.sched
}

// post queues fn on the coordination goroutine. It is dropped once the
// manager is closed, including when it was queued before Close.
func (m *Manager) post(fn func()) {
	if m.closed.Load() {
		return
	}
	m.loop.enqueue(func() {
		if m.closed.Load() {
			return
		}
		fn()
	})
}

// after schedules fn on the coordination goroutine.
func (m *Manager) after(index int, purpose schedule.Purpose, d time.Duration, fn func()) {
	err := m.sched.Schedule(index, purpose, d, func() { m.post(fn) })
	if err != nil && !errors.Is(err, schedule.ErrSchedulerClosed) {
		m.debugLog("schedule failed", "purpose", purpose, "endpoint", index, "error", err)
	}
}

func (m *Manager) teardown() {
	m.stopScan()
	for _, ep := range m.endpoints {
		m.forceClose(ep)
		if ep.state == StateConnecting || ep.state == StateConnected {
			m.setState(ep, StateDisconnected, "closed")
		}
	}
	m.logManager("CLOSED", "")
}

// setState records a transition and notifies listeners.
func (m *Manager) setState(ep *endpoint, s State, reason string) {
	old := ep.state
	if old == s {
		return
	}

	m.mu.Lock()
	ep.state = s
	if s == StateConnecting {
		ep.connectingSince = m.clock.Now()
	} else {
		ep.connectingSince = time.Time{}
	}
	m.mu.Unlock()

	m.debugLog("endpoint state", "endpoint", ep.index, "address", ep.address,
		"from", old, "to", s, "reason", reason)
	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		SessionID: ep.session,
		Direction: log.DirectionIn,
		Layer:     log.LayerLink,
		Category:  log.CategoryState,
		Endpoint:  ep.index,
		Address:   ep.address,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityEndpoint,
			OldState: old.String(),
			NewState: s.String(),
			Reason:   reason,
		},
	})

	m.cbMu.RLock()
	cb := m.onStateChange
	m.cbMu.RUnlock()
	if cb != nil {
		cb(ep.index, old, s)
	}
}

func (m *Manager) emitConnected(index int) {
	m.cbMu.RLock()
	cb := m.onConnected
	m.cbMu.RUnlock()
	if cb != nil {
		cb(index)
	}
}

func (m *Manager) emitDisconnected(index int) {
	m.cbMu.RLock()
	cb := m.onDisconnected
	m.cbMu.RUnlock()
	if cb != nil {
		cb(index)
	}
}

// debugLog logs a debug message if logging is enabled.
func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Manager) logManager(state, reason string) {
	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		Layer:     log.LayerRadio,
		Category:  log.CategoryState,
		Endpoint:  log.NoEndpoint,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityManager,
			NewState: state,
			Reason:   reason,
		},
	})
}

func (m *Manager) logError(ep *endpoint, context string, err error) {
	if m.logger != nil {
		m.logger.Warn("link error", "endpoint", ep.index, "address", ep.address,
			"context", context, "error", err)
	}
	data := &log.ErrorEventData{
		Layer:   log.LayerLink,
		Message: err.Error(),
		Context: context,
	}
	if code, ok := radio.StatusCode(err); ok {
		data.Code = &code
	}
	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		SessionID: ep.session,
		Direction: log.DirectionIn,
		Layer:     log.LayerLink,
		Category:  log.CategoryError,
		Endpoint:  ep.index,
		Address:   ep.address,
		Error:     data,
	})
}

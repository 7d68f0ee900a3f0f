package connection

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/radio"
	"github.com/edgelight/edgelight-go/pkg/schedule"
	"github.com/edgelight/edgelight-go/pkg/wire"
)

// connectPending connects every discovered endpoint that is not
// connected or connecting.
func (m *Manager) connectPending() {
	for _, ep := range m.endpoints {
		m.connect(ep)
	}
}

// connect opens a new link to ep if it is idle.
func (m *Manager) connect(ep *endpoint) {
	if ep.state != StateDiscovered && ep.state != StateDisconnected {
		return
	}
	m.forceClose(ep)

	ep.gen++
	gen, idx := ep.gen, ep.index
	events := radio.LinkEvents{
		OnStateChange: func(status int, s radio.LinkState) {
			m.post(func() { m.linkStateChanged(idx, gen, status, s) })
		},
		OnServicesDiscovered: func(status int) {
			m.post(func() { m.servicesDiscovered(idx, gen, status) })
		},
	}

	m.mu.Lock()
	ep.session = uuid.NewString()
	m.mu.Unlock()
	m.setState(ep, StateConnecting, "connect")

	link, err := m.radio.Connect(ep.address, events)
	if err != nil {
		m.logError(ep, "connect", err)
		m.setState(ep, StateDisconnected, "connect failed")
		m.scheduleReconnect(ep, m.cfg.ReconnectDelay)
		return
	}
	m.mu.Lock()
	ep.link = link
	m.mu.Unlock()
}

func (m *Manager) linkStateChanged(idx int, gen uint64, status int, s radio.LinkState) {
	ep := m.endpoints[idx]
	if ep.gen != gen || ep.link == nil {
		m.debugLog("stale link callback", "endpoint", idx, "state", s, "status", status)
		return
	}
	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		SessionID: ep.session,
		Direction: log.DirectionIn,
		Layer:     log.LayerLink,
		Category:  log.CategoryState,
		Endpoint:  ep.index,
		Address:   ep.address,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityLink,
			NewState: s.String(),
			Reason:   fmt.Sprintf("status 0x%02x", status),
		},
	})

	if status != radio.StatusSuccess {
		m.protocolError(ep, &radio.StatusError{Op: "connection state", Code: status})
		return
	}

	switch s {
	case radio.LinkConnected:
		if err := ep.link.DiscoverServices(); err != nil {
			m.protocolError(ep, fmt.Errorf("discover services: %w", err))
		}
	case radio.LinkDisconnected:
		m.linkLost(ep)
	}
}

func (m *Manager) servicesDiscovered(idx int, gen uint64, status int) {
	ep := m.endpoints[idx]
	if ep.gen != gen || ep.link == nil {
		m.debugLog("stale services callback", "endpoint", idx, "status", status)
		return
	}
	if status != radio.StatusSuccess {
		m.protocolError(ep, &radio.StatusError{Op: "service discovery", Code: status})
		return
	}
	if ep.state == StateConnected {
		return
	}

	m.setState(ep, StateConnected, "services discovered")
	if m.logger != nil {
		m.logger.Info("fixture connected", "endpoint", idx, "address", ep.address,
			"connected", m.ConnectedCount(), "expected", len(m.endpoints))
	}
	m.emitConnected(idx)

	m.after(schedule.Global, schedule.PurposeReconnect, m.cfg.ReconnectDelay, m.connectPending)
	m.armWatchdog()
}

// linkLost handles an unexpected disconnect.
func (m *Manager) linkLost(ep *endpoint) {
	wasConnected := ep.state == StateConnected
	m.forceClose(ep)
	m.setState(ep, StateDisconnected, "link lost")
	if wasConnected {
		if m.logger != nil {
			m.logger.Info("fixture disconnected", "endpoint", ep.index, "address", ep.address)
		}
		m.emitDisconnected(ep.index)
	}
	m.scheduleReconnect(ep, m.cfg.ReconnectDelay)
}

// protocolError handles a GATT-level failure. The retry waits longer than
// for a plain disconnect.
func (m *Manager) protocolError(ep *endpoint, err error) {
	m.logError(ep, "protocol", err)
	wasConnected := ep.state == StateConnected
	m.forceClose(ep)
	m.setState(ep, StateDisconnected, "protocol error")
	if wasConnected {
		m.emitDisconnected(ep.index)
	}
	m.scheduleReconnect(ep, m.cfg.ProtocolErrorDelay)
}

func (m *Manager) scheduleReconnect(ep *endpoint, d time.Duration) {
	m.after(ep.index, schedule.PurposeReconnect, d, func() { m.connect(ep) })
}

// forceClose tears down ep's link and drops any cached GATT state.
// Callbacks still in flight from the old link are ignored afterwards.
func (m *Manager) forceClose(ep *endpoint) {
	if ep.link == nil {
		return
	}
	link := ep.link
	m.mu.Lock()
	ep.link = nil
	m.mu.Unlock()
	ep.gen++

	if err := link.Disconnect(); err != nil {
		m.debugLog("disconnect failed", "endpoint", ep.index, "error", err)
	}
	if err := link.ForceForget(); err != nil {
		m.debugLog("force forget failed", "endpoint", ep.index, "error", err)
	}
	if m.cfg.ForceCloseSettle > 0 {
		time.Sleep(m.cfg.ForceCloseSettle)
	}
	if err := link.Close(); err != nil {
		m.debugLog("close failed", "endpoint", ep.index, "error", err)
	}
}

func (m *Manager) armWatchdog() {
	m.after(schedule.Global, schedule.PurposeWatchdog, m.cfg.WatchdogInterval, m.watchdog)
}

// watchdog restarts incomplete discovery and recovers stuck endpoints.
func (m *Manager) watchdog() {
	if !m.allDiscovered() {
		m.debugLog("discovery incomplete", "found", m.discoveredCount(), "expected", len(m.endpoints))
		m.startDiscovery()
		if m.degraded() {
			m.debugLog("degraded mode, connecting partial set", "rounds", m.rounds)
			m.connectPending()
		}
	}

	now := m.clock.Now()
	for _, ep := range m.endpoints {
		if ep.state != StateConnecting || now.Sub(ep.connectingSince) <= m.cfg.ConnectTimeout {
			continue
		}
		m.logError(ep, "watchdog", fmt.Errorf("%w after %v", radio.ErrConnectTimeout, now.Sub(ep.connectingSince)))
		m.forceClose(ep)
		m.setState(ep, StateDisconnected, "connect timeout")
		m.scheduleReconnect(ep, m.cfg.ReconnectDelay)
	}

	m.armWatchdog()
}

// write sends one command on the coordination goroutine.
func (m *Manager) write(idx int, data []byte) error {
	ep := m.endpoints[idx]
	if ep.state != StateConnected || ep.link == nil {
		return fmt.Errorf("endpoint %d: %w", idx, radio.ErrNotConnected)
	}

	kind := wire.Kind(0)
	if cmd, err := wire.Decode(data); err == nil {
		kind = cmd.Kind
	}

	if err := ep.link.Write(data); err != nil {
		m.logError(ep, "write", err)
		if errors.Is(err, radio.ErrProtocol) {
			m.protocolError(ep, err)
		}
		return fmt.Errorf("endpoint %d: %w", idx, err)
	}

	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		SessionID: ep.session,
		Direction: log.DirectionOut,
		Layer:     log.LayerLink,
		Category:  log.CategoryCommand,
		Endpoint:  idx,
		Address:   ep.address,
		Command:   &log.CommandEvent{Kind: kind, Data: append([]byte(nil), data...)},
	})
	return nil
}

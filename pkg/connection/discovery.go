package connection

import (
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/schedule"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

// startDiscovery enumerates paired devices and scans for the rest.
func (m *Manager) startDiscovery() {
	m.rounds++

	paired, err := m.radio.Paired()
	if err != nil {
		m.debugLog("paired enumeration failed", "error", err)
	}
	for _, addr := range paired {
		m.discovered(addr, log.ScanPaired)
	}
	if m.allDiscovered() {
		m.discoveryComplete()
		return
	}
	m.startScan()
}

func (m *Manager) startScan() {
	if m.scanning {
		return
	}
	err := m.radio.StartScan(func(addr string) {
		m.post(func() { m.scanResult(addr) })
	})
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("scan failed", "error", err, "retry", m.cfg.ScanCooldown)
		}
		m.logScan(log.ScanStop, false)
		m.after(schedule.Global, schedule.PurposeScanRestart, m.cfg.ScanCooldown, m.startDiscovery)
		return
	}

	m.scanning = true
	m.debugLog("scan started", "found", m.discoveredCount(), "expected", len(m.endpoints))
	m.logScan(log.ScanStart, false)
	m.after(schedule.Global, schedule.PurposeScanStop, m.cfg.ScanTimeout, m.scanTimeout)
}

func (m *Manager) stopScan() {
	_ = m.sched.Cancel(schedule.Global, schedule.PurposeScanStop)
	if !m.scanning {
		return
	}
	if err := m.radio.StopScan(); err != nil {
		m.debugLog("stop scan failed", "error", err)
	}
	m.scanning = false
	m.logScan(log.ScanStop, false)
}

func (m *Manager) scanTimeout() {
	if !m.scanning {
		return
	}
	m.stopScan()
	if m.discoveredCount() == 0 {
		m.debugLog("scan found nothing", "retry", m.cfg.ScanCooldown)
		m.after(schedule.Global, schedule.PurposeScanRestart, m.cfg.ScanCooldown, m.startDiscovery)
	}
}

func (m *Manager) scanResult(addr string) {
	if !m.scanning {
		return
	}
	if m.discovered(addr, log.ScanResult) && m.allDiscovered() {
		m.discoveryComplete()
	}
}

// discovered moves an allow-listed endpoint out of ABSENT. It reports
// whether the endpoint was new.
func (m *Manager) discovered(addr string, action log.ScanAction) bool {
	idx, ok := m.byAddress[zone.NormalizeAddress(addr)]
	if !ok {
		m.logScanResult(addr, action, false)
		return false
	}
	ep := m.endpoints[idx]
	if ep.state.discovered() {
		return false
	}
	m.logScanResult(addr, action, true)
	m.setState(ep, StateDiscovered, action.String())
	return true
}

func (m *Manager) discoveryComplete() {
	m.debugLog("discovery complete", "endpoints", len(m.endpoints))
	m.stopScan()
	_ = m.sched.Cancel(schedule.Global, schedule.PurposeScanRestart)
	m.connectPending()
}

func (m *Manager) allDiscovered() bool {
	return m.discoveredCount() == len(m.endpoints)
}

func (m *Manager) discoveredCount() int {
	n := 0
	for _, ep := range m.endpoints {
		if ep.state.discovered() {
			n++
		}
	}
	return n
}

// degraded reports whether the watchdog may connect a partial set.
func (m *Manager) degraded() bool {
	return m.cfg.DegradedAfter > 0 && m.rounds >= m.cfg.DegradedAfter && m.discoveredCount() > 0
}

func (m *Manager) logScan(action log.ScanAction, allowed bool) {
	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerRadio,
		Category:  log.CategoryScan,
		Endpoint:  log.NoEndpoint,
		Scan:      &log.ScanEvent{Action: action, Allowed: allowed, Found: m.discoveredCount()},
	})
}

func (m *Manager) logScanResult(addr string, action log.ScanAction, allowed bool) {
	idx := log.NoEndpoint
	if i, ok := m.byAddress[zone.NormalizeAddress(addr)]; ok {
		idx = i
	}
	if !allowed {
		m.debugLog("ignoring device", "address", addr)
	}
	m.elog.Log(log.Event{
		Timestamp: m.clock.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerRadio,
		Category:  log.CategoryScan,
		Endpoint:  idx,
		Address:   addr,
		Scan:      &log.ScanEvent{Action: action, Allowed: allowed, Found: m.discoveredCount()},
	})
}

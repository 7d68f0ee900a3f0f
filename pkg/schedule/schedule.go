package schedule

import (
	"errors"
	"sync"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
)

// Schedule errors.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidDelay    = errors.New("invalid delay")
	ErrSchedulerClosed = errors.New("scheduler closed")
)

// Global is the endpoint index used for manager-wide tasks.
const Global = -1

// Purpose identifies why a task was scheduled.
type Purpose uint8

const (
	// PurposeScanStop ends an active scan.
	PurposeScanStop Purpose = iota + 1

	// PurposeScanRestart restarts discovery after a cooldown.
	PurposeScanRestart

	// PurposeReconnect retries a connection.
	PurposeReconnect

	// PurposeWatchdog runs the periodic health check.
	PurposeWatchdog

	// PurposeReplay re-sends the last applied command.
	PurposeReplay
)

// String returns a human-readable purpose name.
func (p Purpose) String() string {
	switch p {
	case PurposeScanStop:
		return "SCAN_STOP"
	case PurposeScanRestart:
		return "SCAN_RESTART"
	case PurposeReconnect:
		return "RECONNECT"
	case PurposeWatchdog:
		return "WATCHDOG"
	case PurposeReplay:
		return "REPLAY"
	default:
		return "UNKNOWN"
	}
}

// Key uniquely identifies a task.
type Key struct {
	Endpoint int
	Purpose  Purpose
}

// Task is a pending delayed call.
type Task struct {
	// Key identifies this task.
	Key Key

	// ScheduledAt is when the task was registered.
	ScheduledAt time.Time

	// Delay is how long after ScheduledAt the task fires.
	Delay time.Duration

	fn    func()
	timer clock.Timer
}

// FiresAt returns when the task is due.
func (t *Task) FiresAt() time.Time {
	return t.ScheduledAt.Add(t.Delay)
}

// Manager tracks pending tasks.
type Manager struct {
	mu     sync.Mutex
	clock  clock.Clock
	tasks  map[Key]*Task
	closed bool

	// fired counts callbacks delivered, by purpose.
	fired map[Purpose]int
}

// NewManager creates a task manager on the given clock.
func NewManager(clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.Real()
	}
	return &Manager{
		clock: clk,
		tasks: make(map[Key]*Task),
		fired: make(map[Purpose]int),
	}
}

// Schedule registers fn to run after delay, replacing any pending task with
// the same key. fn runs on the clock's timer goroutine.
func (m *Manager) Schedule(endpoint int, purpose Purpose, delay time.Duration, fn func()) error {
	if delay < 0 {
		return ErrInvalidDelay
	}
	key := Key{Endpoint: endpoint, Purpose: purpose}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSchedulerClosed
	}

	if existing, ok := m.tasks[key]; ok {
		existing.timer.Stop()
	}

	task := &Task{
		Key:         key,
		ScheduledAt: m.clock.Now(),
		Delay:       delay,
		fn:          fn,
	}
	m.tasks[key] = task
	task.timer = m.clock.AfterFunc(delay, func() {
		m.fire(task)
	})
	return nil
}

// Cancel stops a pending task without running it.
func (m *Manager) Cancel(endpoint int, purpose Purpose) error {
	key := Key{Endpoint: endpoint, Purpose: purpose}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[key]
	if !ok {
		return ErrTaskNotFound
	}
	task.timer.Stop()
	delete(m.tasks, key)
	return nil
}

// CancelEndpoint stops every pending task for one endpoint.
func (m *Manager) CancelEndpoint(endpoint int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, task := range m.tasks {
		if key.Endpoint == endpoint {
			task.timer.Stop()
			delete(m.tasks, key)
		}
	}
}

// CancelAll stops every pending task. When close is true the manager
// refuses further Schedule calls.
func (m *Manager) CancelAll(close bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, task := range m.tasks {
		task.timer.Stop()
		delete(m.tasks, key)
	}
	if close {
		m.closed = true
	}
}

// Pending reports whether a task is registered under the key.
func (m *Manager) Pending(endpoint int, purpose Purpose) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[Key{Endpoint: endpoint, Purpose: purpose}]
	return ok
}

// Get returns a copy of the pending task, or nil.
func (m *Manager) Get(endpoint int, purpose Purpose) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[Key{Endpoint: endpoint, Purpose: purpose}]
	if !ok {
		return nil
	}
	return &Task{
		Key:         task.Key,
		ScheduledAt: task.ScheduledAt,
		Delay:       task.Delay,
	}
}

// Count returns the number of pending tasks.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Fired returns how many tasks of the purpose have run.
func (m *Manager) Fired(purpose Purpose) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired[purpose]
}

// fire runs a task if it is still the one registered under its key.
func (m *Manager) fire(task *Task) {
	m.mu.Lock()
	current, ok := m.tasks[task.Key]
	if !ok || current != task {
		m.mu.Unlock()
		return
	}
	delete(m.tasks, task.Key)
	m.fired[task.Key.Purpose]++
	fn := task.fn
	m.mu.Unlock()

	// Call outside lock; fn commonly reschedules.
	if fn != nil {
		fn()
	}
}

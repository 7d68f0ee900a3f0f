package light

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/radio"
	"github.com/edgelight/edgelight-go/pkg/schedule"
	"github.com/edgelight/edgelight-go/pkg/wire"
)

// Defaults.
const (
	DefaultQueueSize   = 64
	DefaultReplayDelay = 1 * time.Second
)

// Controller errors.
var (
	ErrInvalidConfig = errors.New("invalid light config")
	ErrClosed        = errors.New("light controller closed")
)

// Sender delivers encoded commands to endpoints.
// connection.Manager implements it.
type Sender interface {
	Send(index int, data []byte) error
	IsConnected(index int) bool
	ConnectedCount() int
	EndpointCount() int
	IsSupported() bool
}

// Config configures a Controller.
type Config struct {
	// WhiteBalance is applied to every color command.
	WhiteBalance WhiteBalance

	// QueueSize bounds the send queue.
	QueueSize int

	// ReplayDelay is the wait between a reconnect and the replay.
	ReplayDelay time.Duration

	// TestMode sends every update, changed or not.
	TestMode bool

	// Clock drives replay timers. Defaults to the real clock.
	Clock clock.Clock

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLog receives dropped-command records. Nil disables it.
	EventLog log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WhiteBalance: DefaultWhiteBalance,
		QueueSize:    DefaultQueueSize,
		ReplayDelay:  DefaultReplayDelay,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	if c.ReplayDelay < 0 {
		return fmt.Errorf("%w: negative replay delay", ErrInvalidConfig)
	}
	return c.WhiteBalance.Validate()
}

// LastApplied is the state most recently requested for one endpoint.
type LastApplied struct {
	Color      color.RGB `json:"color"`
	Brightness int       `json:"brightness"`
	Off        bool      `json:"off"`
	Last       wire.Kind `json:"last"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Controller maps colors to commands for a fixed set of endpoints.
type Controller struct {
	cfg    Config
	sender Sender
	sched  *schedule.Manager
	queue  *sendQueue
	logger *slog.Logger
	elog   log.Logger
	clock  clock.Clock
	done   chan struct{}

	mu       sync.Mutex
	last     []LastApplied
	pipeline bool
	external bool
	started  bool
	closed   bool
}

// New creates a controller for the sender's endpoints.
func New(sender Sender, cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Controller{
		cfg:      cfg,
		sender:   sender,
		sched:    schedule.NewManager(cfg.Clock),
		queue:    newSendQueue(cfg.QueueSize),
		logger:   cfg.Logger,
		elog:     log.Or(cfg.EventLog),
		clock:    cfg.Clock,
		done:     make(chan struct{}),
		last:     make([]LastApplied, sender.EndpointCount()),
		pipeline: true,
	}, nil
}

// Start launches the send worker.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	go c.run()
}

// Close cancels pending replays, discards queued commands and stops the
// worker. It is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	c.sched.CancelAll(true)
	c.queue.close()
	if started {
		<-c.done
	}
	return nil
}

// Flush blocks until every queued command has been handled.
func (c *Controller) Flush() {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		c.queue.wait()
	}
}

// IsSupported reports whether the radio is usable.
func (c *Controller) IsSupported() bool {
	return c.sender.IsSupported()
}

// ConnectedCount returns the number of connected endpoints.
func (c *Controller) ConnectedCount() int {
	return c.sender.ConnectedCount()
}

// Dropped returns how many queued commands were evicted by newer ones.
func (c *Controller) Dropped() int {
	return c.queue.droppedCount()
}

// Pending returns the number of queued commands.
func (c *Controller) Pending() int {
	return c.queue.size()
}

// State returns the pipeline and external enable flags.
func (c *Controller) State() (pipeline, external bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline, c.external
}

// IsOff reports whether both enable flags are clear.
func (c *Controller) IsOff() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.pipeline && !c.external
}

// SetState sets the enable flags. The fixtures are switched only when the
// combined on/off state flips.
func (c *Controller) SetState(pipeline, external bool) {
	c.mu.Lock()
	wasOff := !c.pipeline && !c.external
	c.pipeline, c.external = pipeline, external
	off := !pipeline && !external
	c.mu.Unlock()

	c.debugLog("enable flags", "pipeline", pipeline, "external", external, "off", off)
	if off != wasOff {
		c.SetOnOff(off)
	}
}

// Update applies one color per zone. A single color applies to every
// zone. Only changed colors are sent unless test mode is on. Ignored while
// the pipeline flag is clear.
func (c *Controller) Update(colors []color.RGB) {
	if len(colors) == 0 {
		return
	}

	c.mu.Lock()
	if !c.pipeline || c.closed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	var reqs []request
	for i := range c.last {
		col := colors[0]
		if len(colors) > 1 {
			if i >= len(colors) {
				break
			}
			col = colors[i]
		}
		st := &c.last[i]
		changed := st.Last == 0 || st.Color != col
		st.Color = col
		st.Last = wire.KindColor
		st.UpdatedAt = now
		if changed || c.cfg.TestMode {
			reqs = append(reqs, request{i, c.colorCommand(col)})
		}
	}
	c.mu.Unlock()

	c.enqueue(reqs...)
}

// SetColor sets every endpoint to col. Ignored while the external flag is
// clear.
func (c *Controller) SetColor(col color.RGB) {
	c.mu.Lock()
	if !c.external || c.closed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	reqs := make([]request, 0, len(c.last))
	for i := range c.last {
		c.last[i].Color = col
		c.last[i].Last = wire.KindColor
		c.last[i].UpdatedAt = now
		reqs = append(reqs, request{i, c.colorCommand(col)})
	}
	c.mu.Unlock()

	c.enqueue(reqs...)
}

// SetBrightness sets every endpoint's brightness, clamped to [0, 100].
// Ignored while the external flag is clear.
func (c *Controller) SetBrightness(v int) {
	v = wire.ClampBrightness(v)

	c.mu.Lock()
	if !c.external || c.closed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	reqs := make([]request, 0, len(c.last))
	for i := range c.last {
		c.last[i].Brightness = v
		c.last[i].Last = wire.KindBrightness
		c.last[i].UpdatedAt = now
		reqs = append(reqs, request{i, wire.SetBrightness(v)})
	}
	c.mu.Unlock()

	c.enqueue(reqs...)
}

// SetOnOff switches every endpoint. Turning off sends brightness 0 first.
func (c *Controller) SetOnOff(off bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	var reqs []request
	for i := range c.last {
		c.last[i].Off = off
		c.last[i].Last = wire.KindOnOff
		c.last[i].UpdatedAt = now
		reqs = append(reqs, onOffRequests(i, off)...)
	}
	c.mu.Unlock()

	c.enqueue(reqs...)
}

// Connected schedules a replay of endpoint index's last state.
func (c *Controller) Connected(index int) {
	err := c.sched.Schedule(index, schedule.PurposeReplay, c.cfg.ReplayDelay, func() {
		c.replay(index)
	})
	if err != nil && !errors.Is(err, schedule.ErrSchedulerClosed) {
		c.debugLog("schedule replay failed", "endpoint", index, "error", err)
	}
}

// Disconnected cancels a pending replay for endpoint index.
func (c *Controller) Disconnected(index int) {
	_ = c.sched.Cancel(index, schedule.PurposeReplay)
}

// LastApplied returns the last state requested for endpoint index.
func (c *Controller) LastApplied(index int) (LastApplied, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.last) || c.last[index].Last == 0 {
		return LastApplied{}, false
	}
	return c.last[index], true
}

// Snapshot returns the last applied state of every endpoint.
func (c *Controller) Snapshot() []LastApplied {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LastApplied(nil), c.last...)
}

// Restore seeds the last applied state, typically from a previous run.
// Nothing is sent until an endpoint connects and is replayed.
func (c *Controller) Restore(states []LastApplied) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.last, states)
}

// Scheduler exposes the replay scheduler for inspection.
func (c *Controller) Scheduler() *schedule.Manager {
	return c.sched
}

func (c *Controller) replay(index int) {
	c.mu.Lock()
	if c.closed || index >= len(c.last) {
		c.mu.Unlock()
		return
	}
	st := c.last[index]
	c.mu.Unlock()

	var reqs []request
	switch st.Last {
	case wire.KindColor:
		reqs = []request{{index, c.colorCommand(st.Color)}}
	case wire.KindBrightness:
		reqs = []request{{index, wire.SetBrightness(st.Brightness)}}
	case wire.KindOnOff:
		reqs = onOffRequests(index, st.Off)
	default:
		return
	}
	c.debugLog("replaying last state", "endpoint", index, "kind", st.Last)
	c.enqueue(reqs...)
}

func (c *Controller) colorCommand(col color.RGB) wire.Command {
	wb := c.cfg.WhiteBalance.Apply(col)
	return wire.SetColor(wb.R, wb.G, wb.B)
}

func onOffRequests(index int, off bool) []request {
	if off {
		return []request{
			{index, wire.SetBrightness(0)},
			{index, wire.SetOnOff(false)},
		}
	}
	return []request{{index, wire.SetOnOff(true)}}
}

// enqueue hands requests to the worker. Requests for endpoints that are
// not connected are not queued.
func (c *Controller) enqueue(reqs ...request) {
	for _, r := range reqs {
		if !c.sender.IsConnected(r.index) {
			continue
		}
		if evicted, ok := c.queue.push(r); ok {
			c.logDrop(evicted, "queue full")
		}
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		r, ok := c.queue.pop()
		if !ok {
			return
		}
		c.deliver(r)
	}
}

func (c *Controller) deliver(r request) {
	err := c.sender.Send(r.index, r.cmd.Encode())
	switch {
	case err == nil:
	case errors.Is(err, radio.ErrNotConnected):
		c.logDrop(r, "not connected")
	default:
		if c.logger != nil {
			c.logger.Warn("send failed", "endpoint", r.index, "command", r.cmd.String(), "error", err)
		}
		c.logDrop(r, err.Error())
	}
}

func (c *Controller) logDrop(r request, reason string) {
	c.debugLog("command dropped", "endpoint", r.index, "command", r.cmd.String(), "reason", reason)
	c.elog.Log(log.Event{
		Timestamp: c.clock.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerLight,
		Category:  log.CategoryCommand,
		Endpoint:  r.index,
		Command: &log.CommandEvent{
			Kind:    r.cmd.Kind,
			Data:    r.cmd.Encode(),
			Dropped: true,
			Reason:  reason,
		},
	})
}

// debugLog logs a debug message if logging is enabled.
func (c *Controller) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/config"
	"github.com/edgelight/edgelight-go/pkg/connection"
	"github.com/edgelight/edgelight-go/pkg/frame"
	"github.com/edgelight/edgelight-go/pkg/light"
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/persistence"
	"github.com/edgelight/edgelight-go/pkg/radio"
	"github.com/edgelight/edgelight-go/pkg/smoother"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

// Pipeline errors.
var (
	ErrClosed         = errors.New("pipeline closed")
	ErrAlreadyStarted = errors.New("pipeline already started")
)

// Options configures a Context.
type Options struct {
	// Config is the validated host configuration. Required.
	Config *config.Config

	// Radio is the radio backend. Required.
	Radio radio.Radio

	// Clock drives every timer. Defaults to the real clock.
	Clock clock.Clock

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLog receives radio events. Nil disables it.
	EventLog log.Logger

	// Store persists the last applied state across runs. Optional.
	Store *persistence.LightStateStore

	// Debug, when set, receives a swatch line per update.
	Debug io.Writer

	// DebugInterval rate-limits Debug output.
	DebugInterval time.Duration
}

// Context is one running installation.
type Context struct {
	cfg       *config.Config
	logger    *slog.Logger
	clock     clock.Clock
	layout    *zone.Layout
	extractor color.Extractor
	zones     *zone.Manager
	conn      *connection.Manager
	light     *light.Controller
	store     *persistence.LightStateStore
	fixed     []color.RGB
	outputs   []Output

	mu       sync.Mutex
	smoother *smoother.Smoother
	started  bool
	closed   bool
}

// New builds a Context from opts. Nothing touches the radio until Start.
func New(opts Options) (*Context, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if opts.Radio == nil {
		return nil, fmt.Errorf("%w: nil radio", radio.ErrUnavailable)
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	addrs := cfg.FixtureAddresses()
	zones, err := zone.NewManager(layout, addrs, clk)
	if err != nil {
		return nil, err
	}

	sc := cfg.SmootherConfig()
	sc.Clock = clk
	sm, err := smoother.New(layout.Count(), sc)
	if err != nil {
		return nil, err
	}

	cc := cfg.ConnectionConfig()
	cc.Clock = clk
	cc.Logger = opts.Logger
	cc.EventLog = opts.EventLog
	conn, err := connection.NewManager(opts.Radio, cc)
	if err != nil {
		return nil, err
	}

	lc := cfg.LightConfig()
	lc.Clock = clk
	lc.Logger = opts.Logger
	lc.EventLog = opts.EventLog
	ctl, err := light.New(conn, lc)
	if err != nil {
		return nil, err
	}

	fixed, err := cfg.Colors()
	if err != nil {
		return nil, err
	}

	c := &Context{
		cfg:       cfg,
		logger:    opts.Logger,
		clock:     clk,
		layout:    layout,
		extractor: cfg.Extractor(),
		zones:     zones,
		conn:      conn,
		light:     ctl,
		store:     opts.Store,
		fixed:     fixed,
		smoother:  sm,
	}
	c.outputs = append(c.outputs, NewLEDOutput(ctl))
	if opts.Debug != nil {
		c.outputs = append(c.outputs, NewDebugOutput(opts.Debug, opts.DebugInterval, clk))
	}

	conn.OnConnected(func(i int) {
		_ = zones.SetConnected(i)
	})
	conn.OnDisconnected(func(i int) {
		_ = zones.SetDisconnected(i)
	})
	zones.OnConnect(func(i int, addr string) {
		c.infoLog("fixture connected", "zone", i, "address", addr)
		ctl.Connected(i)
	})
	zones.OnDisconnect(func(i int, addr string) {
		c.infoLog("fixture disconnected", "zone", i, "address", addr)
		ctl.Disconnected(i)
	})

	if err := c.restore(); err != nil {
		return nil, err
	}
	return c, nil
}

// Start launches the sender and begins discovery. An unavailable radio is
// not an error: the Context keeps running with IsSupported false.
func (c *Context) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	c.light.Start()
	err := c.conn.Start()
	if errors.Is(err, radio.ErrUnavailable) {
		return nil
	}
	return err
}

// Close saves the last applied state and stops every component. It is
// idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var errs []error
	if err := c.save(); err != nil {
		errs = append(errs, fmt.Errorf("save state: %w", err))
	}
	errs = append(errs, c.light.Close(), c.conn.Close())
	return errors.Join(errs...)
}

// Run submits every frame from src until ctx is cancelled or the source
// closes its channel.
func (c *Context) Run(ctx context.Context, src frame.Source) error {
	for f := range src.Frames(ctx) {
		if err := c.Submit(f); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			if c.logger != nil {
				c.logger.Warn("frame rejected", "error", err)
			}
		}
	}
	return ctx.Err()
}

// Submit extracts zone colors from f and feeds them through the
// smoother to every output. In test mode the configured fixed colors
// replace the frame.
func (c *Context) Submit(f *frame.Frame) error {
	if c.isClosed() {
		return ErrClosed
	}

	var colors []color.RGB
	if c.cfg.TestMode && len(c.fixed) > 0 {
		colors = c.fixedColors()
	} else {
		if err := f.Validate(); err != nil {
			return err
		}
		colors = c.extractor.ExtractAll(f, c.layout.ScaledRects(f.Width, f.Height))
	}
	c.Update(colors)
	return nil
}

// Update feeds one color per zone through the smoother to every output.
func (c *Context) Update(colors []color.RGB) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	out := append([]color.RGB(nil), c.smoother.Update(colors)...)
	c.mu.Unlock()

	for _, o := range c.outputs {
		o.Write(out)
	}
}

// SetColor sets every fixture to col. Requires the external flag.
func (c *Context) SetColor(col color.RGB) {
	c.light.SetColor(col)
}

// SetBrightness sets every fixture's brightness. Requires the external
// flag.
func (c *Context) SetBrightness(v int) {
	c.light.SetBrightness(v)
}

// SetOnOff switches every fixture.
func (c *Context) SetOnOff(off bool) {
	c.light.SetOnOff(off)
}

// SetState sets the pipeline and external enable flags.
func (c *Context) SetState(pipeline, external bool) {
	c.light.SetState(pipeline, external)
}

// IsSupported reports whether the radio is usable.
func (c *Context) IsSupported() bool {
	return c.light.IsSupported()
}

// ConnectedCount returns the number of connected fixtures.
func (c *Context) ConnectedCount() int {
	return c.light.ConnectedCount()
}

// Reset drops every link and restarts discovery.
func (c *Context) Reset() {
	c.conn.Reset()
}

// Flush waits until the connection manager and the sender are idle.
func (c *Context) Flush() {
	c.conn.Flush()
	c.light.Flush()
	c.conn.Flush()
}

// Endpoints returns the connection state of every fixture.
func (c *Context) Endpoints() []connection.EndpointStatus {
	return c.conn.Snapshot()
}

// Zones returns the zone status tracker.
func (c *Context) Zones() *zone.Manager {
	return c.zones
}

// Light returns the light controller.
func (c *Context) Light() *light.Controller {
	return c.light
}

// Outputs returns the active outputs.
func (c *Context) Outputs() []Output {
	return c.outputs
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) fixedColors() []color.RGB {
	if len(c.fixed) == 1 {
		out := make([]color.RGB, c.layout.Count())
		for i := range out {
			out[i] = c.fixed[0]
		}
		return out
	}
	return c.fixed
}

func (c *Context) restore() error {
	if c.store == nil {
		return nil
	}
	st, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if st == nil {
		return nil
	}
	c.light.Restore(st.Applied(c.zones.Addresses()))
	c.light.SetState(st.Pipeline, st.External)
	c.infoLog("restored light state", "path", c.store.Path(), "saved_at", st.SavedAt)
	return nil
}

func (c *Context) save() error {
	if c.store == nil {
		return nil
	}
	pipeline, external := c.light.State()
	st := persistence.Capture(c.cfg.Preset, c.zones.Addresses(), pipeline, external, c.light.Snapshot())
	st.SavedAt = c.clock.Now()
	return c.store.Save(st)
}

func (c *Context) infoLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

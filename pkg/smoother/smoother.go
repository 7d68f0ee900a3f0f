// Package smoother bridges slow color sampling and fast light output.
//
// Colors are sampled once per update window (400ms by default). On each
// update tick every zone gets a gradient table of Frequency entries running
// from the previous sample to the new one. Between ticks, reads walk the
// table one step every Window/Frequency, holding at the last entry.
//
// Per-channel changes smaller than Threshold are dropped so sensor jitter
// does not flicker the fixtures.
//
// A Smoother has a single logical owner. Concurrent use needs external
// locking.
package smoother

import (
	"errors"
	"fmt"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/color"
)

// Smoother errors.
var (
	ErrInvalidConfig = errors.New("invalid smoother config")
)

// Defaults.
const (
	DefaultFrequency = 5
	DefaultWindow    = 400 * time.Millisecond
	DefaultThreshold = 10
)

// Config configures a Smoother.
type Config struct {
	// Frequency is the gradient table length F and the number of reads
	// per update window.
	Frequency int

	// Window is the minimum time between update ticks.
	Window time.Duration

	// Threshold is the smallest per-channel change that is interpolated.
	Threshold int

	// SignedThreshold compares the signed delta against Threshold, which
	// drops every decrease regardless of size. Off by default.
	SignedThreshold bool

	// Clock supplies time. Defaults to the real clock.
	Clock clock.Clock
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Frequency: DefaultFrequency,
		Window:    DefaultWindow,
		Threshold: DefaultThreshold,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Frequency < 2 {
		return fmt.Errorf("%w: frequency %d, need at least 2", ErrInvalidConfig, c.Frequency)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window %v", ErrInvalidConfig, c.Window)
	}
	if c.Window/time.Duration(c.Frequency) <= 0 {
		return fmt.Errorf("%w: window %v too short for frequency %d", ErrInvalidConfig, c.Window, c.Frequency)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold %d", ErrInvalidConfig, c.Threshold)
	}
	return nil
}

// ReadInterval is the time between gradient steps.
func (c Config) ReadInterval() time.Duration {
	return c.Window / time.Duration(c.Frequency)
}

// zoneState is the per-zone interpolation state.
type zoneState struct {
	previous color.RGB
	current  color.RGB
	table    []color.RGB
}

// Smoother holds one gradient per zone.
type Smoother struct {
	cfg   Config
	clock clock.Clock
	zones []*zoneState

	started    bool
	lastUpdate time.Time
	lastRead   time.Time
	index      int
	out        []color.RGB
}

// New creates a smoother for the given number of zones. All zones start
// black.
func New(zones int, cfg Config) (*Smoother, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if zones <= 0 {
		return nil, fmt.Errorf("%w: %d zones", ErrInvalidConfig, zones)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	s := &Smoother{
		cfg:   cfg,
		clock: clk,
		out:   make([]color.RGB, zones),
	}
	for i := 0; i < zones; i++ {
		s.zones = append(s.zones, &zoneState{table: make([]color.RGB, cfg.Frequency)})
	}
	return s, nil
}

// Update feeds the latest sampled colors. If a window has passed since the
// last tick (or this is the first call) the gradients are rebuilt from
// colors; otherwise colors are ignored. Either way it then reads and
// returns the current output for every zone.
//
// The returned slice is reused by the next call.
func (s *Smoother) Update(colors []color.RGB) []color.RGB {
	now := s.clock.Now()
	if !s.started || now.Sub(s.lastUpdate) >= s.cfg.Window {
		s.tick(now, colors)
	}
	return s.Read()
}

// Read advances the gradient position if a read interval has passed and
// returns the current output for every zone.
func (s *Smoother) Read() []color.RGB {
	now := s.clock.Now()
	if now.Sub(s.lastRead) >= s.cfg.ReadInterval() {
		s.lastRead = now
		s.index = min(s.index+1, s.cfg.Frequency-1)
	}
	for z, st := range s.zones {
		s.out[z] = st.table[s.index]
	}
	return s.out
}

// Gradient returns a copy of a zone's current table.
func (s *Smoother) Gradient(zone int) []color.RGB {
	if zone < 0 || zone >= len(s.zones) {
		return nil
	}
	return append([]color.RGB(nil), s.zones[zone].table...)
}

// Index returns the current read position. It saturates at Frequency-1
// until the next tick.
func (s *Smoother) Index() int {
	return s.index
}

// Zones returns the number of zones.
func (s *Smoother) Zones() int {
	return len(s.zones)
}

// tick rebuilds every gradient. Zones without a new color keep theirs.
func (s *Smoother) tick(now time.Time, colors []color.RGB) {
	s.started = true
	s.lastUpdate = now
	s.lastRead = now
	s.index = 0

	for z, st := range s.zones {
		next := st.current
		if z < len(colors) {
			next = colors[z]
		}
		s.fill(st, next)
	}
}

// fill shifts current to previous and interpolates towards next.
func (s *Smoother) fill(st *zoneState, next color.RGB) {
	st.previous = st.current
	st.current = next

	p, c := st.previous, st.current
	dr := s.denoise(int(c.R) - int(p.R))
	dg := s.denoise(int(c.G) - int(p.G))
	db := s.denoise(int(c.B) - int(p.B))

	last := s.cfg.Frequency - 1
	for i := range st.table {
		st.table[i] = color.RGB{
			R: uint8(int(p.R) + dr*i/last),
			G: uint8(int(p.G) + dg*i/last),
			B: uint8(int(p.B) + db*i/last),
		}
	}
}

// denoise zeroes deltas below the fluctuation threshold.
func (s *Smoother) denoise(d int) int {
	if s.cfg.SignedThreshold {
		if d < s.cfg.Threshold {
			return 0
		}
		return d
	}
	if d < s.cfg.Threshold && d > -s.cfg.Threshold {
		return 0
	}
	return d
}

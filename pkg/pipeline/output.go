package pipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/light"
)

// Output consumes smoothed zone colors. Write must not block.
type Output interface {
	Name() string
	Write(colors []color.RGB)
}

// LEDOutput forwards colors to the light controller.
type LEDOutput struct {
	ctl *light.Controller
}

// NewLEDOutput creates an output driving ctl.
func NewLEDOutput(ctl *light.Controller) *LEDOutput {
	return &LEDOutput{ctl: ctl}
}

// Name implements Output.
func (o *LEDOutput) Name() string { return "led" }

// Write implements Output.
func (o *LEDOutput) Write(colors []color.RGB) {
	o.ctl.Update(colors)
}

// DebugOutput renders one swatch per zone as a terminal line.
type DebugOutput struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	clock    clock.Clock
	interval time.Duration
	last     time.Time
	lines    int
}

// NewDebugOutput creates a swatch renderer writing to w. Lines are
// written at most once per interval; zero writes every update.
func NewDebugOutput(w io.Writer, interval time.Duration, clk clock.Clock) *DebugOutput {
	if clk == nil {
		clk = clock.Real()
	}
	return &DebugOutput{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		clock:    clk,
		interval: interval,
	}
}

// Name implements Output.
func (o *DebugOutput) Name() string { return "debug" }

// Write implements Output.
func (o *DebugOutput) Write(colors []color.RGB) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock.Now()
	if o.lines > 0 && now.Sub(o.last) < o.interval {
		return
	}
	o.last = now
	o.lines++
	fmt.Fprintln(o.w, o.Render(colors))
}

// Lines returns how many lines have been written.
func (o *DebugOutput) Lines() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lines
}

// Render returns the swatch line for colors.
func (o *DebugOutput) Render(colors []color.RGB) string {
	parts := make([]string, len(colors))
	for i, c := range colors {
		hex := c.String()
		style := o.renderer.NewStyle().
			Background(lipgloss.Color(hex)).
			Foreground(lipgloss.Color(contrast(c))).
			Padding(0, 1)
		parts[i] = style.Render(fmt.Sprintf("%d %s", i, hex))
	}
	return strings.Join(parts, " ")
}

// contrast picks a readable label color for background c.
func contrast(c color.RGB) string {
	_, _, l := c.HSL()
	if l > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}

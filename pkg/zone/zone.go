package zone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edgelight/edgelight-go/pkg/frame"
)

// Zone errors.
var (
	ErrInvalidLayout = errors.New("invalid zone layout")
	ErrUnknownPreset = errors.New("unknown preset")
	ErrZoneNotFound  = errors.New("zone not found")
	ErrCountMismatch = errors.New("zone count does not match address count")
	ErrEmptyZoneRect = errors.New("zone rectangle has zero area")
)

// Layout defaults.
const (
	DefaultGridWidth   = 16
	DefaultGridHeight  = 16
	DefaultBorderWidth = 2
)

// Zone is one screen region driving one fixture.
type Zone struct {
	// Index is the zone position, also the endpoint index.
	Index int

	// Rect is the region in sample grid coordinates.
	Rect frame.Rect

	// Border is the strip width in grid cells.
	Border int
}

// Layout is the full set of zones over a sample grid.
type Layout struct {
	GridWidth  int
	GridHeight int
	Border     int
	Zones      []Zone
}

// NewLayout builds a 2 or 4 zone layout.
func NewLayout(count, gridWidth, gridHeight, border int) (*Layout, error) {
	if gridWidth <= 0 || gridHeight <= 0 || border <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d border %d", ErrInvalidLayout, gridWidth, gridHeight, border)
	}
	if 2*border > gridWidth {
		return nil, fmt.Errorf("%w: border %d too wide for grid width %d", ErrInvalidLayout, border, gridWidth)
	}

	w, h, b := gridWidth, gridHeight, border
	var rects []frame.Rect
	switch count {
	case 2:
		rects = []frame.Rect{
			{X: 0, Y: 0, W: b, H: h},
			{X: w - b, Y: 0, W: b, H: h},
		}
	case 4:
		half := h / 2
		rects = []frame.Rect{
			{X: 0, Y: half, W: b, H: h - half},
			{X: 0, Y: 0, W: b, H: half},
			{X: w - b, Y: 0, W: b, H: half},
			{X: w - b, Y: half, W: b, H: h - half},
		}
	default:
		return nil, fmt.Errorf("%w: %d zones (want 2 or 4)", ErrInvalidLayout, count)
	}

	l := &Layout{GridWidth: w, GridHeight: h, Border: b}
	for i, r := range rects {
		l.Zones = append(l.Zones, Zone{Index: i, Rect: r, Border: b})
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate rejects empty or out-of-grid zones.
func (l *Layout) Validate() error {
	grid := frame.Rect{X: 0, Y: 0, W: l.GridWidth, H: l.GridHeight}
	for _, z := range l.Zones {
		if z.Rect.Empty() {
			return fmt.Errorf("%w: zone %d", ErrEmptyZoneRect, z.Index)
		}
		if z.Rect.Intersect(grid) != z.Rect {
			return fmt.Errorf("%w: zone %d rect %s outside grid", ErrInvalidLayout, z.Index, z.Rect)
		}
	}
	return nil
}

// Count returns the number of zones.
func (l *Layout) Count() int {
	return len(l.Zones)
}

// Rects returns the zone rectangles in grid coordinates.
func (l *Layout) Rects() []frame.Rect {
	out := make([]frame.Rect, len(l.Zones))
	for i, z := range l.Zones {
		out[i] = z.Rect
	}
	return out
}

// ScaledRects maps the zone rectangles onto a frame of the given size.
// A frame that matches the grid is returned unscaled.
func (l *Layout) ScaledRects(width, height int) []frame.Rect {
	if width == l.GridWidth && height == l.GridHeight {
		return l.Rects()
	}
	out := make([]frame.Rect, len(l.Zones))
	for i, z := range l.Zones {
		out[i] = z.Rect.Scale(l.GridWidth, l.GridHeight, width, height)
	}
	return out
}

// Fixture addresses of the reference installation.
const (
	AddrLeftBottom  = "08:7C:BE:2E:EF:82"
	AddrLeftTop     = "08:7C:BE:2F:A2:49"
	AddrRightTop    = "08:7C:BE:2E:EF:F3"
	AddrRightBottom = "08:7C:BE:2F:A1:D5"
)

// Preset selects a zone count and the address bound to each zone.
type Preset uint8

const (
	PresetDoubleOne Preset = iota
	PresetDoubleTwo
	PresetQuadOne
	PresetQuadTwo
)

// DefaultPreset is used when no preset is configured.
const DefaultPreset = PresetDoubleTwo

// String returns the preset name.
func (p Preset) String() string {
	switch p {
	case PresetDoubleOne:
		return "double-one"
	case PresetDoubleTwo:
		return "double-two"
	case PresetQuadOne:
		return "quad-one"
	case PresetQuadTwo:
		return "quad-two"
	default:
		return "unknown"
	}
}

// ParsePreset parses a preset name.
func ParsePreset(s string) (Preset, error) {
	for _, p := range []Preset{PresetDoubleOne, PresetDoubleTwo, PresetQuadOne, PresetQuadTwo} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Addresses returns the fixture address for each zone index.
func (p Preset) Addresses() []string {
	switch p {
	case PresetDoubleOne:
		return []string{AddrLeftBottom, AddrRightTop}
	case PresetDoubleTwo:
		return []string{AddrLeftTop, AddrRightBottom}
	case PresetQuadOne:
		return []string{AddrLeftBottom, AddrLeftTop, AddrRightTop, AddrRightBottom}
	case PresetQuadTwo:
		return []string{AddrLeftBottom, AddrRightBottom, AddrLeftTop, AddrRightTop}
	default:
		return nil
	}
}

// ZoneCount returns the number of zones the preset drives.
func (p Preset) ZoneCount() int {
	return len(p.Addresses())
}

// NormalizeAddress upper-cases a MAC address and converts dashes to colons.
func NormalizeAddress(addr string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(addr), "-", ":"))
}

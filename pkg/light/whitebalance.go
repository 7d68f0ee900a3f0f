package light

import (
	"fmt"

	"github.com/edgelight/edgelight-go/pkg/color"
)

// WhiteBalance holds per-channel multipliers applied before encoding.
type WhiteBalance struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
}

// DefaultWhiteBalance compensates for the fixtures' cold LEDs.
var DefaultWhiteBalance = WhiteBalance{R: 1.0, G: 0.9, B: 0.75}

// Validate checks that every multiplier is within [0, 1].
func (wb WhiteBalance) Validate() error {
	for _, ch := range []struct {
		name string
		v    float64
	}{{"r", wb.R}, {"g", wb.G}, {"b", wb.B}} {
		if ch.v < 0 || ch.v > 1 {
			return fmt.Errorf("%w: white balance %s=%v outside [0,1]", ErrInvalidConfig, ch.name, ch.v)
		}
	}
	return nil
}

// Apply scales c. Results are truncated.
func (wb WhiteBalance) Apply(c color.RGB) color.RGB {
	return color.RGB{
		R: scale(c.R, wb.R),
		G: scale(c.G, wb.G),
		B: scale(c.B, wb.B),
	}
}

func scale(v uint8, f float64) uint8 {
	return uint8(min(float64(v)*f, 255))
}

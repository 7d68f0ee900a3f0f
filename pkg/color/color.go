package color

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// Named colors used by presets and tests.
var (
	Black  = RGB{0, 0, 0}
	White  = RGB{255, 255, 255}
	Gray   = RGB{0x88, 0x88, 0x88}
	Red    = RGB{255, 0, 0}
	Green  = RGB{0, 255, 0}
	Blue   = RGB{0, 0, 255}
	Yellow = RGB{255, 255, 0}
	Cyan   = RGB{0, 255, 255}
	Purple = RGB{255, 0, 255}
)

// String returns the color as #rrggbb.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Colorful converts c to a go-colorful color.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromColorful converts a go-colorful color, clamping out-of-gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

// HSV returns hue in [0,360) and saturation, value in [0,1].
func (c RGB) HSV() (h, s, v float64) {
	return c.Colorful().Hsv()
}

// HSL returns hue in [0,360) and saturation, lightness in [0,1].
func (c RGB) HSL() (h, s, l float64) {
	return c.Colorful().Hsl()
}

// FromHSV builds a color from hue, saturation and value.
func FromHSV(h, s, v float64) RGB {
	return FromColorful(colorful.Hsv(h, s, v))
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (RGB, error) {
	if len(s) > 0 && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return FromColorful(c), nil
}

// Rainbow returns size reference colors. The first slots are optionally
// reserved for black, white and gray in that order; the remaining slots
// are spaced evenly around the hue wheel at the given saturation and value.
func Rainbow(saturation, value float64, size int, black, white, gray bool) []RGB {
	if size <= 0 {
		return nil
	}
	out := make([]RGB, 0, size)
	for _, reserve := range []struct {
		on bool
		c  RGB
	}{{black, Black}, {white, White}, {gray, Gray}} {
		if reserve.on && len(out) < size {
			out = append(out, reserve.c)
		}
	}
	start := len(out)
	for i := start; i < size; i++ {
		hue := 360 * float64(i-start) / float64(size-start)
		out = append(out, FromHSV(hue, saturation, value))
	}
	return out
}

// hsvDistance is the squared distance between two HSV triples with hue
// normalized to [0,1]. Value is compared only when withValue is set.
func hsvDistance(a, b [3]float64, withValue bool) float64 {
	d := math.Pow(a[0]/360-b[0]/360, 2) + math.Pow(a[1]-b[1], 2)
	if withValue {
		d += math.Pow(a[2]-b[2], 2)
	}
	return d
}

package color

import (
	"math"

	"github.com/edgelight/edgelight-go/pkg/frame"
)

// Gain applied by AverageGained.
const (
	SaturationGain = 4.0
	ValueGain      = 2.0

	// ValueGainFloor is the value below which ValueGain is not applied.
	ValueGainFloor = 0.1

	// GrayTolerance is the fraction of the red channel within which
	// |(|R-G|-|G-B|)| counts as gray.
	GrayTolerance = 0.01
)

// Average returns the per-channel arithmetic mean over rect, using
// integer division.
func Average(f *frame.Frame, rect frame.Rect) RGB {
	var rs, gs, bs, n int
	forEach(f, rect, func(r, g, b uint8) {
		rs += int(r)
		gs += int(g)
		bs += int(b)
		n++
	})
	if n == 0 {
		return Black
	}
	return RGB{uint8(rs / n), uint8(gs / n), uint8(bs / n)}
}

// AverageQuadratic returns the per-channel root mean square over rect.
func AverageQuadratic(f *frame.Frame, rect frame.Rect) RGB {
	var rs, gs, bs, n int
	forEach(f, rect, func(r, g, b uint8) {
		rs += int(r) * int(r)
		gs += int(g) * int(g)
		bs += int(b) * int(b)
		n++
	})
	if n == 0 {
		return Black
	}
	root := func(sum int) uint8 {
		return uint8(math.Sqrt(float64(sum / n)))
	}
	return RGB{root(rs), root(gs), root(bs)}
}

// AverageGained returns Average with saturation multiplied by
// SaturationGain and value by ValueGain (when above ValueGainFloor), both
// clamped to 1. Near-gray averages are returned unchanged.
func AverageGained(f *frame.Frame, rect frame.Rect) RGB {
	return Gain(Average(f, rect))
}

// Gain applies the AverageGained boost to a single color.
func Gain(c RGB) RGB {
	if IsNearGray(c) {
		return c
	}
	h, s, v := c.HSV()
	s *= SaturationGain
	if v > ValueGainFloor {
		v *= ValueGain
	}
	return FromHSV(h, math.Min(s, 1), math.Min(v, 1))
}

// IsNearGray reports whether the spread between channels is within
// GrayTolerance of the red channel.
func IsNearGray(c RGB) bool {
	r, g, b := int(c.R), int(c.G), int(c.B)
	spread := abs(abs(r-g) - abs(g-b))
	return spread <= int(float64(r)*GrayTolerance)
}

// Pixels returns every pixel color in rect, row by row.
func Pixels(f *frame.Frame, rect frame.Rect) []RGB {
	out := make([]RGB, 0, rect.Area())
	forEach(f, rect, func(r, g, b uint8) {
		out = append(out, RGB{r, g, b})
	})
	return out
}

// forEach visits the pixels of rect clipped to the frame.
func forEach(f *frame.Frame, rect frame.Rect, fn func(r, g, b uint8)) {
	rect = rect.Intersect(f.Bounds())
	bpp := f.BytesPerPixel
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		row := y*f.Stride + rect.X*bpp
		for x := 0; x < rect.W; x++ {
			i := row + x*bpp
			fn(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

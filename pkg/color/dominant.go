package color

import (
	"github.com/edgelight/edgelight-go/pkg/frame"
)

// LightMutedDivisor scales down light muted swatches when competing with
// vibrant ones in Dominant.
const LightMutedDivisor = 2

// Dominant returns the swatch with the highest weighted population among
// light vibrant, vibrant, dark vibrant and light muted (population halved).
// When none qualifies, or the winner is black, Average is returned.
func Dominant(f *frame.Frame, rect frame.Rect) RGB {
	p := PaletteOf(f, rect, DefaultPaletteColors)

	best := Black
	bestPop := 0
	consider := func(t Target, divisor int) {
		s, ok := p.Swatch(t)
		if !ok {
			return
		}
		if pop := s.Population / divisor; pop > bestPop {
			best, bestPop = s.RGB, pop
		}
	}
	consider(LightVibrant, 1)
	consider(Vibrant, 1)
	consider(DarkVibrant, 1)
	consider(LightMuted, LightMutedDivisor)

	if best != Black {
		return best
	}
	return Average(f, rect)
}

// DominantVariants returns the light vibrant, vibrant and dark vibrant
// swatch colors from a six color palette. Missing roles are Black.
func DominantVariants(f *frame.Frame, rect frame.Rect) [3]RGB {
	p := PaletteOf(f, rect, VariantsPaletteColors)

	var out [3]RGB
	for i, t := range []Target{LightVibrant, Vibrant, DarkVibrant} {
		if s, ok := p.Swatch(t); ok {
			out[i] = s.RGB
		}
	}
	return out
}

// QuantizedDominant assigns every color to the nearest of binCount
// reference colors (white and gray reserved, the rest spread over the hue
// wheel at full saturation and value) by HSV distance, and returns the
// reference color of the most populous bin. Ties go to the lower bin.
func QuantizedDominant(colors []RGB, binCount int) RGB {
	refs := Rainbow(1, 1, binCount, false, true, true)
	if len(refs) == 0 {
		return Black
	}

	refHSV := make([][3]float64, len(refs))
	for i, r := range refs {
		h, s, v := r.HSV()
		refHSV[i] = [3]float64{h, s, v}
	}

	bins := make([]int, len(refs))
	for _, c := range colors {
		h, s, v := c.HSV()
		hsv := [3]float64{h, s, v}

		nearest := 0
		minDist := hsvDistance(hsv, refHSV[0], true)
		for i := 1; i < len(refHSV); i++ {
			if d := hsvDistance(hsv, refHSV[i], true); d < minDist {
				nearest, minDist = i, d
			}
		}
		bins[nearest]++
	}

	winner := 0
	for i := 1; i < len(bins); i++ {
		if bins[i] > bins[winner] {
			winner = i
		}
	}
	return refs[winner]
}

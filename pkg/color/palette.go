package color

import (
	"math"
	"sort"

	"github.com/edgelight/edgelight-go/pkg/frame"
)

// Palette sizes.
const (
	DefaultPaletteColors  = 16
	VariantsPaletteColors = 6
)

// Swatch is a representative color and the number of pixels it stands for.
type Swatch struct {
	RGB        RGB
	Population int
}

// HSL returns the swatch color in HSL.
func (s Swatch) HSL() (h, sat, l float64) {
	return s.RGB.HSL()
}

// Target describes the saturation and lightness windows a swatch must fall
// into to be chosen for a role, and the ideal values scored against.
type Target struct {
	Name string

	MinSaturation, TargetSaturation, MaxSaturation float64
	MinLightness, TargetLightness, MaxLightness    float64
}

// Score weights.
const (
	saturationWeight = 0.24
	lightnessWeight  = 0.52
	populationWeight = 0.24
)

// Swatch roles, in selection order. Each swatch fills at most one role.
var (
	LightVibrant = Target{"light-vibrant", 0.35, 1, 1, 0.55, 0.74, 1}
	Vibrant      = Target{"vibrant", 0.35, 1, 1, 0.3, 0.5, 0.7}
	DarkVibrant  = Target{"dark-vibrant", 0.35, 1, 1, 0, 0.26, 0.45}
	LightMuted   = Target{"light-muted", 0, 0.3, 0.4, 0.55, 0.74, 1}
	Muted        = Target{"muted", 0, 0.3, 0.4, 0.3, 0.5, 0.7}
	DarkMuted    = Target{"dark-muted", 0, 0.3, 0.4, 0, 0.26, 0.45}

	targets = []Target{LightVibrant, Vibrant, DarkVibrant, LightMuted, Muted, DarkMuted}
)

// Palette is the result of quantizing a set of colors.
type Palette struct {
	Swatches []Swatch
	selected map[string]Swatch
}

// PaletteOf quantizes the pixels of rect.
func PaletteOf(f *frame.Frame, rect frame.Rect, maxColors int) *Palette {
	return NewPalette(Pixels(f, rect), maxColors)
}

// NewPalette quantizes colors into at most maxColors swatches with a
// median cut and assigns swatches to roles.
func NewPalette(colors []RGB, maxColors int) *Palette {
	if maxColors <= 0 {
		maxColors = DefaultPaletteColors
	}
	p := &Palette{
		Swatches: quantize(colors, maxColors),
		selected: make(map[string]Swatch),
	}
	p.selectTargets()
	return p
}

// Swatch returns the swatch chosen for target.
func (p *Palette) Swatch(target Target) (Swatch, bool) {
	s, ok := p.selected[target.Name]
	return s, ok
}

func (p *Palette) selectTargets() {
	maxPop := 0
	for _, s := range p.Swatches {
		maxPop = max(maxPop, s.Population)
	}
	used := make([]bool, len(p.Swatches))

	for _, t := range targets {
		best := -1
		bestScore := math.Inf(-1)
		for i, s := range p.Swatches {
			if used[i] {
				continue
			}
			_, sat, light := s.HSL()
			if sat < t.MinSaturation || sat > t.MaxSaturation ||
				light < t.MinLightness || light > t.MaxLightness {
				continue
			}
			score := saturationWeight*(1-math.Abs(sat-t.TargetSaturation)) +
				lightnessWeight*(1-math.Abs(light-t.TargetLightness)) +
				populationWeight*float64(s.Population)/float64(maxPop)
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best >= 0 {
			used[best] = true
			p.selected[t.Name] = p.Swatches[best]
		}
	}
}

// bucket accumulates the pixels sharing one 5-bit-per-channel cell.
type bucket struct {
	key        uint16
	count      int
	rs, gs, bs int
}

func (b *bucket) component(dim int) int {
	return int(b.key>>(10-5*dim)) & 0x1f
}

func (b *bucket) average() RGB {
	return RGB{uint8(b.rs / b.count), uint8(b.gs / b.count), uint8(b.bs / b.count)}
}

// box is a set of buckets produced by the median cut.
type box []*bucket

func (bx box) bounds(dim int) (lo, hi int) {
	lo, hi = 31, 0
	for _, b := range bx {
		v := b.component(dim)
		lo, hi = min(lo, v), max(hi, v)
	}
	return lo, hi
}

func (bx box) volume() int {
	v := 1
	for dim := 0; dim < 3; dim++ {
		lo, hi := bx.bounds(dim)
		v *= hi - lo + 1
	}
	return v
}

func (bx box) longestDimension() int {
	best, bestLen := 0, -1
	for dim := 0; dim < 3; dim++ {
		lo, hi := bx.bounds(dim)
		if hi-lo > bestLen {
			best, bestLen = dim, hi-lo
		}
	}
	return best
}

// split sorts the box along its longest dimension and cuts it where the
// cumulative population reaches half.
func (bx box) split() (box, box) {
	dim := bx.longestDimension()
	sort.SliceStable(bx, func(i, j int) bool {
		ci, cj := bx[i].component(dim), bx[j].component(dim)
		if ci != cj {
			return ci < cj
		}
		return bx[i].key < bx[j].key
	})

	total := 0
	for _, b := range bx {
		total += b.count
	}
	cut, acc := len(bx)-2, 0
	for i, b := range bx {
		acc += b.count
		if acc >= total/2 {
			cut = min(i, len(bx)-2)
			break
		}
	}
	return bx[:cut+1], bx[cut+1:]
}

func (bx box) swatch() Swatch {
	var sum bucket
	for _, b := range bx {
		sum.count += b.count
		sum.rs += b.rs
		sum.gs += b.gs
		sum.bs += b.bs
	}
	return Swatch{RGB: sum.average(), Population: sum.count}
}

func quantize(colors []RGB, maxColors int) []Swatch {
	cells := make(map[uint16]*bucket)
	for _, c := range colors {
		key := uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
		b, ok := cells[key]
		if !ok {
			b = &bucket{key: key}
			cells[key] = b
		}
		b.count++
		b.rs += int(c.R)
		b.gs += int(c.G)
		b.bs += int(c.B)
	}

	var all box
	for _, b := range cells {
		if !excluded(b.average()) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].key < all[j].key })
	if len(all) == 0 {
		return nil
	}

	boxes := []box{all}
	if len(all) > maxColors {
		for len(boxes) < maxColors {
			i := largestSplittable(boxes)
			if i < 0 {
				break
			}
			a, b := boxes[i].split()
			boxes[i] = a
			boxes = append(boxes, b)
		}
	} else {
		boxes = boxes[:0]
		for _, b := range all {
			boxes = append(boxes, box{b})
		}
	}

	out := make([]Swatch, 0, len(boxes))
	for _, bx := range boxes {
		out = append(out, bx.swatch())
	}
	return out
}

func largestSplittable(boxes []box) int {
	best, bestVol := -1, 0
	for i, bx := range boxes {
		if len(bx) < 2 {
			continue
		}
		if v := bx.volume(); v > bestVol {
			best, bestVol = i, v
		}
	}
	return best
}

// excluded drops near-black, near-white and skin-tone colors, which make
// poor ambient swatches.
func excluded(c RGB) bool {
	h, s, l := c.HSL()
	switch {
	case l <= 0.05:
		return true
	case l >= 0.95:
		return true
	case h >= 10 && h <= 37 && s <= 0.82:
		return true
	}
	return false
}

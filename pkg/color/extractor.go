package color

import (
	"fmt"
	"strings"

	"github.com/edgelight/edgelight-go/pkg/frame"
)

// Method selects how a zone color is extracted.
type Method uint8

const (
	// MethodAverageGained boosts the zone average. Default.
	MethodAverageGained Method = iota

	// MethodDominant picks the dominant palette swatch.
	MethodDominant

	// MethodAverage is the plain arithmetic mean.
	MethodAverage

	// MethodQuadratic is the root mean square.
	MethodQuadratic
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodAverageGained:
		return "average-gained"
	case MethodDominant:
		return "dominant"
	case MethodAverage:
		return "average"
	case MethodQuadratic:
		return "quadratic"
	default:
		return "unknown"
	}
}

// ParseMethod parses a method name as returned by String.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average-gained", "gained":
		return MethodAverageGained, nil
	case "dominant":
		return MethodDominant, nil
	case "average":
		return MethodAverage, nil
	case "quadratic", "rms":
		return MethodQuadratic, nil
	}
	return 0, fmt.Errorf("unknown extraction method %q", s)
}

// Extractor computes one color per zone rectangle.
type Extractor struct {
	Method Method
}

// Extract returns the color for a single rectangle.
func (e Extractor) Extract(f *frame.Frame, rect frame.Rect) RGB {
	switch e.Method {
	case MethodDominant:
		return Dominant(f, rect)
	case MethodAverage:
		return Average(f, rect)
	case MethodQuadratic:
		return AverageQuadratic(f, rect)
	default:
		return AverageGained(f, rect)
	}
}

// ExtractAll returns one color per rectangle, in order.
func (e Extractor) ExtractAll(f *frame.Frame, rects []frame.Rect) []RGB {
	out := make([]RGB, len(rects))
	for i, r := range rects {
		out[i] = e.Extract(f, r)
	}
	return out
}

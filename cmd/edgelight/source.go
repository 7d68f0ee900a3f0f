package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/frame"
)

// Built-in frame size, a 16:9 thumbnail.
const (
	sourceWidth  = 160
	sourceHeight = 90
)

// patternHold is how long the test pattern keeps one palette position.
const patternHold = 2 * time.Second

// parseSource builds the frame source named by spec: "pattern" for the
// rotating rainbow test pattern, or a hex color for a solid frame. Frames
// arrive every interval, which must not exceed the smoother read interval
// or gradient steps are skipped.
func parseSource(spec string, interval time.Duration) (frame.Source, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("frame source: interval %v", interval)
	}

	if spec == "" || spec == "pattern" {
		var palette [][3]uint8
		for _, c := range color.Rainbow(1, 1, 6, false, false, false) {
			palette = append(palette, [3]uint8{c.R, c.G, c.B})
		}
		return &frame.TestPattern{
			Width:    sourceWidth,
			Height:   sourceHeight,
			Bands:    len(palette),
			Colors:   palette,
			Interval: interval,
			Hold:     patternHold,
		}, nil
	}

	c, err := color.ParseHex(spec)
	if err != nil {
		return nil, fmt.Errorf("frame source: %w", err)
	}
	return &frame.Solid{
		Width:    sourceWidth,
		Height:   sourceHeight,
		R:        c.R,
		G:        c.G,
		B:        c.B,
		Interval: interval,
	}, nil
}

// switchWriter forwards writes to a target that can be replaced while
// loggers hold a reference to it.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Set replaces the target writer.
func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

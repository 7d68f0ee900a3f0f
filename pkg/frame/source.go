package frame

import (
	"context"
	"time"
)

// Source produces frames at a roughly periodic rate. The channel is closed
// when ctx is cancelled. Frames must not be modified after they are sent.
type Source interface {
	Frames(ctx context.Context) <-chan *Frame
}

// Solid emits the same single-color frame on every tick.
type Solid struct {
	Width, Height int
	R, G, B       uint8
	Interval      time.Duration
}

// Frames implements Source.
func (s *Solid) Frames(ctx context.Context) <-chan *Frame {
	return run(ctx, s.Interval, func(seq uint64) *Frame {
		f := New(s.Width, s.Height)
		f.Fill(f.Bounds(), s.R, s.G, s.B)
		return f
	})
}

// TestPattern emits frames split into vertical bands, one per entry of
// Colors per band, rotating the palette by one position every Hold.
type TestPattern struct {
	Width, Height int
	Bands         int
	Colors        [][3]uint8
	Interval      time.Duration
	Hold          time.Duration
}

// Frames implements Source.
func (p *TestPattern) Frames(ctx context.Context) <-chan *Frame {
	start := time.Now()
	return run(ctx, p.Interval, func(seq uint64) *Frame {
		shift := 0
		if p.Hold > 0 {
			shift = int(time.Since(start) / p.Hold)
		}
		return p.Render(shift)
	})
}

// Render draws the pattern rotated by shift palette positions.
func (p *TestPattern) Render(shift int) *Frame {
	f := New(p.Width, p.Height)
	bands := max(p.Bands, 1)
	if len(p.Colors) == 0 {
		return f
	}
	bandW := p.Width / bands
	for i := 0; i < bands; i++ {
		c := p.Colors[(i+shift)%len(p.Colors)]
		w := bandW
		if i == bands-1 {
			w = p.Width - i*bandW
		}
		f.Fill(Rect{X: i * bandW, Y: 0, W: w, H: p.Height}, c[0], c[1], c[2])
	}
	return f
}

// run drives a ticker goroutine calling render for every frame.
// Slow consumers miss frames rather than block the producer.
func run(ctx context.Context, interval time.Duration, render func(seq uint64) *Frame) <-chan *Frame {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	out := make(chan *Frame, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var seq uint64
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				seq++
				f := render(seq)
				f.Seq = seq
				f.Timestamp = now
				select {
				case out <- f:
				default:
				}
			}
		}
	}()
	return out
}

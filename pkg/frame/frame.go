// Package frame defines the pixel buffer handed to edgelight by the
// capture side, and the Source contract that produces it.
package frame

import (
	"errors"
	"fmt"
	"time"
)

// Frame errors.
var (
	ErrInvalidFrame = errors.New("invalid frame")
)

// Frame is a read-only pixel buffer. Pixels are stored row by row, Stride
// bytes apart, each BytesPerPixel wide with red, green and blue in the
// first three bytes (RGB or RGBA layout).
type Frame struct {
	Width         int
	Height        int
	Stride        int
	BytesPerPixel int
	Pix           []byte

	// Seq is a monotonically increasing sequence number set by the source.
	Seq uint64

	// Timestamp is when the frame was captured.
	Timestamp time.Time
}

// New allocates a black RGBA frame.
func New(width, height int) *Frame {
	return &Frame{
		Width:         width,
		Height:        height,
		Stride:        width * 4,
		BytesPerPixel: 4,
		Pix:           make([]byte, width*height*4),
	}
}

// Validate checks that the buffer is large enough for the geometry.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.BytesPerPixel < 3 {
		return fmt.Errorf("%w: %d bytes per pixel", ErrInvalidFrame, f.BytesPerPixel)
	}
	if f.Stride < f.Width*f.BytesPerPixel {
		return fmt.Errorf("%w: stride %d too small", ErrInvalidFrame, f.Stride)
	}
	need := (f.Height-1)*f.Stride + f.Width*f.BytesPerPixel
	if len(f.Pix) < need {
		return fmt.Errorf("%w: buffer %d bytes, need %d", ErrInvalidFrame, len(f.Pix), need)
	}
	return nil
}

// Bounds returns the rectangle covering the whole frame.
func (f *Frame) Bounds() Rect {
	return Rect{X: 0, Y: 0, W: f.Width, H: f.Height}
}

// At returns the red, green and blue bytes of pixel (x, y).
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := y*f.Stride + x*f.BytesPerPixel
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes pixel (x, y). Alpha, if present, is set opaque.
func (f *Frame) Set(x, y int, r, g, b uint8) {
	i := y*f.Stride + x*f.BytesPerPixel
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
	if f.BytesPerPixel > 3 {
		f.Pix[i+3] = 0xff
	}
}

// Fill paints rect with one color, clipped to the frame.
func (f *Frame) Fill(rect Rect, r, g, b uint8) {
	rect = rect.Intersect(f.Bounds())
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			f.Set(x, y, r, g, b)
		}
	}
}

// Rect is an axis-aligned rectangle in frame pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Area returns W*H, or 0 for an empty rectangle.
func (r Rect) Area() int {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Empty reports whether the rectangle has no pixels.
func (r Rect) Empty() bool {
	return r.Area() == 0
}

// Intersect returns the overlap of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.W, o.X+o.W)
	y1 := min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Scale maps r from a grid of gridW x gridH cells onto a frame of
// width x height pixels.
func (r Rect) Scale(gridW, gridH, width, height int) Rect {
	x0 := r.X * width / gridW
	y0 := r.Y * height / gridH
	x1 := (r.X + r.W) * width / gridW
	y1 := (r.Y + r.H) * height / gridH
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// String returns "x,y wxh".
func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.W, r.H)
}

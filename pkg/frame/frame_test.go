package frame

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSetAt(t *testing.T) {
	f := New(4, 2)
	require.NoError(t, f.Validate())

	f.Set(3, 1, 10, 20, 30)
	r, g, b := f.At(3, 1)
	assert.Equal(t, [3]uint8{10, 20, 30}, [3]uint8{r, g, b})
	assert.Equal(t, uint8(0xff), f.Pix[1*f.Stride+3*4+3])
}

func TestFrameRGBStride(t *testing.T) {
	// 3 bytes per pixel with row padding.
	f := &Frame{Width: 2, Height: 2, Stride: 8, BytesPerPixel: 3, Pix: make([]byte, 16)}
	require.NoError(t, f.Validate())

	f.Fill(f.Bounds(), 1, 2, 3)
	r, g, b := f.At(1, 1)
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})
	// Padding untouched.
	assert.Equal(t, byte(0), f.Pix[6])
}

func TestFrameValidate(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"zero size", Frame{Width: 0, Height: 1, Stride: 4, BytesPerPixel: 4}},
		{"bpp", Frame{Width: 1, Height: 1, Stride: 2, BytesPerPixel: 2, Pix: make([]byte, 2)}},
		{"stride", Frame{Width: 2, Height: 1, Stride: 4, BytesPerPixel: 4, Pix: make([]byte, 8)}},
		{"short buffer", Frame{Width: 2, Height: 2, Stride: 8, BytesPerPixel: 4, Pix: make([]byte, 12)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.frame.Validate(), ErrInvalidFrame)
		})
	}
}

func TestRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 2, H: 16}
	assert.Equal(t, 32, r.Area())
	assert.False(t, r.Empty())
	assert.True(t, Rect{W: 0, H: 3}.Empty())

	assert.Equal(t, Rect{X: 1, Y: 1, W: 1, H: 1}, Rect{X: 0, Y: 0, W: 2, H: 2}.Intersect(Rect{X: 1, Y: 1, W: 5, H: 5}))
	assert.Equal(t, Rect{}, Rect{X: 0, Y: 0, W: 1, H: 1}.Intersect(Rect{X: 3, Y: 3, W: 1, H: 1}))

	// Grid 16x16 onto 160x90.
	scaled := Rect{X: 14, Y: 8, W: 2, H: 8}.Scale(16, 16, 160, 90)
	assert.Equal(t, Rect{X: 140, Y: 45, W: 20, H: 45}, scaled)
	assert.Equal(t, "14,8 2x8", Rect{X: 14, Y: 8, W: 2, H: 8}.String())
}

func TestTestPatternRender(t *testing.T) {
	p := &TestPattern{
		Width:  8,
		Height: 2,
		Bands:  2,
		Colors: [][3]uint8{{0, 0, 255}, {255, 0, 0}, {0, 255, 0}},
	}

	f := p.Render(0)
	r, g, b := f.At(0, 0)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b})
	r, g, b = f.At(7, 1)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	f = p.Render(1)
	r, g, b = f.At(0, 0)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
	r, g, b = f.At(7, 0)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})
}

func TestSolidFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Solid{Width: 4, Height: 4, R: 9, G: 8, B: 7, Interval: 5 * time.Millisecond}
	ch := s.Frames(ctx)

	select {
	case f := <-ch:
		require.NotNil(t, f)
		r, g, b := f.At(2, 2)
		assert.Equal(t, [3]uint8{9, 8, 7}, [3]uint8{r, g, b})
		assert.NotZero(t, f.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	cancel()
	for range ch {
	}
}

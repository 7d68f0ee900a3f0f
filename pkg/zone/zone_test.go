package zone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/frame"
)

func TestNewLayoutTwoZones(t *testing.T) {
	l, err := NewLayout(2, 16, 16, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, []frame.Rect{
		{X: 0, Y: 0, W: 2, H: 16},
		{X: 14, Y: 0, W: 2, H: 16},
	}, l.Rects())
}

func TestNewLayoutFourZones(t *testing.T) {
	l, err := NewLayout(4, 16, 16, 2)
	require.NoError(t, err)
	assert.Equal(t, []frame.Rect{
		{X: 0, Y: 8, W: 2, H: 8},
		{X: 0, Y: 0, W: 2, H: 8},
		{X: 14, Y: 0, W: 2, H: 8},
		{X: 14, Y: 8, W: 2, H: 8},
	}, l.Rects())
	for i, z := range l.Zones {
		assert.Equal(t, i, z.Index)
		assert.Equal(t, 2, z.Border)
	}
}

func TestNewLayoutInvalid(t *testing.T) {
	tests := []struct {
		name                string
		count, w, h, border int
	}{
		{"three zones", 3, 16, 16, 2},
		{"zero border", 2, 16, 16, 0},
		{"border too wide", 2, 16, 16, 9},
		{"empty grid", 2, 0, 16, 2},
		{"quad on one row", 4, 16, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.count, tt.w, tt.h, tt.border)
			assert.Error(t, err)
		})
	}
}

func TestScaledRects(t *testing.T) {
	l, err := NewLayout(2, 16, 16, 2)
	require.NoError(t, err)

	assert.Equal(t, l.Rects(), l.ScaledRects(16, 16))
	assert.Equal(t, []frame.Rect{
		{X: 0, Y: 0, W: 20, H: 90},
		{X: 140, Y: 0, W: 20, H: 90},
	}, l.ScaledRects(160, 90))
}

func TestPresets(t *testing.T) {
	tests := []struct {
		preset Preset
		name   string
		addrs  []string
	}{
		{PresetDoubleOne, "double-one", []string{AddrLeftBottom, AddrRightTop}},
		{PresetDoubleTwo, "double-two", []string{AddrLeftTop, AddrRightBottom}},
		{PresetQuadOne, "quad-one", []string{AddrLeftBottom, AddrLeftTop, AddrRightTop, AddrRightBottom}},
		{PresetQuadTwo, "quad-two", []string{AddrLeftBottom, AddrRightBottom, AddrLeftTop, AddrRightTop}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.preset.String())
			assert.Equal(t, tt.addrs, tt.preset.Addresses())
			assert.Equal(t, len(tt.addrs), tt.preset.ZoneCount())

			p, err := ParsePreset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.preset, p)
		})
	}

	_, err := ParsePreset("triple")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, PresetDoubleTwo, DefaultPreset)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "08:7C:BE:2E:EF:82", NormalizeAddress(" 08-7c-be-2e-ef-82 "))
}

func TestManager(t *testing.T) {
	l, err := NewLayout(2, 16, 16, 2)
	require.NoError(t, err)

	_, err = NewManager(l, []string{AddrLeftTop}, nil)
	assert.ErrorIs(t, err, ErrCountMismatch)

	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m, err := NewManager(l, []string{"08:7c:be:2f:a2:49", AddrRightBottom}, clk)
	require.NoError(t, err)
	assert.Equal(t, []string{AddrLeftTop, AddrRightBottom}, m.Addresses())

	var connected, dropped []int
	m.OnConnect(func(i int, _ string) { connected = append(connected, i) })
	m.OnDisconnect(func(i int, _ string) { dropped = append(dropped, i) })

	require.NoError(t, m.SetConnected(1))
	assert.Equal(t, 1, m.ConnectedCount())

	clk.Advance(time.Second)
	require.NoError(t, m.SetDisconnected(1))
	require.NoError(t, m.SetDisconnected(1))
	require.NoError(t, m.SetDisconnected(0))

	assert.Equal(t, []int{1}, connected)
	assert.Equal(t, []int{1}, dropped)

	st, err := m.Get(1)
	require.NoError(t, err)
	assert.False(t, st.Connected)
	assert.Equal(t, 1, st.Connects)
	assert.Equal(t, clk.Now(), st.LastSeen)

	_, err = m.Get(5)
	assert.ErrorIs(t, err, ErrZoneNotFound)
	assert.ErrorIs(t, m.SetConnected(-1), ErrZoneNotFound)
	assert.Len(t, m.All(), 2)
}

package smoother

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/color"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestSmoother(t *testing.T, zones int, mutate func(*Config)) (*Smoother, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	cfg := DefaultConfig()
	cfg.Clock = clk
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(zones, cfg)
	require.NoError(t, err)
	return s, clk
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 80*time.Millisecond, DefaultConfig().ReadInterval())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"frequency", func(c *Config) { c.Frequency = 1 }},
		{"window", func(c *Config) { c.Window = 0 }},
		{"window too short", func(c *Config) { c.Window = 3 * time.Nanosecond }},
		{"threshold", func(c *Config) { c.Threshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	_, err := New(0, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGradientTable(t *testing.T) {
	s, _ := newTestSmoother(t, 1, nil)

	out := s.Update([]color.RGB{color.Red})
	assert.Equal(t, color.Black, out[0])

	table := s.Gradient(0)
	require.Len(t, table, DefaultFrequency)
	assert.Equal(t, color.Black, table[0])
	assert.Equal(t, []color.RGB{
		{R: 0, G: 0, B: 0},
		{R: 63, G: 0, B: 0},
		{R: 127, G: 0, B: 0},
		{R: 191, G: 0, B: 0},
		{R: 255, G: 0, B: 0},
	}, table)
}

func TestGradientStartsAtPreviousColor(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)

	s.Update([]color.RGB{{R: 40, G: 80, B: 120}})
	clk.Advance(DefaultWindow)
	s.Update([]color.RGB{{R: 200, G: 20, B: 120}})

	table := s.Gradient(0)
	require.Len(t, table, DefaultFrequency)
	assert.Equal(t, color.RGB{R: 40, G: 80, B: 120}, table[0])
	assert.Equal(t, color.RGB{R: 200, G: 20, B: 120}, table[DefaultFrequency-1])
}

func TestReadAdvancesAndClamps(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	s.Update([]color.RGB{color.Red})

	var got []uint8
	for i := 0; i < 4; i++ {
		clk.Advance(80 * time.Millisecond)
		got = append(got, s.Read()[0].R)
	}
	assert.Equal(t, []uint8{63, 127, 191, 255}, got)

	// Reading past the end repeats the last entry.
	for i := 0; i < 10; i++ {
		clk.Advance(80 * time.Millisecond)
		assert.Equal(t, color.Red, s.Read()[0])
		assert.Equal(t, DefaultFrequency-1, s.Index())
	}
	assert.Equal(t, s.Gradient(0)[DefaultFrequency-1], s.Read()[0])
}

func TestFeedAtReadIntervalRamps(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	interval := s.cfg.ReadInterval()

	// One sample per read interval, the sampled red channel switching
	// between 0 and 200 every window.
	var out []int
	for step := 0; step < 40; step++ {
		level := uint8(0)
		if (step/DefaultFrequency)%2 == 1 {
			level = 200
		}
		out = append(out, int(s.Update([]color.RGB{{R: level}})[0].R))
		assert.LessOrEqual(t, s.Index(), DefaultFrequency-1)
		clk.Advance(interval)
	}

	maxStep := 200/(DefaultFrequency-1) + 1
	for i := 1; i < len(out); i++ {
		step := out[i] - out[i-1]
		assert.LessOrEqual(t, step, maxStep, "jump up at %d: %v", i, out)
		assert.GreaterOrEqual(t, step, -maxStep, "jump down at %d: %v", i, out)
	}
	assert.Contains(t, out, 200)
	assert.Contains(t, out, 100)
}

func TestReadWithoutElapsedTimeHolds(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	s.Update([]color.RGB{color.Red})

	clk.Advance(79 * time.Millisecond)
	assert.Equal(t, color.Black, s.Read()[0])
	assert.Equal(t, 0, s.Index())
}

func TestSubThresholdChannelsConstant(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	s.Update([]color.RGB{{R: 100, G: 100, B: 100}})
	clk.Advance(DefaultWindow)
	s.Update([]color.RGB{{R: 105, G: 200, B: 95}})

	for _, c := range s.Gradient(0) {
		assert.Equal(t, uint8(100), c.R)
		assert.Equal(t, uint8(100), c.B)
	}
	table := s.Gradient(0)
	assert.Equal(t, uint8(100), table[0].G)
	assert.Equal(t, uint8(200), table[DefaultFrequency-1].G)
}

func TestLargeDecreaseInterpolates(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	s.Update([]color.RGB{{R: 200, G: 0, B: 0}})
	clk.Advance(DefaultWindow)
	s.Update([]color.RGB{{R: 0, G: 0, B: 0}})

	assert.Equal(t, []uint8{200, 150, 100, 50, 0}, reds(s.Gradient(0)))
}

func TestSignedThresholdDropsDecreases(t *testing.T) {
	s, clk := newTestSmoother(t, 1, func(c *Config) { c.SignedThreshold = true })
	s.Update([]color.RGB{{R: 200, G: 0, B: 0}})
	clk.Advance(DefaultWindow)
	s.Update([]color.RGB{{R: 0, G: 0, B: 0}})

	// The signed comparison treats -200 as below threshold.
	assert.Equal(t, []uint8{200, 200, 200, 200, 200}, reds(s.Gradient(0)))

	clk.Advance(DefaultWindow)
	s.Update([]color.RGB{{R: 0, G: 0, B: 0}})
	assert.Equal(t, []uint8{0, 0, 0, 0, 0}, reds(s.Gradient(0)))
}

func TestUpdateAndReadDueTogether(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	s.Update([]color.RGB{color.Red})

	clk.Advance(DefaultWindow)
	out := s.Update([]color.RGB{color.Blue})
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, s.Gradient(0)[0], out[0])
	assert.Equal(t, color.Red, out[0])
}

func TestUpdateWithinWindowIgnoresColors(t *testing.T) {
	s, clk := newTestSmoother(t, 1, nil)
	s.Update([]color.RGB{color.Red})

	clk.Advance(100 * time.Millisecond)
	s.Update([]color.RGB{color.Blue})
	assert.Equal(t, color.Red, s.Gradient(0)[DefaultFrequency-1])
}

func TestMissingZoneColorHolds(t *testing.T) {
	s, clk := newTestSmoother(t, 2, nil)
	s.Update([]color.RGB{color.Red, color.Blue})
	clk.Advance(DefaultWindow)
	s.Update([]color.RGB{color.Green})

	for _, c := range s.Gradient(1) {
		assert.Equal(t, color.Blue, c)
	}
}

func TestTwoZoneSmoothTransition(t *testing.T) {
	s, clk := newTestSmoother(t, 2, nil)

	var zone0, zone1 []int
	for step := 0; step < 20; step++ {
		out := s.Update([]color.RGB{color.Red, color.Blue})
		zone0 = append(zone0, int(out[0].R))
		zone1 = append(zone1, int(out[1].B))
		clk.Advance(20 * time.Millisecond)
	}

	assertSmooth(t, zone0)
	assertSmooth(t, zone1)
	assert.Equal(t, 255, zone0[len(zone0)-1])
	assert.Equal(t, 255, zone1[len(zone1)-1])

	distinct := map[int]bool{}
	for _, v := range zone0 {
		distinct[v] = true
	}
	assert.Len(t, distinct, DefaultFrequency)
}

func assertSmooth(t *testing.T, values []int) {
	t.Helper()
	maxStep := 255/(DefaultFrequency-1) + 1
	for i := 1; i < len(values); i++ {
		step := values[i] - values[i-1]
		assert.GreaterOrEqual(t, step, 0, "not monotonic at %d: %v", i, values)
		assert.LessOrEqual(t, step, maxStep, "jump at %d: %v", i, values)
	}
}

func reds(table []color.RGB) []uint8 {
	out := make([]uint8, len(table))
	for i, c := range table {
		out[i] = c.R
	}
	return out
}

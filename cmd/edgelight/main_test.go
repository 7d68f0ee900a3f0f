package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelight/edgelight-go/pkg/config"
	"github.com/edgelight/edgelight-go/pkg/frame"
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, opts, err := parseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "pattern", opts.Source)
	assert.False(t, opts.Simulate)
	assert.False(t, opts.Interactive)
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edgelight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestParseFlagsOverridesFile(t *testing.T) {
	path := writeConfig(t, `preset: double-one
addresses: ["aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"]
method: average
log:
  level: warn
`)

	cfg, _, err := parseFlags([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:01", "AA:BB:CC:DD:EE:02"}, cfg.FixtureAddresses())
	assert.Equal(t, "warn", cfg.Log.Level)

	cfg, opts, err := parseFlags([]string{
		"--config", path,
		"--preset", "quad-one",
		"--method", "quadratic",
		"--log-level", "debug",
		"--log-format", "json",
		"--test-mode",
		"--simulate",
		"--source", "#ff8800",
	})
	require.NoError(t, err)
	assert.Equal(t, zone.PresetQuadOne.Addresses(), cfg.FixtureAddresses(), "preset flag drops file addresses")
	assert.Equal(t, "quadratic", cfg.Method)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.TestMode)
	assert.True(t, opts.Simulate)
	assert.Equal(t, "#ff8800", opts.Source)
}

func TestParseFlagsErrors(t *testing.T) {
	_, _, err := parseFlags([]string{"--preset", "triple"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, _, err = parseFlags([]string{"stray"})
	assert.Error(t, err)

	_, _, err = parseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, _, err = parseFlags([]string{"--help"})
	assert.Equal(t, pflag.ErrHelp, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "zone", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"zone":1`)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"}, &buf)
	assert.Error(t, err)
}

func TestParseSource(t *testing.T) {
	src, err := parseSource("pattern", 80*time.Millisecond)
	require.NoError(t, err)
	p, ok := src.(*frame.TestPattern)
	require.True(t, ok)
	assert.Equal(t, 6, p.Bands)
	assert.Equal(t, [3]uint8{255, 0, 0}, p.Colors[0])
	assert.NoError(t, p.Render(0).Validate())

	src, err = parseSource("#ff8800", 100*time.Millisecond)
	require.NoError(t, err)
	s, ok := src.(*frame.Solid)
	require.True(t, ok)
	assert.Equal(t, [3]uint8{0xff, 0x88, 0x00}, [3]uint8{s.R, s.G, s.B})
	assert.Equal(t, sourceWidth, s.Width)
	assert.Equal(t, int64(100e6), s.Interval.Nanoseconds())

	_, err = parseSource("plaid", 80*time.Millisecond)
	assert.Error(t, err)
	_, err = parseSource("pattern", 0)
	assert.Error(t, err)
}

func TestFrameIntervalFeedsEverySmootherRead(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"--config", writeConfig(t, "smoothing:\n  frequency: 8\n  buffered_time: 1s\n")},
	} {
		cfg, _, err := parseFlags(args)
		require.NoError(t, err)

		interval := frameInterval(cfg)
		assert.Positive(t, interval)
		assert.LessOrEqual(t, interval, cfg.Smoothing.BufferedTime/time.Duration(cfg.Smoothing.Frequency))

		src, err := parseSource("pattern", interval)
		require.NoError(t, err)
		assert.Equal(t, interval, src.(*frame.TestPattern).Interval)
	}
}

func TestOpenEventLog(t *testing.T) {
	var buf bytes.Buffer
	quiet, err := newLogger(config.LogConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)

	l, closeFn, err := openEventLog("", quiet)
	require.NoError(t, err)
	assert.Equal(t, log.NoopLogger{}, l)
	closeFn()

	path := filepath.Join(t.TempDir(), "events.elog")
	l, closeFn, err = openEventLog(path, quiet)
	require.NoError(t, err)
	_, isFile := l.(*log.FileLogger)
	assert.True(t, isFile)
	closeFn()

	verbose, err := newLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)
	l, closeFn, err = openEventLog(path, verbose)
	require.NoError(t, err)
	_, isFile = l.(*log.FileLogger)
	assert.False(t, isFile, "debug level mirrors the file log to slog")

	l.Log(log.Event{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Layer:     log.LayerRadio,
		Category:  log.CategoryScan,
		Endpoint:  log.NoEndpoint,
		Scan:      &log.ScanEvent{Action: log.ScanStart},
	})
	closeFn()
	assert.Contains(t, buf.String(), "SCAN")

	events, err := log.NewReader(path)
	require.NoError(t, err)
	defer events.Close()
	event, err := events.Next()
	require.NoError(t, err)
	assert.Equal(t, log.ScanStart, event.Scan.Action)
}

func TestSwitchWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := &switchWriter{w: &a}
	_, _ = w.Write([]byte("one"))
	w.Set(&b)
	_, _ = w.Write([]byte("two"))
	assert.Equal(t, "one", a.String())
	assert.Equal(t, "two", b.String())
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/connection"
	"github.com/edgelight/edgelight-go/pkg/light"
	"github.com/edgelight/edgelight-go/pkg/smoother"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete host configuration.
type Config struct {
	// Preset selects the zone layout and fixture addresses.
	Preset string `yaml:"preset"`

	// Addresses overrides the preset's fixture addresses. Its length must
	// match the preset's zone count.
	Addresses []string `yaml:"addresses,omitempty"`

	// Method is the color extraction method.
	Method string `yaml:"method"`

	Grid       GridConfig       `yaml:"grid"`
	Smoothing  SmoothingConfig  `yaml:"smoothing"`
	Light      LightConfig      `yaml:"light"`
	Connection ConnectionConfig `yaml:"connection"`

	// TestMode replaces captured frames with fixed colors and sends every
	// update.
	TestMode bool `yaml:"test_mode"`

	// TestColors are hex colors per zone used in test mode. A single
	// entry applies to every zone.
	TestColors []string `yaml:"test_colors,omitempty"`

	// EventLog is the CBOR radio event log path. Empty disables it.
	EventLog string `yaml:"event_log,omitempty"`

	// StateFile persists the last applied state. Empty disables it.
	StateFile string `yaml:"state_file,omitempty"`

	Log LogConfig `yaml:"log"`
}

// GridConfig is the sample grid the zones are laid out on.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Border int `yaml:"border"`
}

// SmoothingConfig configures the temporal smoother.
type SmoothingConfig struct {
	Frequency       int           `yaml:"frequency"`
	BufferedTime    time.Duration `yaml:"buffered_time"`
	Threshold       int           `yaml:"threshold"`
	SignedThreshold bool          `yaml:"signed_threshold"`
}

// LightConfig configures the light controller.
type LightConfig struct {
	WhiteBalance light.WhiteBalance `yaml:"white_balance"`
	QueueSize    int                `yaml:"queue_size"`
	ReplayDelay  time.Duration      `yaml:"replay_delay"`
}

// ConnectionConfig holds the connection manager timings.
type ConnectionConfig struct {
	ScanTimeout        time.Duration `yaml:"scan_timeout"`
	ScanCooldown       time.Duration `yaml:"scan_cooldown"`
	WatchdogInterval   time.Duration `yaml:"watchdog_interval"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	ReconnectDelay     time.Duration `yaml:"reconnect_delay"`
	ProtocolErrorDelay time.Duration `yaml:"protocol_error_delay"`
	ForceCloseSettle   time.Duration `yaml:"force_close_settle"`
	DegradedAfter      int           `yaml:"degraded_after"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Preset: zone.DefaultPreset.String(),
		Method: color.MethodAverageGained.String(),
		Grid: GridConfig{
			Width:  zone.DefaultGridWidth,
			Height: zone.DefaultGridHeight,
			Border: zone.DefaultBorderWidth,
		},
		Smoothing: SmoothingConfig{
			Frequency:    smoother.DefaultFrequency,
			BufferedTime: smoother.DefaultWindow,
			Threshold:    smoother.DefaultThreshold,
		},
		Light: LightConfig{
			WhiteBalance: light.DefaultWhiteBalance,
			QueueSize:    light.DefaultQueueSize,
			ReplayDelay:  light.DefaultReplayDelay,
		},
		Connection: ConnectionConfig{
			ScanTimeout:        connection.DefaultScanTimeout,
			ScanCooldown:       connection.DefaultScanCooldown,
			WatchdogInterval:   connection.DefaultWatchdogInterval,
			ConnectTimeout:     connection.DefaultConnectTimeout,
			ReconnectDelay:     connection.DefaultReconnectDelay,
			ProtocolErrorDelay: connection.DefaultProtocolErrorDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration and every derived component config.
func (c *Config) Validate() error {
	p, err := zone.ParsePreset(c.Preset)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.Addresses) > 0 && len(c.Addresses) != p.ZoneCount() {
		return fmt.Errorf("%w: %w: preset %s has %d zones, got %d addresses",
			ErrInvalidConfig, zone.ErrCountMismatch, p, p.ZoneCount(), len(c.Addresses))
	}
	if _, err := color.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Layout(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Colors(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.TestColors) > 1 && len(c.TestColors) != p.ZoneCount() {
		return fmt.Errorf("%w: %d test colors for %d zones", ErrInvalidConfig, len(c.TestColors), p.ZoneCount())
	}
	if err := c.SmootherConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.LightConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.ConnectionConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// PresetValue returns the parsed preset.
func (c *Config) PresetValue() zone.Preset {
	p, err := zone.ParsePreset(c.Preset)
	if err != nil {
		return zone.DefaultPreset
	}
	return p
}

// FixtureAddresses returns the address bound to each zone index.
func (c *Config) FixtureAddresses() []string {
	src := c.Addresses
	if len(src) == 0 {
		src = c.PresetValue().Addresses()
	}
	out := make([]string, len(src))
	for i, a := range src {
		out[i] = zone.NormalizeAddress(a)
	}
	return out
}

// Layout builds the zone layout for the preset.
func (c *Config) Layout() (*zone.Layout, error) {
	return zone.NewLayout(c.PresetValue().ZoneCount(), c.Grid.Width, c.Grid.Height, c.Grid.Border)
}

// Extractor returns the configured color extractor.
func (c *Config) Extractor() color.Extractor {
	m, _ := color.ParseMethod(c.Method)
	return color.Extractor{Method: m}
}

// Colors parses the test mode colors.
func (c *Config) Colors() ([]color.RGB, error) {
	out := make([]color.RGB, 0, len(c.TestColors))
	for _, s := range c.TestColors {
		rgb, err := color.ParseHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rgb)
	}
	return out, nil
}

// SmootherConfig derives the smoother configuration.
func (c *Config) SmootherConfig() smoother.Config {
	return smoother.Config{
		Frequency:       c.Smoothing.Frequency,
		Window:          c.Smoothing.BufferedTime,
		Threshold:       c.Smoothing.Threshold,
		SignedThreshold: c.Smoothing.SignedThreshold,
	}
}

// LightConfig derives the light controller configuration.
func (c *Config) LightConfig() light.Config {
	return light.Config{
		WhiteBalance: c.Light.WhiteBalance,
		QueueSize:    c.Light.QueueSize,
		ReplayDelay:  c.Light.ReplayDelay,
		TestMode:     c.TestMode,
	}
}

// ConnectionConfig derives the connection manager configuration.
func (c *Config) ConnectionConfig() connection.Config {
	cc := connection.DefaultConfig(c.FixtureAddresses())
	cc.ScanTimeout = c.Connection.ScanTimeout
	cc.ScanCooldown = c.Connection.ScanCooldown
	cc.WatchdogInterval = c.Connection.WatchdogInterval
	cc.ConnectTimeout = c.Connection.ConnectTimeout
	cc.ReconnectDelay = c.Connection.ReconnectDelay
	cc.ProtocolErrorDelay = c.Connection.ProtocolErrorDelay
	cc.ForceCloseSettle = c.Connection.ForceCloseSettle
	cc.DegradedAfter = c.Connection.DegradedAfter
	return cc
}

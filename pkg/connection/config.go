package connection

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgelight/edgelight-go/pkg/clock"
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

// Default timings.
const (
	DefaultScanTimeout        = 15 * time.Second
	DefaultScanCooldown       = 45 * time.Second
	DefaultWatchdogInterval   = 8 * time.Second
	DefaultConnectTimeout     = 16 * time.Second
	DefaultReconnectDelay     = 500 * time.Millisecond
	DefaultProtocolErrorDelay = 1 * time.Second
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid connection config")

// Config configures a Manager.
type Config struct {
	// Addresses is the allow-list. Endpoint i is Addresses[i].
	Addresses []string

	// ScanTimeout bounds one active scan.
	ScanTimeout time.Duration

	// ScanCooldown is the wait before rescanning when nothing was found.
	ScanCooldown time.Duration

	// WatchdogInterval is the watchdog period.
	WatchdogInterval time.Duration

	// ConnectTimeout is how long an endpoint may stay connecting.
	ConnectTimeout time.Duration

	// ReconnectDelay is the retry delay after a dropped link.
	ReconnectDelay time.Duration

	// ProtocolErrorDelay is the retry delay after a GATT error.
	ProtocolErrorDelay time.Duration

	// ForceCloseSettle is a pause between forgetting and closing a link.
	// Some stacks report spurious errors without it. Zero disables it.
	ForceCloseSettle time.Duration

	// DegradedAfter enables partial operation: after this many discovery
	// rounds the watchdog connects whatever was found. Zero waits for the
	// full set forever.
	DegradedAfter int

	// Clock drives every delay. Defaults to the real clock.
	Clock clock.Clock

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLog receives radio events. Nil disables it.
	EventLog log.Logger
}

// DefaultConfig returns a configuration with the default timings.
func DefaultConfig(addresses []string) Config {
	return Config{
		Addresses:          addresses,
		ScanTimeout:        DefaultScanTimeout,
		ScanCooldown:       DefaultScanCooldown,
		WatchdogInterval:   DefaultWatchdogInterval,
		ConnectTimeout:     DefaultConnectTimeout,
		ReconnectDelay:     DefaultReconnectDelay,
		ProtocolErrorDelay: DefaultProtocolErrorDelay,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if len(c.Addresses) == 0 {
		return fmt.Errorf("%w: no addresses", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Addresses))
	for _, a := range c.Addresses {
		n := zone.NormalizeAddress(a)
		if n == "" {
			return fmt.Errorf("%w: empty address", ErrInvalidConfig)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate address %s", ErrInvalidConfig, n)
		}
		seen[n] = true
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"scan timeout", c.ScanTimeout},
		{"scan cooldown", c.ScanCooldown},
		{"watchdog interval", c.WatchdogInterval},
		{"connect timeout", c.ConnectTimeout},
		{"reconnect delay", c.ReconnectDelay},
		{"protocol error delay", c.ProtocolErrorDelay},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, d.name)
		}
	}
	if c.ForceCloseSettle < 0 {
		return fmt.Errorf("%w: negative force close settle", ErrInvalidConfig)
	}
	if c.DegradedAfter < 0 {
		return fmt.Errorf("%w: negative degraded rounds", ErrInvalidConfig)
	}
	return nil
}

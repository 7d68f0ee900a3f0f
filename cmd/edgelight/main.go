// Command edgelight drives the ambient edge lights around a screen.
//
// It samples the screen border, smooths the zone colors and streams them
// to the configured fixtures over Bluetooth LE. Without a capture backend
// attached it renders a built-in test pattern or a solid color, which is
// what the --source flag selects.
//
// Usage:
//
//	edgelight [flags]
//
// Flags:
//
//	--config string       YAML configuration file
//	--preset string       Zone preset (double-one, double-two, quad-one, quad-two)
//	--method string       Color extraction method (average-gained, average, quadratic, dominant)
//	--source string       Frame source: pattern or a solid color like #ff8800
//	--adapter string      Bluetooth adapter, e.g. hci0 (default: first powered)
//	--simulate            Use an in-memory radio with pre-bonded fixtures
//	--test-mode           Send fixed test colors instead of sampled ones
//	--event-log string    Write radio events to this file (CBOR)
//	--state-file string   Persist the last applied state across restarts
//	--log-level string    debug, info, warn or error
//	--log-format string   text or json
//	--debug               Print a color swatch line per update
//	--interactive         Enable interactive command mode
//
// Examples:
//
//	# Run against the real fixtures with a state file
//	edgelight --preset quad-one --state-file ~/.local/state/edgelight.json
//
//	# Try the pipeline without hardware
//	edgelight --simulate --debug --interactive
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/edgelight/edgelight-go/cmd/edgelight/interactive"
	"github.com/edgelight/edgelight-go/internal/testharness/mock"
	"github.com/edgelight/edgelight-go/pkg/config"
	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/persistence"
	"github.com/edgelight/edgelight-go/pkg/pipeline"
	"github.com/edgelight/edgelight-go/pkg/radio"
	"github.com/edgelight/edgelight-go/pkg/radio/bluez"
)

// options holds the command-line settings that are not part of Config.
type options struct {
	ConfigPath  string
	Source      string
	Adapter     string
	Simulate    bool
	Debug       bool
	Interactive bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	// Log output is redirected to the console once it exists.
	out := &switchWriter{w: os.Stderr}
	logger, err := newLogger(cfg.Log, out)
	if err != nil {
		return err
	}

	r, closeRadio := openRadio(cfg, opts, logger)
	defer closeRadio()

	eventLog, closeEventLog, err := openEventLog(cfg.EventLog, logger)
	if err != nil {
		return err
	}
	defer closeEventLog()

	pipeOpts := pipeline.Options{
		Config:   cfg,
		Radio:    r,
		Logger:   logger,
		EventLog: eventLog,
	}
	if cfg.StateFile != "" {
		pipeOpts.Store = persistence.NewLightStateStore(cfg.StateFile)
	}
	if opts.Debug {
		pipeOpts.Debug = out
		pipeOpts.DebugInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := pipeline.New(pipeOpts)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := p.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	logger.Info("edgelight started",
		"preset", cfg.Preset,
		"method", cfg.Method,
		"fixtures", cfg.FixtureAddresses(),
		"supported", p.IsSupported(),
		"simulate", opts.Simulate)

	src, err := parseSource(opts.Source, frameInterval(cfg))
	if err != nil {
		return err
	}
	go func() {
		if err := p.Run(ctx, src); err != nil && ctx.Err() == nil {
			logger.Error("frame loop stopped", "error", err)
			cancel()
		}
	}()

	if opts.Interactive {
		ic, err := interactive.New(p)
		if err != nil {
			return fmt.Errorf("create interactive console: %w", err)
		}
		out.Set(ic.Stdout())
		go ic.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cancel()
	return nil
}

// parseFlags loads the configuration file, if any, and applies flag
// overrides on top of it.
func parseFlags(args []string) (*config.Config, options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("edgelight", pflag.ContinueOnError)
	flagSet.StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	flagSet.StringVar(&opts.Source, "source", "pattern", "frame source: pattern or a solid color like #ff8800")
	flagSet.StringVar(&opts.Adapter, "adapter", "", "Bluetooth adapter, e.g. hci0 (default: first powered)")
	flagSet.BoolVar(&opts.Simulate, "simulate", false, "use an in-memory radio with pre-bonded fixtures")
	flagSet.BoolVar(&opts.Debug, "debug", false, "print a color swatch line per update")
	flagSet.BoolVar(&opts.Interactive, "interactive", false, "enable interactive command mode")

	preset := flagSet.String("preset", "", "zone preset (double-one, double-two, quad-one, quad-two)")
	method := flagSet.String("method", "", "color extraction method: average-gained, average, quadratic or dominant")
	testMode := flagSet.Bool("test-mode", false, "send fixed test colors instead of sampled ones")
	eventLog := flagSet.String("event-log", "", "write radio events to this file (CBOR)")
	stateFile := flagSet.String("state-file", "", "persist the last applied state across restarts")
	logLevel := flagSet.String("log-level", "", "log level: debug, info, warn or error")
	logFormat := flagSet.String("log-format", "", "log format: text or json")

	if err := flagSet.Parse(args); err != nil {
		return nil, opts, err
	}
	if flagSet.NArg() > 0 {
		return nil, opts, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, opts, err
		}
		cfg = loaded
	}

	if flagSet.Changed("preset") {
		cfg.Preset = *preset
		// Addresses belong to the file's preset.
		cfg.Addresses = nil
	}
	if flagSet.Changed("method") {
		cfg.Method = *method
	}
	if flagSet.Changed("test-mode") {
		cfg.TestMode = *testMode
	}
	if flagSet.Changed("event-log") {
		cfg.EventLog = *eventLog
	}
	if flagSet.Changed("state-file") {
		cfg.StateFile = *stateFile
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}
	return cfg, opts, nil
}

// frameInterval is the frame cadence for the built-in sources: two frames
// per smoother read, so every gradient step is shown even when ticks drift.
func frameInterval(cfg *config.Config) time.Duration {
	return max(cfg.SmootherConfig().ReadInterval()/2, time.Millisecond)
}

// newLogger builds the operational logger from the log settings.
func newLogger(lc config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

// openRadio returns the radio backend and its cleanup. A missing system
// bus leaves the host running without fixtures.
func openRadio(cfg *config.Config, opts options, logger *slog.Logger) (radio.Radio, func()) {
	if opts.Simulate {
		r := mock.NewRadio()
		r.AutoConnect = true
		r.SetPaired(cfg.FixtureAddresses()...)
		return r, func() {}
	}

	bc := bluez.DefaultConfig()
	bc.Adapter = opts.Adapter
	bc.Logger = logger
	r, err := bluez.Open(bc)
	if err != nil {
		logger.Warn("bluetooth unavailable", "error", err)
		return radio.Unavailable(err), func() {}
	}
	return r, func() {
		if err := r.Close(); err != nil {
			logger.Warn("close radio", "error", err)
		}
	}
}

// openEventLog opens the radio event log. At debug level the events are
// mirrored to the operational logger as well.
func openEventLog(path string, logger *slog.Logger) (log.Logger, func(), error) {
	var file, mirror log.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		file = fl
		closeFn = func() {
			written, rejected := fl.Counts()
			logger.Debug("radio event log closed", "path", path, "written", written, "rejected", rejected)
			_ = fl.Close()
		}
		logger.Info("radio event logging", "path", path)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		mirror = log.NewSlogAdapter(logger)
	}
	return log.Tee(file, mirror), closeFn, nil
}

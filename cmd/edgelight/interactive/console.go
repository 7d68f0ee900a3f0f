// Package interactive provides the interactive command-line interface
// for edgelight.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/pipeline"
	"github.com/edgelight/edgelight-go/pkg/wire"
)

// Console handles interactive mode for edgelight.
type Console struct {
	ctx *pipeline.Context
	rl  *readline.Instance
	out io.Writer
}

// New creates a new interactive console driving ctx.
func New(ctx *pipeline.Context) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "edgelight> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{ctx: ctx, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.execute(line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// execute runs one command line. It returns true when the user asked to
// quit.
func (c *Console) execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "status", "s":
		c.cmdStatus()

	case "endpoints", "ep":
		c.cmdEndpoints()

	case "color", "c":
		c.cmdColor(args)

	case "brightness", "b":
		c.cmdBrightness(args)

	case "on":
		c.ctx.SetOnOff(false)

	case "off":
		c.ctx.SetOnOff(true)

	case "state":
		c.cmdState(args)

	case "reset":
		c.ctx.Reset()
		fmt.Fprintln(c.out, "Connections reset, rediscovering fixtures")

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Edge Light Commands:
  Status:
    status               - Show controller status
    endpoints            - List fixtures with link state and last applied color

  Manual Control (requires external control enabled):
    color <#rrggbb>      - Set every fixture to a color
    brightness <0-100>   - Set every fixture's brightness

  Power:
    on                   - Switch fixtures on
    off                  - Switch fixtures off
    state <pipe> <ext>   - Set enable flags (on/off), e.g. state off on

  General:
    reset                - Drop all links and rediscover fixtures
    help                 - Show this help
    quit                 - Exit`)
}

func (c *Console) cmdStatus() {
	ctl := c.ctx.Light()
	pipe, ext := ctl.State()

	fmt.Fprintf(c.out, "Radio supported:  %t\n", c.ctx.IsSupported())
	fmt.Fprintf(c.out, "Connected:        %d/%d\n", c.ctx.ConnectedCount(), len(c.ctx.Endpoints()))
	fmt.Fprintf(c.out, "Pipeline enabled: %t\n", pipe)
	fmt.Fprintf(c.out, "External enabled: %t\n", ext)
	fmt.Fprintf(c.out, "Off:              %t\n", ctl.IsOff())
	fmt.Fprintf(c.out, "Queued commands:  %d\n", ctl.Pending())
	fmt.Fprintf(c.out, "Dropped commands: %d\n", ctl.Dropped())
}

func (c *Console) cmdEndpoints() {
	endpoints := c.ctx.Endpoints()
	zones := c.ctx.Zones().All()

	fmt.Fprintf(c.out, "\nFixtures (%d):\n", len(endpoints))
	fmt.Fprintln(c.out, "-------------------------------------------")
	for _, ep := range endpoints {
		fmt.Fprintf(c.out, "  [%d] %s\n", ep.Index, ep.Address)
		fmt.Fprintf(c.out, "      State: %s\n", ep.State)
		if ep.SessionID != "" {
			fmt.Fprintf(c.out, "      Session: %s\n", ep.SessionID)
		}
		if ep.Index < len(zones) {
			z := zones[ep.Index]
			fmt.Fprintf(c.out, "      Zone: %s (%d connects)\n", z.Zone.Rect, z.Connects)
			if !z.LastSeen.IsZero() {
				fmt.Fprintf(c.out, "      Last seen: %s\n", z.LastSeen.Format("15:04:05"))
			}
		}
		if last, ok := c.ctx.Light().LastApplied(ep.Index); ok {
			fmt.Fprintf(c.out, "      Last applied: %s color %s brightness %d off %t\n",
				last.Last, last.Color, last.Brightness, last.Off)
		}
		fmt.Fprintln(c.out)
	}
}

func (c *Console) cmdColor(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: color <#rrggbb>")
		return
	}
	col, err := color.ParseHex(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if !c.externalEnabled() {
		return
	}
	c.ctx.SetColor(col)
	fmt.Fprintf(c.out, "Color set to %s\n", col)
}

func (c *Console) cmdBrightness(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(c.out, "Usage: brightness <0-%d>\n", wire.MaxBrightness)
		return
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Invalid brightness: %s\n", args[0])
		return
	}
	if !c.externalEnabled() {
		return
	}
	c.ctx.SetBrightness(v)
	fmt.Fprintf(c.out, "Brightness set to %d\n", wire.ClampBrightness(v))
}

func (c *Console) cmdState(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: state <on|off> <on|off>")
		return
	}
	pipe, err := parseSwitch(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	ext, err := parseSwitch(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	c.ctx.SetState(pipe, ext)
	fmt.Fprintf(c.out, "Pipeline %t, external %t\n", pipe, ext)
}

func (c *Console) externalEnabled() bool {
	if _, ext := c.ctx.Light().State(); !ext {
		fmt.Fprintln(c.out, "External control is disabled (use 'state <pipe> on')")
		return false
	}
	return true
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch value: %s (must be on or off)", s)
	}
}

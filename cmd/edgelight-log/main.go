// Command edgelight-log views and analyzes edgelight radio event logs.
//
// Log files are written by edgelight when run with --event-log.
//
// Usage:
//
//	edgelight-log <command> [flags] <file.elog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show per-endpoint statistics
//
// Examples:
//
//	# View only commands sent by the light controller
//	edgelight-log view --layer light edgelight.elog
//
//	# Show the history of one fixture
//	edgelight-log view --endpoint 2 edgelight.elog
//
//	# Extract one link session
//	edgelight-log filter --session 1c2f0b8e -o session.elog edgelight.elog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/edgelight/edgelight-go/cmd/edgelight-log/commands"
)

const usage = `edgelight-log - Edge light radio log analyzer

Usage:
  edgelight-log <command> [flags] <file.elog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show per-endpoint statistics

Use "edgelight-log <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err == pflag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet creates a subcommand flag set with a usage banner.
func newFlagSet(name, banner string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, banner)
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}

// parseWithPath parses args and returns the single log file argument.
func parseWithPath(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", fmt.Errorf("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string) error {
	fs := newFlagSet("view", `edgelight-log view - View log file in human-readable format

Usage:
  edgelight-log view [flags] <file.elog>
`)
	layer := fs.String("layer", "", "Filter by layer (radio, link, light)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (command, scan, state, error)")
	endpoint := fs.Int("endpoint", -1, "Filter by endpoint index")

	path, err := parseWithPath(fs, args)
	if err != nil {
		return err
	}

	var filter commands.ViewFilter
	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			return err
		}
		filter.Layer = &l
	}
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			return err
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}
	if fs.Changed("endpoint") {
		filter.Endpoint = endpoint
	}

	return commands.RunView(path, filter, os.Stdout)
}

func runExport(args []string) error {
	fs := newFlagSet("export", `edgelight-log export - Export log file to JSONL or CSV format

Usage:
  edgelight-log export [flags] <file.elog>
`)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")

	path, err := parseWithPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output)
}

func runFilter(args []string) error {
	fs := newFlagSet("filter", `edgelight-log filter - Filter log file and write to new file

Usage:
  edgelight-log filter [flags] <file.elog>
`)
	var opts commands.FilterOptions
	fs.StringVarP(&opts.Output, "output", "o", "", "Output file (required)")
	fs.StringVar(&opts.SessionID, "session", "", "Filter by link session ID")
	fs.StringVar(&opts.Endpoint, "endpoint", "", "Filter by endpoint index")
	fs.StringVar(&opts.Address, "address", "", "Filter by fixture address")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (radio, link, light)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (command, scan, state, error)")

	path, err := parseWithPath(fs, args)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		fs.Usage()
		return fmt.Errorf("output file (-o) required")
	}

	n, err := commands.RunFilter(path, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Filtered %d events to %s\n", n, opts.Output)
	return nil
}

func runStats(args []string) error {
	fs := newFlagSet("stats", `edgelight-log stats - Show per-endpoint statistics

Usage:
  edgelight-log stats <file.elog>
`)
	path, err := parseWithPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, os.Stdout)
}

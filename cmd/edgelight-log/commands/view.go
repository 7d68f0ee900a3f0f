// Package commands implements the edgelight-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/edgelight/edgelight-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	Endpoint  *int
}

func (f ViewFilter) matches(e log.Event) bool {
	if f.Layer != nil && e.Layer != *f.Layer {
		return false
	}
	if f.Direction != nil && e.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Endpoint != nil && e.Endpoint != *f.Endpoint {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [ep:n sess:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	fmt.Fprintf(w, "%s [%s] %-3s %s %s\n", ts, endpointLabel(event), event.Direction, event.Layer, typeLabel(event))

	switch {
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Scan != nil:
		formatScanDetails(w, event.Scan)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}
	if event.Address != "" {
		fmt.Fprintf(w, "  Address: %s\n", event.Address)
	}

	fmt.Fprintln(w)
}

func endpointLabel(event log.Event) string {
	if event.Endpoint == log.NoEndpoint {
		return "radio"
	}
	if event.SessionID == "" {
		return fmt.Sprintf("ep:%d", event.Endpoint)
	}
	return fmt.Sprintf("ep:%d sess:%s", event.Endpoint, shortenSessionID(event.SessionID))
}

func typeLabel(event log.Event) string {
	switch {
	case event.Command != nil:
		return event.Command.Kind.String()
	case event.StateChange != nil:
		return "State"
	case event.Scan != nil:
		return "Scan"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatCommandDetails(w io.Writer, cmd *log.CommandEvent) {
	if len(cmd.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s\n", string(cmd.Data))
	}
	if cmd.Dropped {
		fmt.Fprintf(w, "  Dropped: %s\n", cmd.Reason)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatScanDetails(w io.Writer, scan *log.ScanEvent) {
	fmt.Fprintf(w, "  Action: %s\n", scan.Action)
	if scan.Action == log.ScanResult || scan.Action == log.ScanPaired {
		fmt.Fprintf(w, "  Allowed: %t\n", scan.Allowed)
	}
	if scan.Found > 0 {
		fmt.Fprintf(w, "  Found: %d\n", scan.Found)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: 0x%02X\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "radio":
		return log.LayerRadio, nil
	case "link":
		return log.LayerLink, nil
	case "light":
		return log.LayerLight, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be radio, link, or light)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "command":
		return log.CategoryCommand, nil
	case "scan":
		return log.CategoryScan, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be command, scan, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}

	return nil
}

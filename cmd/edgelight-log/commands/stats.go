package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/edgelight/edgelight-go/pkg/connection"
	"github.com/edgelight/edgelight-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Endpoints         map[int]*EndpointStats
	Scans             int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// EndpointStats holds statistics for a single endpoint.
type EndpointStats struct {
	Address   string
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Sessions  map[string]struct{}
	Commands  int
	Dropped   int
	Connects  int
	Errors    int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Endpoints:         make(map[int]*EndpointStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Scan != nil && event.Scan.Action == log.ScanStart {
			stats.Scans++
		}
		if event.Error != nil {
			stats.Errors++
		}

		if event.Endpoint == log.NoEndpoint {
			continue
		}
		ep, ok := stats.Endpoints[event.Endpoint]
		if !ok {
			ep = &EndpointStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				Sessions:  make(map[string]struct{}),
			}
			stats.Endpoints[event.Endpoint] = ep
		}
		ep.Events++
		if event.Timestamp.After(ep.LastSeen) {
			ep.LastSeen = event.Timestamp
		}
		if ep.Address == "" {
			ep.Address = event.Address
		}
		if event.SessionID != "" {
			ep.Sessions[event.SessionID] = struct{}{}
		}
		switch {
		case event.Command != nil && event.Command.Dropped:
			ep.Dropped++
		case event.Command != nil:
			ep.Commands++
		case event.StateChange != nil && event.StateChange.Entity == log.StateEntityEndpoint &&
			event.StateChange.NewState == connection.StateConnected.String():
			ep.Connects++
		case event.Error != nil:
			ep.Errors++
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Edge Light Radio Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerRadio, log.LayerLink, log.LayerLight} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryCommand, log.CategoryScan, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Scans: %d\n", stats.Scans)
	fmt.Fprintf(w, "Endpoints: %d\n", len(stats.Endpoints))
	if len(stats.Endpoints) > 0 {
		indices := make([]int, 0, len(stats.Endpoints))
		for i := range stats.Endpoints {
			indices = append(indices, i)
		}
		sort.Ints(indices)

		fmt.Fprintln(w)
		for _, i := range indices {
			ep := stats.Endpoints[i]
			fmt.Fprintf(w, "  [%d] %s %d events, %d sessions, %d connects\n",
				i, ep.Address, ep.Events, len(ep.Sessions), ep.Connects)
			fmt.Fprintf(w, "      Commands: %d sent, %d dropped\n", ep.Commands, ep.Dropped)
			if ep.Errors > 0 {
				fmt.Fprintf(w, "      Errors: %d\n", ep.Errors)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

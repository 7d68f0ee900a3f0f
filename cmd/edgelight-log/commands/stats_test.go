package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelight/edgelight-go/pkg/log"
)

func TestStatsCountsPerEndpoint(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	dropped := commandEvent(ts.Add(3*time.Second), 0, "sess-2", "$GON?")
	dropped.Layer = log.LayerLight
	dropped.Command.Dropped = true
	dropped.Command.Reason = "not connected"

	events := []log.Event{
		{
			Timestamp: ts,
			Layer:     log.LayerRadio,
			Category:  log.CategoryScan,
			Endpoint:  log.NoEndpoint,
			Scan:      &log.ScanEvent{Action: log.ScanStart},
		},
		{
			Timestamp:   ts.Add(time.Second),
			SessionID:   "sess-1",
			Layer:       log.LayerLink,
			Category:    log.CategoryState,
			Endpoint:    0,
			Address:     "08:7C:BE:2E:EF:82",
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityEndpoint, OldState: "CONNECTING", NewState: "CONNECTED"},
		},
		commandEvent(ts.Add(2*time.Second), 0, "sess-1", "$COL,1,2,3?"),
		dropped,
		{
			Timestamp: ts.Add(4 * time.Second),
			Layer:     log.LayerLink,
			Category:  log.CategoryError,
			Endpoint:  1,
			Error:     &log.ErrorEventData{Layer: log.LayerLink, Message: "write failed"},
		},
	}
	path := createTestLogFile(t, events)

	stats, err := collectStats(path)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalEvents)
	assert.Equal(t, 1, stats.Scans)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 4*time.Second, stats.TimeRange.End.Sub(stats.TimeRange.Start))
	require.Len(t, stats.Endpoints, 2)

	ep0 := stats.Endpoints[0]
	assert.Equal(t, "08:7C:BE:2E:EF:82", ep0.Address)
	assert.Equal(t, 1, ep0.Connects)
	assert.Equal(t, 1, ep0.Commands)
	assert.Equal(t, 1, ep0.Dropped)
	assert.Len(t, ep0.Sessions, 2)
	assert.Equal(t, 1, stats.Endpoints[1].Errors)
}

func TestRunStatsPrintsSummary(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		commandEvent(ts, 0, "sess-1", "$GON?"),
		commandEvent(ts.Add(time.Minute), 1, "sess-2", "$GOF?"),
	})

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, &buf))
	out := buf.String()

	assert.True(t, strings.Contains(out, "Total Events: 2"), out)
	assert.True(t, strings.Contains(out, "Endpoints: 2"), out)
	assert.True(t, strings.Contains(out, "Duration:   1m0s"), out)
	assert.True(t, strings.Contains(out, "COMMAND:"), out)
}

package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelight/edgelight-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var out []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, event)
	}
}

func TestFilterBySessionID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		commandEvent(ts, 0, "sess-1", "$GON?"),
		commandEvent(ts, 1, "sess-2", "$GON?"),
		commandEvent(ts, 0, "sess-1", "$GOF?"),
	})
	outPath := filepath.Join(t.TempDir(), "filtered.elog")

	n, err := RunFilter(path, FilterOptions{Output: outPath, SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, e := range readAll(t, outPath) {
		assert.Equal(t, "sess-1", e.SessionID)
	}
}

func TestFilterByEndpoint(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		commandEvent(ts, 0, "", "$GON?"),
		commandEvent(ts, 3, "", "$GON?"),
	})
	outPath := filepath.Join(t.TempDir(), "filtered.elog")

	n, err := RunFilter(path, FilterOptions{Output: outPath, Endpoint: "3"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	events := readAll(t, outPath)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Endpoint)
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		commandEvent(base, 0, "", "$GON?"),
		commandEvent(base.Add(time.Hour), 0, "", "$GOF?"),
		commandEvent(base.Add(2*time.Hour), 0, "", "$GON?"),
	})
	outPath := filepath.Join(t.TempDir(), "filtered.elog")

	n, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: base.Add(30 * time.Minute).Format(time.RFC3339),
		TimeEnd:   base.Add(90 * time.Minute).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events := readAll(t, outPath)
	require.Len(t, events, 1)
	assert.Equal(t, "$GOF?", string(events[0].Command.Data))
}

func TestFilterRejectsBadOptions(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{commandEvent(ts, 0, "", "$GON?")})
	out := filepath.Join(t.TempDir(), "filtered.elog")

	for name, opts := range map[string]FilterOptions{
		"endpoint":   {Output: out, Endpoint: "left"},
		"time-start": {Output: out, TimeStart: "yesterday"},
		"layer":      {Output: out, Layer: "wire"},
		"direction":  {Output: out, Direction: "up"},
		"category":   {Output: out, Category: "message"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := RunFilter(path, opts)
			assert.Error(t, err)
		})
	}
}

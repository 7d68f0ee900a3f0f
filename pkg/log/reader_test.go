package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.elog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, path string, f Filter) []Event {
	t.Helper()
	reader, err := NewFilteredReader(path, f)
	require.NoError(t, err)
	defer reader.Close()

	var out []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, event)
	}
}

func sampleEvents(base time.Time) []Event {
	return []Event{
		{Timestamp: base, Endpoint: NoEndpoint, Layer: LayerRadio, Category: CategoryScan,
			Scan: &ScanEvent{Action: ScanStart}},
		{Timestamp: base.Add(time.Second), Endpoint: 0, Address: "08:7C:BE:2E:EF:82", SessionID: "s-0",
			Direction: DirectionIn, Layer: LayerLink, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityEndpoint, OldState: "DISCOVERED", NewState: "CONNECTING"}},
		{Timestamp: base.Add(2 * time.Second), Endpoint: 1, Address: "08:7C:BE:2F:A2:49", SessionID: "s-1",
			Direction: DirectionOut, Layer: LayerLight, Category: CategoryCommand,
			Command: &CommandEvent{Data: []byte("$GON?")}},
		{Timestamp: base.Add(3 * time.Second), Endpoint: 0, Address: "08:7C:BE:2E:EF:82", SessionID: "s-0",
			Direction: DirectionIn, Layer: LayerLink, Category: CategoryError,
			Error: &ErrorEventData{Message: "boom"}},
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleEvents(base))

	events := readAll(t, path, Filter{})
	require.Len(t, events, 4)
	assert.Equal(t, CategoryScan, events[0].Category)
	assert.Equal(t, "s-1", events[2].SessionID)
	assert.Equal(t, "boom", events[3].Error.Message)
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleEvents(base))

	zero := 0
	out := DirectionOut
	link := LayerLink
	errCat := CategoryError
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionID: "s-0"}, 2},
		{"endpoint", Filter{Endpoint: &zero}, 2},
		{"address case-insensitive", Filter{Address: "08:7c:be:2f:a2:49"}, 1},
		{"direction", Filter{Direction: &out}, 1},
		{"layer", Filter{Layer: &link}, 2},
		{"category", Filter{Category: &errCat}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{SessionID: "s-0", Category: &errCat}, 1},
		{"no match", Filter{SessionID: "nope"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, readAll(t, path, tt.filter), tt.want)
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.elog"))
	assert.Error(t, err)
}

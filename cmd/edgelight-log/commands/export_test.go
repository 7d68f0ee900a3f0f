package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edgelight/edgelight-go/pkg/log"
	"github.com/edgelight/edgelight-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.elog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func commandEvent(ts time.Time, ep int, session string, data string) log.Event {
	cmd, _ := wire.Decode([]byte(data))
	return log.Event{
		Timestamp: ts,
		SessionID: session,
		Direction: log.DirectionOut,
		Layer:     log.LayerLink,
		Category:  log.CategoryCommand,
		Endpoint:  ep,
		Address:   "08:7C:BE:2E:EF:82",
		Command:   &log.CommandEvent{Kind: cmd.Kind, Data: []byte(data)},
	}
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		commandEvent(ts, 0, "abc12345", "$COL,255,0,0?"),
		commandEvent(ts.Add(time.Second), 1, "def67890", "$BRI,50,50?"),
	}
	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var event1 map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event1); err != nil {
		t.Fatalf("failed to parse line 1: %v", err)
	}
	if event1["SessionID"] != "abc12345" {
		t.Errorf("expected SessionID abc12345, got %v", event1["SessionID"])
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{commandEvent(ts, 2, "abc12345", "$GON?")})

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + data row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,session_id,endpoint,address") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
	if !strings.Contains(lines[1], ",2,08:7C:BE:2E:EF:82,OUT,LINK,COMMAND,ON_OFF,$GON?") {
		t.Errorf("unexpected CSV row: %s", lines[1])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{commandEvent(ts, 0, "", "$GOF?")})

	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected 'unknown format' error, got: %v", err)
	}
}

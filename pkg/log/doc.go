// Package log records radio events for the fixture link.
//
// This package defines the Logger interface and Event types for capturing
// what happened on the radio: scans, link state changes, command writes and
// errors. It is separate from operational logging (slog). The event log is a
// machine-readable trace that can be inspected after the fact with the
// edgelight-log tool.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLog = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file
//	cfg.EventLog, _ = log.NewFileLogger("/var/log/edgelight/radio.elog")
//
//	// Both
//	cfg.EventLog = log.Tee(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys. Every
// record is checked with Event.Validate on write and on read, so a file
// only ever holds scan, state, command and error events with the payload
// their category names.
package log

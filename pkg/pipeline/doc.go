// Package pipeline owns one running lighting installation.
//
// A Context is created with New, started with Start and torn down with
// Close. It wires the parts together:
//
//	frame -> color extractor -> temporal smoother -> outputs
//	                                                  |
//	                            LEDOutput -> light controller -> connection manager -> radio
//
// Submit never blocks on the radio. Extraction and smoothing run on the
// caller's goroutine; the light controller queues commands for its own
// sender goroutine.
//
// Outputs are a closed set: LEDOutput drives the fixtures and DebugOutput
// renders color swatches to a terminal.
package pipeline

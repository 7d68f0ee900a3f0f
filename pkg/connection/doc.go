// Package connection manages the links to a fixed set of fixtures.
//
// A Manager owns one endpoint per configured address. It discovers the
// endpoints (paired devices first, then an active scan), connects them,
// watches for links stuck in connecting, and recovers from disconnects and
// GATT errors with fixed retry delays.
//
// # Endpoint States
//
//	ABSENT -> DISCOVERED -> CONNECTING -> CONNECTED
//	                             ^             |
//	                             |             v
//	                             +------ DISCONNECTED
//
// # Timing
//
//   - Scan stops after 15s; when nothing was found it restarts after 45s.
//   - The watchdog runs every 8s. It restarts discovery while endpoints are
//     missing and force-closes links connecting for more than 16s.
//   - A dropped link is retried after 0.5s, a GATT error after 1s.
//
// # Concurrency
//
// Every state transition runs on one coordination goroutine. Radio
// callbacks, timers and public requests are queued to it as closures.
// Event callbacks run on that goroutine and must not call Send, Flush or
// Close.
package connection

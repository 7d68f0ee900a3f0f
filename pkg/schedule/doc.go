// Package schedule manages named, independently cancelable delayed tasks.
//
// Tasks are keyed by (endpoint, Purpose). Scheduling a task replaces any
// pending task with the same key; there is no stacking. Cancelling one
// purpose never touches another, so clearing a pending reconnect leaves
// the watchdog and the replay timers alone.
//
// # Purposes
//
//   - ScanStop: ends an active discovery scan
//   - ScanRestart: restarts discovery after an empty scan
//   - Reconnect: retries a connection for one endpoint
//   - Watchdog: periodic health check of all endpoints
//   - Replay: re-sends the last applied command after a reconnect
//
// Manager-wide tasks (scan, watchdog) use the endpoint index Global.
//
// # Shutdown
//
// CancelAll stops every pending task. Tasks that were already firing when
// CancelAll ran are still dropped: each firing re-checks that it is the
// task currently registered under its key before calling back.
package schedule

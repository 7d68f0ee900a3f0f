// Package persistence stores the last applied light state between runs.
//
// The state file is JSON. It records, per fixture, the last color,
// brightness and on/off state so a restarted host can replay it once the
// fixtures reconnect.
package persistence

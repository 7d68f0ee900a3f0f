// Package config loads the host configuration.
//
// A YAML file supplies every setting; command-line flags override single
// values after loading. Default returns a configuration that drives the
// double-two preset with the reference timings.
//
// Example file:
//
//	preset: quad-one
//	method: dominant
//	smoothing:
//	  frequency: 5
//	  buffered_time: 400ms
//	light:
//	  white_balance: {r: 1.0, g: 0.9, b: 0.75}
//	connection:
//	  scan_timeout: 15s
//	event_log: /var/log/edgelight/radio.cbor
//	state_file: /var/lib/edgelight/state.json
package config

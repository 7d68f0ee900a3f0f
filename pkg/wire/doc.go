// Package wire encodes the fixture command protocol.
//
// Every command is a short ASCII string written as one GATT characteristic
// write:
//
//	$COL,<r>,<g>,<b>?   set color, each channel 0-255
//	$BRI,<v>,<v>?       set brightness, 0-100 (value repeated)
//	$GON?               switch on
//	$GOF?               switch off
//
// No command exceeds MaxCommandSize bytes, so a write never needs to be
// split across packets.
package wire

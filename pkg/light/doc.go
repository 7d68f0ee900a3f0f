// Package light turns zone colors into fixture commands.
//
// A Controller maps one color per zone (or one color for all zones) to
// wire commands, applies white balance, and tracks the last state applied
// to every endpoint so it can be replayed after a reconnect. Commands are
// written by a single background worker from a bounded queue that drops
// the oldest entry when full.
//
// Two enable flags gate the inputs. Pipeline updates are honored while the
// pipeline flag is set; SetColor and SetBrightness only while the external
// flag is set. The fixtures are switched off when both flags are clear.
package light

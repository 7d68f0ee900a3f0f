// Package zone maps screen regions to light fixtures.
//
// A Layout divides a fixed sample grid into 2 or 4 edge zones, each a
// BorderWidth-wide column strip:
//
//	2 zones: left column, right column (full height)
//	4 zones: left lower half, left upper half, right upper half,
//	         right lower half
//
// A Preset picks the zone count and the fixture address bound to each
// zone index. Zone count always equals the number of addresses.
//
// The [Manager] tracks per-zone link status and notifies listeners when a
// zone's fixture connects or drops.
package zone

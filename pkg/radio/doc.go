// Package radio abstracts the short-range radio used to reach the fixtures.
//
// A Radio enumerates paired devices, runs scans and opens Links. A Link is
// one GATT connection to one fixture: it reports link-layer state changes
// and service discovery through LinkEvents, accepts command writes, and can
// be force-forgotten so the platform drops any cached GATT state for the
// device.
//
// Callbacks may arrive on any goroutine. Consumers are expected to hand
// them off to their own serialized context.
package radio

package radio

import (
	"errors"
	"fmt"
)

// Radio errors.
var (
	// ErrUnavailable is returned when there is no adapter or it is disabled.
	ErrUnavailable = errors.New("radio unavailable")

	// ErrScanFailed is returned when a scan could not be started.
	ErrScanFailed = errors.New("scan failed")

	// ErrConnectTimeout is reported when a link stays in connecting too long.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrProtocol is the parent of every GATT-level error.
	ErrProtocol = errors.New("protocol error")

	// ErrNotConnected is returned when writing to a link that is not up.
	ErrNotConnected = errors.New("not connected")

	// ErrLinkClosed is returned when using a closed link.
	ErrLinkClosed = errors.New("link closed")
)

// GATT status codes.
const (
	StatusSuccess = 0x00

	// StatusGATTError is the generic GATT failure reported by most stacks
	// when a connection attempt or an established link fails.
	StatusGATTError = 0x85
)

// StatusError is a GATT operation that completed with a non-success status.
type StatusError struct {
	Op   string
	Code int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: gatt status 0x%02x", e.Op, e.Code)
}

// Unwrap makes every StatusError match ErrProtocol.
func (e *StatusError) Unwrap() error {
	return ErrProtocol
}

// StatusCode returns the GATT status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// LinkState is the link-layer connection state.
type LinkState uint8

const (
	// LinkDisconnected indicates no link.
	LinkDisconnected LinkState = iota

	// LinkConnecting indicates a connection attempt is in progress.
	LinkConnecting

	// LinkConnected indicates the link layer is up.
	LinkConnected

	// LinkDisconnecting indicates the link is being torn down.
	LinkDisconnecting
)

// String returns the link state name.
func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "DISCONNECTED"
	case LinkConnecting:
		return "CONNECTING"
	case LinkConnected:
		return "CONNECTED"
	case LinkDisconnecting:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// LinkEvents receives callbacks for one link.
type LinkEvents struct {
	// OnStateChange is called when the link-layer state changes. A
	// non-success status reports a failed transition.
	OnStateChange func(status int, state LinkState)

	// OnServicesDiscovered is called when service discovery completes.
	OnServicesDiscovered func(status int)
}

// Radio is the adapter.
type Radio interface {
	// Available returns ErrUnavailable when the adapter is missing or off.
	Available() error

	// Paired returns the addresses of devices already bonded to the host.
	Paired() ([]string, error)

	// StartScan starts an active scan. onResult is called for every
	// advertisement seen until StopScan.
	StartScan(onResult func(address string)) error

	// StopScan stops a running scan. Stopping an idle scanner is a no-op.
	StopScan() error

	// Connect starts connecting to address and returns the new link.
	// Progress is reported through events.
	Connect(address string, events LinkEvents) (Link, error)
}

// Link is one connection to one fixture.
type Link interface {
	// Address returns the fixture address.
	Address() string

	// DiscoverServices requests GATT service discovery. Completion is
	// reported through LinkEvents.OnServicesDiscovered.
	DiscoverServices() error

	// Write writes one command to the fixture's control characteristic.
	Write(data []byte) error

	// Disconnect tears down the link layer.
	Disconnect() error

	// Close releases the link. A closed link delivers no more events.
	Close() error

	// ForceForget drops any cached GATT state for the device so the next
	// connection starts clean.
	ForceForget() error
}

// Unavailable returns a Radio with no adapter. Every operation fails with
// an error wrapping ErrUnavailable and cause.
func Unavailable(cause error) Radio {
	return unavailable{cause: cause}
}

type unavailable struct {
	cause error
}

func (u unavailable) err() error {
	if u.cause == nil {
		return ErrUnavailable
	}
	if errors.Is(u.cause, ErrUnavailable) {
		return u.cause
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}

func (u unavailable) Available() error             { return u.err() }
func (u unavailable) Paired() ([]string, error)    { return nil, u.err() }
func (u unavailable) StartScan(func(string)) error { return u.err() }
func (u unavailable) StopScan() error              { return nil }
func (u unavailable) Connect(string, LinkEvents) (Link, error) {
	return nil, u.err()
}

package connection

import "time"

// State is an endpoint's connection state.
type State uint8

const (
	// StateAbsent indicates the endpoint has not been seen yet.
	StateAbsent State = iota

	// StateDiscovered indicates the endpoint was found but never connected.
	StateDiscovered

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates services were discovered and the link is usable.
	StateConnected

	// StateDisconnected indicates the link was lost or torn down.
	StateDisconnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "ABSENT"
	case StateDiscovered:
		return "DISCOVERED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// discovered reports whether the endpoint has left the pre-discovery state.
func (s State) discovered() bool {
	return s != StateAbsent
}

// EndpointStatus is a snapshot of one endpoint.
type EndpointStatus struct {
	Index           int
	Address         string
	State           State
	ConnectingSince time.Time
	SessionID       string
}

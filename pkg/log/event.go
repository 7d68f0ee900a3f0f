package log

import (
	"time"

	"github.com/edgelight/edgelight-go/pkg/wire"
)

// Event is one radio log record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one link session (UUID). Empty for
	// adapter-wide events such as scans.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow relative to the host.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Endpoint is the endpoint index, or -1 for adapter-wide events.
	Endpoint int `cbor:"6,keyasint"`

	// Address is the fixture radio address.
	Address string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Command     *CommandEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Scan        *ScanEvent        `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// NoEndpoint marks events that are not tied to one endpoint.
const NoEndpoint = -1

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates a callback from the radio.
	DirectionIn Direction = 0
	// DirectionOut indicates a request to the radio.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerRadio is the adapter (scan, pairing).
	LayerRadio Layer = 0
	// LayerLink is a single fixture link.
	LayerLink Layer = 1
	// LayerLight is the command sender.
	LayerLight Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerRadio:
		return "RADIO"
	case LayerLink:
		return "LINK"
	case LayerLight:
		return "LIGHT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a wire command.
	CategoryCommand Category = 0
	// CategoryScan indicates scan activity.
	CategoryScan Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryScan:
		return "SCAN"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent captures one command write.
type CommandEvent struct {
	// Kind is the decoded command kind.
	Kind wire.Kind `cbor:"1,keyasint"`

	// Data is the encoded command.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Dropped is set when the command was not written.
	Dropped bool `cbor:"3,keyasint,omitempty"`

	// Reason explains a dropped command.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures endpoint and manager lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityEndpoint indicates an endpoint state change.
	StateEntityEndpoint StateEntity = 0
	// StateEntityLink indicates a raw link state callback.
	StateEntityLink StateEntity = 1
	// StateEntityManager indicates a connection manager lifecycle change.
	StateEntityManager StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityEndpoint:
		return "ENDPOINT"
	case StateEntityLink:
		return "LINK"
	case StateEntityManager:
		return "MANAGER"
	default:
		return "UNKNOWN"
	}
}

// ScanEvent captures scan activity.
type ScanEvent struct {
	// Action is what happened.
	Action ScanAction `cbor:"1,keyasint"`

	// Allowed reports whether a result matched the allow-list.
	Allowed bool `cbor:"2,keyasint,omitempty"`

	// Found is the number of endpoints discovered so far.
	Found int `cbor:"3,keyasint,omitempty"`
}

// ScanAction indicates the type of scan event.
type ScanAction uint8

const (
	// ScanStart indicates a scan was started.
	ScanStart ScanAction = 0
	// ScanStop indicates a scan was stopped.
	ScanStop ScanAction = 1
	// ScanResult indicates an advertisement was seen.
	ScanResult ScanAction = 2
	// ScanPaired indicates an already-paired device was found.
	ScanPaired ScanAction = 3
)

// String returns the scan action name.
func (a ScanAction) String() string {
	switch a {
	case ScanStart:
		return "START"
	case ScanStop:
		return "STOP"
	case ScanResult:
		return "RESULT"
	case ScanPaired:
		return "PAIRED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the GATT status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

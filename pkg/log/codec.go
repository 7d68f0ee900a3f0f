package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ErrInvalidEvent is returned for events whose layer, category or payload
// do not describe a radio event.
var ErrInvalidEvent = errors.New("invalid radio event")

var (
	eventEncMode cbor.EncMode
	eventDecMode cbor.DecMode
)

func init() {
	var err error
	eventEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("radio event encoder: %v", err))
	}

	eventDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("radio event decoder: %v", err))
	}
}

// Validate checks that an event is one the radio stack can produce: a
// known direction, layer and category, an endpoint index or NoEndpoint,
// and exactly the payload its category calls for.
func (e Event) Validate() error {
	if e.Direction > DirectionOut {
		return fmt.Errorf("%w: direction %d", ErrInvalidEvent, e.Direction)
	}
	if e.Layer > LayerLight {
		return fmt.Errorf("%w: layer %d", ErrInvalidEvent, e.Layer)
	}
	if e.Endpoint < NoEndpoint {
		return fmt.Errorf("%w: endpoint %d", ErrInvalidEvent, e.Endpoint)
	}

	payloads := 0
	for _, set := range []bool{e.Command != nil, e.StateChange != nil, e.Scan != nil, e.Error != nil} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return fmt.Errorf("%w: %d payloads", ErrInvalidEvent, payloads)
	}

	var ok bool
	switch e.Category {
	case CategoryCommand:
		ok = e.Command != nil
	case CategoryScan:
		// Scans belong to the adapter.
		ok = e.Scan != nil && e.Layer == LayerRadio
	case CategoryState:
		ok = e.StateChange != nil
	case CategoryError:
		ok = e.Error != nil
	default:
		return fmt.Errorf("%w: category %d", ErrInvalidEvent, e.Category)
	}
	if !ok {
		return fmt.Errorf("%w: %s event on %s layer with wrong payload", ErrInvalidEvent, e.Category, e.Layer)
	}
	return nil
}

// EncodeEvent validates and encodes one event.
func EncodeEvent(event Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return eventEncMode.Marshal(event)
}

// DecodeEvent decodes and validates one event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// eventDecoder reads a stream of events and validates each record.
type eventDecoder struct {
	dec    *cbor.Decoder
	record int
}

func newEventDecoder(r io.Reader) *eventDecoder {
	return &eventDecoder{dec: eventDecMode.NewDecoder(r)}
}

// next returns io.EOF at a clean end of stream.
func (d *eventDecoder) next() (Event, error) {
	var event Event
	if err := d.dec.Decode(&event); err != nil {
		if err == io.EOF {
			return Event{}, io.EOF
		}
		return Event{}, fmt.Errorf("record %d: %w", d.record, err)
	}
	d.record++
	if err := event.Validate(); err != nil {
		return Event{}, fmt.Errorf("record %d: %w", d.record-1, err)
	}
	return event, nil
}

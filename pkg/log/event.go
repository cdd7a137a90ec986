package log

import (
	"time"
)

// MaxFramePayloadCapture is the largest frame payload recorded in an
// event. Longer payloads are truncated; the full size stays in
// PayloadSize.
const MaxFramePayloadCapture = 512

// Event represents a protocol event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the lookup or session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port), when known.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// StationSN is the serial of the station involved, when known.
	StationSN string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (exactly one is set).
	Frame       *FrameEvent       `cbor:"8,keyasint,omitempty"`  // Transport layer
	Lookup      *LookupEvent      `cbor:"9,keyasint,omitempty"`  // Discovery layer
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"` // Session state
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
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

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the frame codec layer (raw datagrams).
	LayerTransport Layer = 0
	// LayerDiscovery is the address lookup layer.
	LayerDiscovery Layer = 1
	// LayerSession is the device session layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerDiscovery:
		return "DISCOVERY"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a frame on the wire.
	CategoryFrame Category = 0
	// CategoryLookup indicates a discovery lookup result.
	CategoryLookup Category = 1
	// CategoryState indicates a session state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryLookup:
		return "LOOKUP"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one frame at the transport layer.
type FrameEvent struct {
	// Type is the 16-bit frame type code.
	Type uint16 `cbor:"1,keyasint" json:"type"`

	// PayloadSize is the full payload size in bytes.
	PayloadSize int `cbor:"2,keyasint" json:"payload_size"`

	// Payload is the payload, truncated to MaxFramePayloadCapture.
	Payload []byte `cbor:"3,keyasint,omitempty" json:"payload,omitempty"`

	// Truncated is set when Payload was cut short.
	Truncated bool `cbor:"4,keyasint,omitempty" json:"truncated,omitempty"`
}

// NewFrameEvent builds a FrameEvent, truncating oversized payloads.
func NewFrameEvent(frameType uint16, payload []byte) *FrameEvent {
	ev := &FrameEvent{
		Type:        frameType,
		PayloadSize: len(payload),
	}
	if len(payload) > MaxFramePayloadCapture {
		ev.Payload = append([]byte(nil), payload[:MaxFramePayloadCapture]...)
		ev.Truncated = true
	} else if len(payload) > 0 {
		ev.Payload = append([]byte(nil), payload...)
	}
	return ev
}

// LookupEvent captures the completion of a discovery lookup.
type LookupEvent struct {
	// DID is the queried P2P-DID (empty for local lookups).
	DID string `cbor:"1,keyasint,omitempty" json:"did,omitempty"`

	// Mode is "relay" or "local".
	Mode string `cbor:"2,keyasint" json:"mode"`

	// Candidates are the resolved addresses, in arrival order.
	Candidates []string `cbor:"3,keyasint,omitempty" json:"candidates,omitempty"`

	// TimedOut is set when the lookup completed via timeout rather
	// than the response cap. A timed-out lookup is a valid outcome.
	TimedOut bool `cbor:"4,keyasint,omitempty" json:"timed_out,omitempty"`

	// ElapsedMS is the lookup duration in milliseconds.
	ElapsedMS int64 `cbor:"5,keyasint" json:"elapsed_ms"`
}

// StateChangeEvent captures a session state transition.
type StateChangeEvent struct {
	// From is the previous state name.
	From string `cbor:"1,keyasint" json:"from"`

	// To is the new state name.
	To string `cbor:"2,keyasint" json:"to"`

	// Reason optionally describes what triggered the transition.
	Reason string `cbor:"3,keyasint,omitempty" json:"reason,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint" json:"message"`
}

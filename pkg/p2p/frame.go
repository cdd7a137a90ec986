package p2p

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Framing constants.
const (
	// HeaderSize is the size of the frame header (type + length) in bytes.
	HeaderSize = 4

	// MaxPayloadSize is the largest payload a frame can carry.
	// The length field is an unsigned 16-bit integer.
	MaxPayloadSize = 65535
)

// Framing errors.
var (
	// ErrPayloadTooLarge indicates the payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum frame size")

	// ErrFrameTruncated indicates the datagram is shorter than a frame header.
	ErrFrameTruncated = errors.New("datagram shorter than frame header")

	// ErrUnknownResponseType indicates a response type code outside the
	// known set. Unrecognized codes are a protocol error.
	ErrUnknownResponseType = errors.New("unknown response type code")
)

// RequestType identifies an outbound message to a station or the relay.
type RequestType uint16

const (
	// RequestLookupWithKey asks the rendezvous relay for the reachable
	// addresses of a device identified by its P2P-DID.
	RequestLookupWithKey RequestType = 0xF126

	// RequestLocalLookup probes the local network segment for a station
	// without relay involvement.
	RequestLocalLookup RequestType = 0xF130

	// RequestCheckCam carries the session authentication exchange.
	RequestCheckCam RequestType = 0xF141

	// RequestData carries a control command over an established session.
	RequestData RequestType = 0xF1D0
)

// String returns the request type name.
func (t RequestType) String() string {
	switch t {
	case RequestLookupWithKey:
		return "LOOKUP_WITH_KEY"
	case RequestLocalLookup:
		return "LOCAL_LOOKUP"
	case RequestCheckCam:
		return "CHECK_CAM"
	case RequestData:
		return "DATA"
	default:
		return fmt.Sprintf("REQUEST(0x%04X)", uint16(t))
	}
}

// ResponseType identifies an inbound message from a station or the relay.
// The set is closed: codes outside it fail decoding with
// ErrUnknownResponseType.
type ResponseType uint16

const (
	// ResponseLookupAddr is the relay's answer to LOOKUP_WITH_KEY. Each
	// response carries one candidate address; a relay may answer twice
	// (LAN-local and WAN address).
	ResponseLookupAddr ResponseType = 0xF121

	// ResponseLocalLookupResp is a station's answer to LOCAL_LOOKUP.
	ResponseLocalLookupResp ResponseType = 0xF141

	// ResponseCamID acknowledges (or rejects) the session authentication
	// exchange.
	ResponseCamID ResponseType = 0xF142
)

// String returns the response type name.
func (t ResponseType) String() string {
	switch t {
	case ResponseLookupAddr:
		return "LOOKUP_ADDR"
	case ResponseLocalLookupResp:
		return "LOCAL_LOOKUP_RESP"
	case ResponseCamID:
		return "CAM_ID"
	default:
		return fmt.Sprintf("RESPONSE(0x%04X)", uint16(t))
	}
}

// IsValid reports whether the code belongs to the closed response set.
func (t ResponseType) IsValid() bool {
	switch t {
	case ResponseLookupAddr, ResponseLocalLookupResp, ResponseCamID:
		return true
	default:
		return false
	}
}

// EncodeFrame builds a datagram carrying one frame of the given type.
// It fails only when the payload exceeds MaxPayloadSize.
func EncodeFrame(t RequestType, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint16(frame[0:2], uint16(t))
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// DecodeFrame splits a datagram into its response type and payload.
//
// The length field is skipped but not checked against the payload size:
// UDP preserves datagram boundaries, so the datagram end is authoritative
// and station firmware is known to be sloppy about the length field.
// Tightening this would reject frames that real hardware sends.
func DecodeFrame(datagram []byte) (ResponseType, []byte, error) {
	if len(datagram) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTruncated, len(datagram))
	}

	t := ResponseType(binary.BigEndian.Uint16(datagram[0:2]))
	if !t.IsValid() {
		return 0, nil, fmt.Errorf("%w: 0x%04X", ErrUnknownResponseType, uint16(t))
	}
	return t, datagram[HeaderSize:], nil
}

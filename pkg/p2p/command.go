package p2p

import (
	"encoding/binary"
)

// CommandType identifies a control command carried in a DATA frame.
// The codes share the numeric space of the vendor's parameter catalog.
type CommandType uint16

const (
	// CmdSetDevsOSD toggles the on-screen display overlay.
	CmdSetDevsOSD CommandType = 1214

	// CmdSetArming sets the station guard mode (arm/disarm/schedule).
	CmdSetArming CommandType = 1224

	// CmdSetFloodlightManualSwitch switches a floodlight on or off.
	CmdSetFloodlightManualSwitch CommandType = 1400
)

// String returns the command type name.
func (c CommandType) String() string {
	switch c {
	case CmdSetDevsOSD:
		return "CMD_SET_DEVS_OSD"
	case CmdSetArming:
		return "CMD_SET_ARMING"
	case CmdSetFloodlightManualSwitch:
		return "CMD_SET_FLOODLIGHT_MANUAL_SWITCH"
	default:
		return "CMD_UNKNOWN"
	}
}

// commandHeaderSize is the fixed portion of a command payload:
// command type (2, LE) + channel (1) + reserved (1) + value (4, LE).
const commandHeaderSize = 8

// EncodeCommandPayload serializes a (command, channel, value) tuple into
// the payload of a DATA frame. The optional string argument is appended
// verbatim after the fixed header.
func EncodeCommandPayload(cmd CommandType, channel int, value int32, str string) []byte {
	payload := make([]byte, commandHeaderSize, commandHeaderSize+len(str))
	binary.LittleEndian.PutUint16(payload[0:2], uint16(cmd))
	payload[2] = byte(channel)
	binary.LittleEndian.PutUint32(payload[4:8], uint32(value))
	return append(payload, str...)
}

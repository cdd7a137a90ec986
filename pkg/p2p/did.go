package p2p

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DID errors.
var (
	// ErrInvalidDID indicates a malformed P2P-DID string.
	ErrInvalidDID = errors.New("invalid P2P-DID")
)

// serialBytes is the wire size of the numeric DID segment.
const serialBytes = 5

// maxSerial is the largest value the 5-byte serial segment can encode.
const maxSerial = 1<<(serialBytes*8) - 1

// DID is a device's permanent peer-to-peer identifier. The inventory
// metadata encodes it as three dash-separated components, for example
// "T8010-00000123-ABCDE": an ASCII prefix, a decimal serial and an
// ASCII suffix. On the wire the serial travels as a 5-byte big-endian
// integer between the two ASCII components.
type DID struct {
	Prefix string
	Serial uint64
	Suffix string
}

// ParseDID parses the dash-separated string form of a P2P-DID.
func ParseDID(s string) (DID, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return DID{}, fmt.Errorf("%w: expected 3 dash-separated components, got %d", ErrInvalidDID, len(parts))
	}
	if parts[0] == "" || parts[2] == "" {
		return DID{}, fmt.Errorf("%w: empty component in %q", ErrInvalidDID, s)
	}

	serial, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return DID{}, fmt.Errorf("%w: serial segment %q: %v", ErrInvalidDID, parts[1], err)
	}
	if serial > maxSerial {
		return DID{}, fmt.Errorf("%w: serial %d exceeds 5-byte range", ErrInvalidDID, serial)
	}

	return DID{Prefix: parts[0], Serial: serial, Suffix: parts[2]}, nil
}

// String returns the dash-separated form. The zero padding the vendor
// inventory uses for the serial is not recoverable from the parsed
// value, so the serial is printed unpadded.
func (d DID) String() string {
	return fmt.Sprintf("%s-%d-%s", d.Prefix, d.Serial, d.Suffix)
}

// AppendWire appends the wire encoding of the DID: the prefix bytes,
// the serial as a 5-byte big-endian integer, then the suffix bytes.
func (d DID) AppendWire(dst []byte) []byte {
	dst = append(dst, d.Prefix...)
	for shift := (serialBytes - 1) * 8; shift >= 0; shift -= 8 {
		dst = append(dst, byte(d.Serial>>shift))
	}
	return append(dst, d.Suffix...)
}

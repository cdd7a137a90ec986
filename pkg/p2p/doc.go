// Package p2p defines the binary wire format shared by all UDP exchanges
// with Eufy stations and the rendezvous relay.
//
// Every datagram carries a single frame:
//
//	+----------+----------+------------------+
//	| type (2) | len (2)  | payload (0..64K) |
//	+----------+----------+------------------+
//
// The type code is a big-endian 16-bit message type from the vendor's
// 0xF1xx command space. The length field is a big-endian 16-bit payload
// length; it is written on encode but intentionally not re-validated on
// decode because UDP already delimits the message (see DecodeFrame).
//
// The package also defines the P2P-DID device identifier format and the
// command-type codes carried inside session data frames.
package p2p

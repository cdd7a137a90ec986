// Package session implements the authenticated control channel to one
// station.
//
// A Session owns a single UDP socket bound to one target address and is
// associated with exactly one station serial. Its lifecycle is strictly
// forward: UNCONNECTED -> CONNECTING -> CONNECTED -> CLOSED, with a
// failed handshake going straight from CONNECTING to CLOSED. A session
// is never reusable after Close or a failed Connect; callers open a new
// Session instead.
//
// Commands are fire-and-forget at this layer: SendCommandWithInt and
// SendCommandWithIntString serialize the command into a DATA frame and
// hand it to the socket without waiting for a device acknowledgement.
//
// The vendor's handshake bytes are proprietary, so authentication is a
// pluggable Authenticator strategy; see auth.go.
package session

// Package discovery resolves the reachable address(es) of a station.
//
// Two independent strategies are provided. Relay lookup asks the public
// rendezvous relay for the station's registered addresses using the
// station's P2P-DID and DSK key; the relay may answer with both a
// LAN-local and a WAN address. Local lookup broadcasts a probe on the
// local network segment and takes the first station that answers.
//
// Both lookups own their UDP socket exclusively for the duration of one
// call and release it on every exit path. A lookup completes when its
// response cap is reached or the timeout elapses, whichever happens
// first; completing with zero candidates is a valid outcome ("not
// reachable this way"), not an error. Callers fall back from relay to
// local lookup or surface a connection error themselves.
package discovery

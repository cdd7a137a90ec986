// Package device models the account inventory: cameras, sensors, and
// the stations (home bases) that front them.
//
// Device and Station instances are created and refreshed by the cloud
// client from inventory records; they keep a live view of the record and
// expose typed accessors over it. Control operations go one of two ways:
// parameter updates travel through the cloud Backend, while direct
// commands (guard mode, OSD, floodlight) travel over a local station
// session established via discovery.
//
// Session acquisition follows a scoped policy: an operation that is
// handed a session still valid for the target station uses it and leaves
// it open; otherwise it opens a fresh session for the duration of the
// operation and closes it on the way out, exactly once.
package device

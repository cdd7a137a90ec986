// Package api implements the cloud client: account login, the device
// and station inventory, streaming control, parameter upload, and the
// DSK key retrieval that station sessions need.
//
// The client authenticates with email and password against the
// passport endpoint and attaches the resulting token to every request.
// Tokens are refreshed proactively when their recorded expiry passes
// and reactively on a 401, at most once per request; a second 401 in a
// row surfaces as ErrInvalidCredentials.
//
// The client implements device.Backend, so refreshed Camera, Sensor,
// and Station handles reach the cloud through it.
package api

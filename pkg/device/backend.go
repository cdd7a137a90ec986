package device

import "context"

// Backend is the cloud surface devices need: secrets for session setup,
// streaming control, parameter upload, and station lookup. The api
// package provides the production implementation.
type Backend interface {
	// DSKKey fetches the station's current DSK key.
	DSKKey(ctx context.Context, stationSN string) (string, error)

	// StartStream asks the cloud to start an RTSP stream for the device
	// and returns the stream URL.
	StartStream(ctx context.Context, deviceSN, stationSN string) (string, error)

	// StopStream stops a previously started stream.
	StopStream(ctx context.Context, deviceSN, stationSN string) error

	// UpdateDeviceParams uploads serialized parameter assignments.
	UpdateDeviceParams(ctx context.Context, deviceSN, stationSN string, updates []ParamUpdate) error

	// StationBySerial looks a station up in the refreshed inventory.
	StationBySerial(serial string) (*Station, bool)
}

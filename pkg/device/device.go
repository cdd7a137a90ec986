package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eufy-security/eufy-go/pkg/session"
)

// Device model errors.
var (
	// ErrNoStation indicates the device's station is not in the
	// refreshed inventory.
	ErrNoStation = errors.New("device has no known station")

	// ErrUnsupported indicates the operation does not apply to the
	// device's hardware type.
	ErrUnsupported = errors.New("operation not supported by this device type")
)

// Device is one inventory device. The embedded record is refreshed in
// place by the cloud client; accessors take a snapshot under the lock.
type Device struct {
	backend Backend

	mu  sync.RWMutex
	rec Record
}

// NewDevice creates a device from an inventory record.
func NewDevice(backend Backend, rec Record) *Device {
	return &Device{backend: backend, rec: rec}
}

// UpdateRecord replaces the device's inventory record. The cloud client
// calls this on refresh so existing handles see current values.
func (d *Device) UpdateRecord(rec Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec = rec
}

// Record returns a snapshot of the inventory record.
func (d *Device) Record() Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rec
}

// Serial returns the device serial number.
func (d *Device) Serial() string { return d.Record().Serial }

// Name returns the device name.
func (d *Device) Name() string { return d.Record().Name }

// Model returns the device model.
func (d *Device) Model() string { return d.Record().Model }

// Type returns the hardware type.
func (d *Device) Type() Type { return d.Record().Type }

// StationSerial returns the serial of the station fronting the device.
func (d *Device) StationSerial() string { return d.Record().StationSerial }

// HardwareVersion returns the hardware revision.
func (d *Device) HardwareVersion() string { return d.Record().HardwareVersion }

// SoftwareVersion returns the firmware version.
func (d *Device) SoftwareVersion() string { return d.Record().SoftwareVersion }

// MAC returns the device's WiFi MAC address.
func (d *Device) MAC() string { return d.Record().WiFiMAC }

// LastImageURL returns the URL of the latest thumbnail.
func (d *Device) LastImageURL() string { return d.Record().CoverPath }

// Params returns the device's decoded parameter map.
func (d *Device) Params() Params { return d.Record().ParamMap() }

// UpdateParam sets a single device parameter through the cloud.
func (d *Device) UpdateParam(ctx context.Context, p ParamType, value any) error {
	return d.UpdateParams(ctx, map[ParamType]any{p: value})
}

// UpdateParams sets device parameters through the cloud.
func (d *Device) UpdateParams(ctx context.Context, params map[ParamType]any) error {
	updates := make([]ParamUpdate, 0, len(params))
	for p, v := range params {
		u, err := NewParamUpdate(p, v)
		if err != nil {
			return err
		}
		updates = append(updates, u)
	}
	rec := d.Record()
	return d.backend.UpdateDeviceParams(ctx, rec.Serial, rec.StationSerial, updates)
}

// WithSession runs fn with a session valid for the device's station.
// A caller-supplied session that is still valid for the station is used
// as-is and left open; otherwise a fresh session is opened through the
// station and closed exactly once when fn returns.
func (d *Device) WithSession(ctx context.Context, existing *session.Session, fn func(*session.Session) error) error {
	stationSN := d.StationSerial()
	if existing != nil && existing.ValidFor(stationSN) {
		return fn(existing)
	}

	station, ok := d.backend.StationBySerial(stationSN)
	if !ok {
		return fmt.Errorf("%w: %s (device %s)", ErrNoStation, stationSN, d.Name())
	}
	return station.WithSession(ctx, nil, fn)
}

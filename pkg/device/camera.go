package device

import (
	"context"
	"fmt"

	"github.com/eufy-security/eufy-go/pkg/p2p"
	"github.com/eufy-security/eufy-go/pkg/session"
)

// Camera is a camera-class device (including doorbells and floodlights).
type Camera struct {
	*Device
}

// NewCamera creates a camera from an inventory record.
func NewCamera(backend Backend, rec Record) *Camera {
	return &Camera{Device: NewDevice(backend, rec)}
}

// MotionDetectionEnabled reports whether motion detection is on.
func (c *Camera) MotionDetectionEnabled() bool {
	return c.Params().Bool(ParamDetectSwitch)
}

// StartDetection enables motion detection.
func (c *Camera) StartDetection(ctx context.Context) error {
	return c.UpdateParam(ctx, ParamDetectSwitch, 1)
}

// StopDetection disables motion detection.
func (c *Camera) StopDetection(ctx context.Context) error {
	return c.UpdateParam(ctx, ParamDetectSwitch, 0)
}

// StartStream starts the camera's RTSP stream and returns its URL.
func (c *Camera) StartStream(ctx context.Context) (string, error) {
	rec := c.Record()
	return c.backend.StartStream(ctx, rec.Serial, rec.StationSerial)
}

// StopStream stops the camera's RTSP stream.
func (c *Camera) StopStream(ctx context.Context) error {
	rec := c.Record()
	return c.backend.StopStream(ctx, rec.Serial, rec.StationSerial)
}

// osdValue maps the enable flag to the hardware's OSD level. Doorbells
// use a plain on/off switch; floodlights use level 2 for all overlay
// items and level 1 (timestamp without logo) as the off position.
func (c *Camera) osdValue(enable bool) (int32, error) {
	switch t := c.Type(); {
	case t.IsDoorbell():
		if enable {
			return 1, nil
		}
		return 0, nil
	case t == TypeFloodlight:
		if enable {
			return 2, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: OSD control on %s", ErrUnsupported, t)
	}
}

// EnableOSD toggles the on-screen display overlay. Only doorbells and
// floodlights expose OSD control.
func (c *Camera) EnableOSD(ctx context.Context, enable bool, existing *session.Session) error {
	value, err := c.osdValue(enable)
	if err != nil {
		return err
	}
	return c.WithSession(ctx, existing, func(sess *session.Session) error {
		return sess.SendCommandWithIntString(0, p2p.CmdSetDevsOSD, value)
	})
}

// EnableManualLight switches a floodlight's light on or off.
func (c *Camera) EnableManualLight(ctx context.Context, enable bool, existing *session.Session) error {
	if c.Type() != TypeFloodlight {
		return fmt.Errorf("%w: manual light on %s", ErrUnsupported, c.Type())
	}
	value := int32(0)
	if enable {
		value = 1
	}
	return c.WithSession(ctx, existing, func(sess *session.Session) error {
		return sess.SendCommandWithIntString(0, p2p.CmdSetFloodlightManualSwitch, value)
	})
}

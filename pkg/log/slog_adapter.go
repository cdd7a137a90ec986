package log

import (
	"encoding/hex"
	"log/slog"
)

// SlogAdapter forwards protocol events to a slog.Logger for
// human-readable console output during development.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter that logs events at debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the underlying slog.Logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []any{
		"conn", event.ConnectionID,
		"dir", event.Direction.String(),
		"layer", event.Layer.String(),
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, "remote", event.RemoteAddr)
	}
	if event.StationSN != "" {
		attrs = append(attrs, "station", event.StationSN)
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			"frameType", event.Frame.Type,
			"payloadSize", event.Frame.PayloadSize,
			"payload", hex.EncodeToString(event.Frame.Payload))
		a.logger.Debug("frame", attrs...)
	case event.Lookup != nil:
		attrs = append(attrs,
			"mode", event.Lookup.Mode,
			"candidates", event.Lookup.Candidates,
			"timedOut", event.Lookup.TimedOut,
			"elapsedMS", event.Lookup.ElapsedMS)
		a.logger.Debug("lookup", attrs...)
	case event.StateChange != nil:
		attrs = append(attrs,
			"from", event.StateChange.From,
			"to", event.StateChange.To)
		a.logger.Debug("state change", attrs...)
	case event.Error != nil:
		attrs = append(attrs, "error", event.Error.Message)
		a.logger.Debug("protocol error", attrs...)
	default:
		a.logger.Debug("event", attrs...)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)

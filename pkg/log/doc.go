// Package log provides protocol-level event capture for the P2P layers.
//
// Operational logging throughout the library uses log/slog; this package
// instead records raw protocol activity (frames on the wire, discovery
// lookups, session state changes) as structured events. The vendor's
// station firmware is not publicly documented, so frame-level captures
// are the primary debugging tool when a station misbehaves.
//
// # Basic Usage
//
// Components accept a Logger through their configuration:
//
//	// For development: mirror events to console via slog
//	cfg.EventLog = log.NewSlogAdapter(slog.Default())
//
//	// For analysis: write a binary capture file
//	cfg.EventLog, _ = log.NewFileLogger("session.elog")
//
//	// Both at once
//	cfg.EventLog = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: raw frames sent and received (FrameEvent)
//   - Discovery: lookup lifecycle and candidates (LookupEvent)
//   - Session: connection state changes (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Capture files are a plain stream of CBOR-encoded events with integer
// keys. Reader iterates over a capture, optionally filtered.
package log

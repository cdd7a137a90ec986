// Package commands implements the eufy-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/eufy-security/eufy-go/pkg/log"
)

// BuildFilter parses flag strings into a capture filter. Empty strings
// leave the corresponding criterion open.
func BuildFilter(layer, direction, category, connID, stationSN string) (log.Filter, error) {
	filter := log.Filter{ConnectionID: connID, StationSN: stationSN}

	if layer != "" {
		l, err := parseLayer(layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if direction != "" {
		d, err := parseDirection(direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "discovery":
		return log.LayerDiscovery, nil
	case "session":
		return log.LayerSession, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, discovery, or session)", s)
	}
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "lookup":
		return log.CategoryLookup, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, lookup, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, shortenConnID(event.ConnectionID),
		event.Direction, event.Layer, event.Category)

	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}
	if event.StationSN != "" {
		fmt.Fprintf(w, "  Station: %s\n", event.StationSN)
	}

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Lookup != nil:
		formatLookupDetails(w, event.Lookup)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Type: 0x%04X\n", frame.Type)
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.PayloadSize)
	if len(frame.Payload) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Payload))
		if frame.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatLookupDetails(w io.Writer, lookup *log.LookupEvent) {
	fmt.Fprintf(w, "  Mode: %s\n", lookup.Mode)
	if lookup.DID != "" {
		fmt.Fprintf(w, "  DID: %s\n", lookup.DID)
	}
	if len(lookup.Candidates) > 0 {
		fmt.Fprintf(w, "  Candidates: %s\n", strings.Join(lookup.Candidates, ", "))
	} else {
		fmt.Fprintln(w, "  Candidates: none")
	}
	fmt.Fprintf(w, "  Elapsed: %dms", lookup.ElapsedMS)
	if lookup.TimedOut {
		fmt.Fprint(w, " (timed out)")
	}
	fmt.Fprintln(w)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.From != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.From, sc.To)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.To)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/eufy-security/eufy-go/pkg/log"
)

// jsonEvent is the export shape: one flat object per line with the
// enums rendered as names rather than codes.
type jsonEvent struct {
	Timestamp    string                `json:"timestamp"`
	ConnectionID string                `json:"connection_id"`
	Direction    string                `json:"direction"`
	Layer        string                `json:"layer"`
	Category     string                `json:"category"`
	RemoteAddr   string                `json:"remote_addr,omitempty"`
	StationSN    string                `json:"station_sn,omitempty"`
	Frame        *log.FrameEvent       `json:"frame,omitempty"`
	Lookup       *log.LookupEvent      `json:"lookup,omitempty"`
	StateChange  *log.StateChangeEvent `json:"state_change,omitempty"`
	Error        *log.ErrorEventData   `json:"error,omitempty"`
}

// RunExport writes the capture as JSON lines.
func RunExport(path string, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	enc := json.NewEncoder(output)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if err := enc.Encode(jsonEvent{
			Timestamp:    event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
			ConnectionID: event.ConnectionID,
			Direction:    event.Direction.String(),
			Layer:        event.Layer.String(),
			Category:     event.Category.String(),
			RemoteAddr:   event.RemoteAddr,
			StationSN:    event.StationSN,
			Frame:        event.Frame,
			Lookup:       event.Lookup,
			StateChange:  event.StateChange,
			Error:        event.Error,
		}); err != nil {
			return err
		}
	}
}

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/eufy-security/eufy-go/pkg/log"
)

// Stats summarizes a capture file.
type Stats struct {
	Events      int
	In, Out     int
	ByLayer     map[log.Layer]int
	ByCategory  map[log.Category]int
	Connections map[string]struct{}
	FrameBytes  int
	Errors      int
	First, Last time.Time
}

// CollectStats reads the whole capture and accumulates counters.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		ByLayer:     make(map[log.Layer]int),
		ByCategory:  make(map[log.Category]int),
		Connections: make(map[string]struct{}),
	}
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
}

func (s *Stats) add(event log.Event) {
	s.Events++
	if event.Direction == log.DirectionIn {
		s.In++
	} else {
		s.Out++
	}
	s.ByLayer[event.Layer]++
	s.ByCategory[event.Category]++
	if event.ConnectionID != "" {
		s.Connections[event.ConnectionID] = struct{}{}
	}
	if event.Frame != nil {
		s.FrameBytes += event.Frame.PayloadSize
	}
	if event.Error != nil {
		s.Errors++
	}
	if s.First.IsZero() || event.Timestamp.Before(s.First) {
		s.First = event.Timestamp
	}
	if event.Timestamp.After(s.Last) {
		s.Last = event.Timestamp
	}
}

// RunStats executes the stats command.
func RunStats(path string, output io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Events:      %d (%d in, %d out)\n", stats.Events, stats.In, stats.Out)
	fmt.Fprintf(output, "Connections: %d\n", len(stats.Connections))
	fmt.Fprintf(output, "Frame bytes: %d\n", stats.FrameBytes)
	fmt.Fprintf(output, "Errors:      %d\n", stats.Errors)
	if !stats.First.IsZero() {
		fmt.Fprintf(output, "Span:        %s (%s - %s)\n",
			stats.Last.Sub(stats.First).Round(time.Millisecond),
			stats.First.UTC().Format(time.RFC3339),
			stats.Last.UTC().Format(time.RFC3339))
	}

	fmt.Fprintln(output, "\nBy layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerDiscovery, log.LayerSession} {
		if n := stats.ByLayer[layer]; n > 0 {
			fmt.Fprintf(output, "  %-10s %d\n", layer, n)
		}
	}

	fmt.Fprintln(output, "\nBy category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryLookup, log.CategoryState, log.CategoryError} {
		if n := stats.ByCategory[cat]; n > 0 {
			fmt.Fprintf(output, "  %-10s %d\n", cat, n)
		}
	}
	return nil
}

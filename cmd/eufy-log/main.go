// Command eufy-log views and analyzes protocol capture files.
//
// Capture files are created by eufy-ctl with the -event-log flag and
// hold the frames, lookups, and session state changes of every station
// interaction as CBOR events.
//
// Usage:
//
//	eufy-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View a capture in human-readable format
//	export   Export a capture as JSON lines
//	stats    Show statistics about a capture
//
// Examples:
//
//	# View all events
//	eufy-log view events.cbor
//
//	# View only discovery-layer events
//	eufy-log view -layer discovery events.cbor
//
//	# Export to JSONL
//	eufy-log export events.cbor > events.jsonl
//
//	# Show statistics
//	eufy-log stats events.cbor
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/eufy-security/eufy-go/cmd/eufy-log/commands"
)

const usage = `eufy-log - protocol capture analyzer

Usage:
  eufy-log <command> [flags] <file.cbor>

Commands:
  view     View a capture in human-readable format
  export   Export a capture as JSON lines
  stats    Show statistics about a capture

Use "eufy-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	layer := fs.String("layer", "", "Filter by layer: transport, discovery, session")
	direction := fs.String("direction", "", "Filter by direction: in, out")
	category := fs.String("category", "", "Filter by category: frame, lookup, state, error")
	conn := fs.String("conn", "", "Filter by connection ID")
	station := fs.String("station", "", "Filter by station serial")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: eufy-log view [flags] <file.cbor>")
	}

	filter, err := commands.BuildFilter(*layer, *direction, *category, *conn, *station)
	if err != nil {
		return err
	}
	return commands.RunView(fs.Arg(0), filter, os.Stdout)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: eufy-log export <file.cbor>")
	}
	return commands.RunExport(fs.Arg(0), os.Stdout)
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: eufy-log stats <file.cbor>")
	}
	return commands.RunStats(fs.Arg(0), os.Stdout)
}

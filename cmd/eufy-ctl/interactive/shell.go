// Package interactive provides the interactive command-line interface
// for eufy-ctl.
package interactive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/eufy-security/eufy-go/pkg/api"
	"github.com/eufy-security/eufy-go/pkg/device"
)

// Shell handles interactive mode for eufy-ctl.
type Shell struct {
	client *api.Client
	logger *slog.Logger
	rl     *readline.Instance
}

// New creates a new interactive shell.
func New(client *api.Client, logger *slog.Logger) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eufy> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{client: client, logger: logger, rl: rl}, nil
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "devices", "d":
			s.cmdDevices()

		case "stations", "s":
			s.cmdStations()

		case "refresh":
			s.cmdRefresh(ctx)

		case "guard", "g":
			s.cmdGuard(ctx, args)

		case "osd":
			s.cmdOSD(ctx, args)

		case "light":
			s.cmdLight(ctx, args)

		case "detect":
			s.cmdDetect(ctx, args)

		case "stream":
			s.cmdStream(ctx, args)

		case "param", "p":
			s.cmdParam(ctx, args)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Eufy Controller Commands:
  Inventory:
    devices                  - List cameras and sensors
    stations                 - List stations
    refresh                  - Reload the inventory from the cloud

  Stations:
    guard <sn> <mode>        - Set guard mode: away, home, schedule, disarmed

  Cameras:
    osd <sn> on|off          - Toggle the on-screen display overlay
    light <sn> on|off        - Switch a floodlight's light
    detect <sn> on|off       - Toggle motion detection
    stream start|stop <sn>   - Control the RTSP stream

  Parameters:
    param <sn> <type> <val>  - Set an integer device parameter

  General:
    help                     - Show this help
    quit                     - Exit`)
}

// cmdDevices lists cameras and sensors.
func (s *Shell) cmdDevices() {
	cameras := s.client.Cameras()
	sensors := s.client.Sensors()
	if len(cameras) == 0 && len(sensors) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No devices")
		return
	}

	if len(cameras) > 0 {
		fmt.Fprintf(s.rl.Stdout(), "\nCameras (%d):\n", len(cameras))
		fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
		for _, sn := range sortedKeys(cameras) {
			cam := cameras[sn]
			detect := "off"
			if cam.MotionDetectionEnabled() {
				detect = "on"
			}
			fmt.Fprintf(s.rl.Stdout(), "  %s  %-20s %-16s detection: %s\n",
				sn, cam.Name(), cam.Type(), detect)
		}
	}

	if len(sensors) > 0 {
		fmt.Fprintf(s.rl.Stdout(), "\nSensors (%d):\n", len(sensors))
		fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
		for _, sn := range sortedKeys(sensors) {
			sen := sensors[sn]
			state := "closed"
			if sen.Open() {
				state = "open"
			}
			fmt.Fprintf(s.rl.Stdout(), "  %s  %-20s %-16s %s\n",
				sn, sen.Name(), sen.Type(), state)
		}
	}
	fmt.Fprintln(s.rl.Stdout())
}

// cmdStations lists stations.
func (s *Shell) cmdStations() {
	stations := s.client.Stations()
	if len(stations) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No stations")
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "\nStations (%d):\n", len(stations))
	fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
	for _, sn := range sortedKeys(stations) {
		sta := stations[sn]
		fmt.Fprintf(s.rl.Stdout(), "  %s  %-20s %-10s %s\n",
			sn, sta.Name(), sta.Model(), sta.IP())
	}
	fmt.Fprintln(s.rl.Stdout())
}

// cmdRefresh reloads the inventory.
func (s *Shell) cmdRefresh(ctx context.Context) {
	if err := s.client.RefreshDevices(ctx); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Refresh failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Inventory refreshed: %d cameras, %d sensors, %d stations\n",
		len(s.client.Cameras()), len(s.client.Sensors()), len(s.client.Stations()))
}

// cmdGuard sets a station's guard mode.
func (s *Shell) cmdGuard(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: guard <station-sn> <away|home|schedule|disarmed>")
		return
	}

	station, ok := s.client.StationBySerial(args[0])
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "Station not found: %s\n", args[0])
		return
	}

	var mode device.GuardMode
	switch strings.ToLower(args[1]) {
	case "away":
		mode = device.GuardModeAway
	case "home":
		mode = device.GuardModeHome
	case "schedule":
		mode = device.GuardModeSchedule
	case "disarmed":
		mode = device.GuardModeDisarmed
	default:
		fmt.Fprintf(s.rl.Stdout(), "Unknown guard mode: %s\n", args[1])
		return
	}

	if err := station.SetGuardMode(ctx, mode, nil); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to set guard mode: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s set to %s\n", station.Name(), mode)
}

// cmdOSD toggles a camera's OSD overlay.
func (s *Shell) cmdOSD(ctx context.Context, args []string) {
	cam, enable, ok := s.cameraSwitch(args, "osd")
	if !ok {
		return
	}
	if err := cam.EnableOSD(ctx, enable, nil); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to set OSD: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

// cmdLight switches a floodlight.
func (s *Shell) cmdLight(ctx context.Context, args []string) {
	cam, enable, ok := s.cameraSwitch(args, "light")
	if !ok {
		return
	}
	if err := cam.EnableManualLight(ctx, enable, nil); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to switch light: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

// cmdDetect toggles motion detection.
func (s *Shell) cmdDetect(ctx context.Context, args []string) {
	cam, enable, ok := s.cameraSwitch(args, "detect")
	if !ok {
		return
	}
	var err error
	if enable {
		err = cam.StartDetection(ctx)
	} else {
		err = cam.StopDetection(ctx)
	}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to set detection: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

// cmdStream controls a camera's RTSP stream.
func (s *Shell) cmdStream(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: stream start|stop <camera-sn>")
		return
	}

	cam, ok := s.client.Camera(args[1])
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "Camera not found: %s\n", args[1])
		return
	}

	switch strings.ToLower(args[0]) {
	case "start":
		url, err := cam.StartStream(ctx)
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Failed to start stream: %v\n", err)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "Stream URL: %s\n", url)
	case "stop":
		if err := cam.StopStream(ctx); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Failed to stop stream: %v\n", err)
			return
		}
		fmt.Fprintln(s.rl.Stdout(), "Stream stopped")
	default:
		fmt.Fprintf(s.rl.Stdout(), "Unknown stream action: %s\n", args[0])
	}
}

// cmdParam sets an integer device parameter.
func (s *Shell) cmdParam(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: param <camera-sn> <param-type> <int-value>")
		fmt.Fprintln(s.rl.Stdout(), "  Example: param T8113... 2027 1")
		return
	}

	cam, ok := s.client.Camera(args[0])
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "Camera not found: %s\n", args[0])
		return
	}

	paramType, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid param type: %v\n", err)
		return
	}
	value, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid value: %v\n", err)
		return
	}

	if err := cam.UpdateParam(ctx, device.ParamType(paramType), value); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to set param: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

// cameraSwitch parses "<sn> on|off" arguments for camera toggles.
func (s *Shell) cameraSwitch(args []string, cmd string) (*device.Camera, bool, bool) {
	if len(args) < 2 {
		fmt.Fprintf(s.rl.Stdout(), "Usage: %s <camera-sn> on|off\n", cmd)
		return nil, false, false
	}

	cam, ok := s.client.Camera(args[0])
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "Camera not found: %s\n", args[0])
		return nil, false, false
	}

	switch strings.ToLower(args[1]) {
	case "on":
		return cam, true, true
	case "off":
		return cam, false, true
	default:
		fmt.Fprintf(s.rl.Stdout(), "Expected on or off, got %s\n", args[1])
		return nil, false, false
	}
}

// sortedKeys returns map keys in stable order for display.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

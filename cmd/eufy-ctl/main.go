// Command eufy-ctl is an interactive controller for Eufy Security
// accounts: it logs in to the cloud, lists the device inventory, and
// drives stations and cameras over local sessions.
//
// Usage:
//
//	eufy-ctl [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-email string      Account email
//	-password string   Account password
//	-base-url string   API base URL override
//	-relay string      Rendezvous relay address (host:port)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Protocol event capture file (CBOR)
//
// Examples:
//
//	# Log in with explicit credentials
//	eufy-ctl -email user@example.com -password secret
//
//	# Use a config file and capture protocol events
//	eufy-ctl -config ~/.eufy-ctl.yaml -event-log events.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eufy-security/eufy-go/cmd/eufy-ctl/interactive"
	"github.com/eufy-security/eufy-go/pkg/api"
	"github.com/eufy-security/eufy-go/pkg/device"
	"github.com/eufy-security/eufy-go/pkg/log"
)

// Config holds the controller configuration. File values are overridden
// by flags.
type Config struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	BaseURL   string `yaml:"base_url"`
	RelayAddr string `yaml:"relay_addr"`
	LogLevel  string `yaml:"log_level"`
	EventLog  string `yaml:"event_log"`
}

var (
	config     Config
	configFile string
	flags      Config
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.Email, "email", "", "Account email")
	flag.StringVar(&flags.Password, "password", "", "Account password")
	flag.StringVar(&flags.BaseURL, "base-url", "", "API base URL override")
	flag.StringVar(&flags.RelayAddr, "relay", "", "Rendezvous relay address (host:port)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.EventLog, "event-log", "", "Protocol event capture file (CBOR)")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	mergeFlags()

	if config.Email == "" || config.Password == "" {
		return fmt.Errorf("email and password are required (flags or config file)")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return err
	}

	var eventLog log.Logger = log.NoopLogger{}
	if config.EventLog != "" {
		fileLog, err := log.NewFileLogger(config.EventLog)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer fileLog.Close()
		eventLog = fileLog
		logger.Info("capturing protocol events", "file", fileLog.Path())
	}

	client := api.New(api.Config{
		Email:    config.Email,
		Password: config.Password,
		BaseURL:  config.BaseURL,
		SessionOptions: device.SessionOptions{
			RelayAddr: config.RelayAddr,
			EventLog:  eventLog,
			Logger:    logger,
		},
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("logging in", "email", config.Email)
	if err := client.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	logger.Info("inventory loaded",
		"cameras", len(client.Cameras()),
		"sensors", len(client.Sensors()),
		"stations", len(client.Stations()))

	shell, err := interactive.New(client, logger)
	if err != nil {
		return err
	}
	shell.Run(ctx, cancel)
	return nil
}

// mergeFlags overlays non-empty flag values onto the file config.
func mergeFlags() {
	if flags.Email != "" {
		config.Email = flags.Email
	}
	if flags.Password != "" {
		config.Password = flags.Password
	}
	if flags.BaseURL != "" {
		config.BaseURL = flags.BaseURL
	}
	if flags.RelayAddr != "" {
		config.RelayAddr = flags.RelayAddr
	}
	if flags.LogLevel != "" {
		config.LogLevel = flags.LogLevel
	}
	if flags.EventLog != "" {
		config.EventLog = flags.EventLog
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

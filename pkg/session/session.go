package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eufy-security/eufy-go/pkg/log"
	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// DefaultAuthTimeout bounds the handshake when the caller's context
// carries no deadline.
const DefaultAuthTimeout = 5 * time.Second

// Session errors.
var (
	// ErrNotConnected indicates a command was issued on a session that
	// is not in the CONNECTED state.
	ErrNotConnected = errors.New("session is not connected")

	// ErrAlreadyUsed indicates Connect was called on a session that has
	// already been connected or closed. Sessions are single-use.
	ErrAlreadyUsed = errors.New("session was already connected or closed")
)

// State is a session lifecycle state. Transitions are strictly forward;
// a session never returns to an earlier state.
type State uint8

const (
	// StateUnconnected is the initial state.
	StateUnconnected State = iota
	// StateConnecting is set while the handshake is in flight.
	StateConnecting
	// StateConnected is set once the station accepted the handshake.
	StateConnected
	// StateClosed is terminal, reached from any state.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "UNCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Session.
type Config struct {
	// StationSN is the serial of the station this session binds to.
	StationSN string

	// Credentials authenticate the session against the station.
	Credentials Credentials

	// Authenticator runs the handshake. Default: DSKAuthenticator.
	Authenticator Authenticator

	// EventLog receives protocol capture events. Nil disables capture.
	EventLog log.Logger

	// Logger receives operational debug logging. Nil disables it.
	Logger *slog.Logger
}

// Session is an authenticated control channel to one station. A Session
// is safe for concurrent use; it is single-use and must be replaced, not
// reconnected, after Close or a failed Connect.
type Session struct {
	config Config
	connID string

	mu    sync.Mutex
	state State
	conn  *net.UDPConn
	addr  netip.AddrPort

	closeOnce sync.Once
}

// New creates a Session in the UNCONNECTED state, applying configuration
// defaults.
func New(config Config) *Session {
	if config.Authenticator == nil {
		config.Authenticator = DSKAuthenticator{}
	}
	if config.EventLog == nil {
		config.EventLog = log.NoopLogger{}
	}
	return &Session{
		config: config,
		connID: uuid.NewString(),
		state:  StateUnconnected,
	}
}

// StationSN returns the serial this session is bound to.
func (s *Session) StationSN() string {
	return s.config.StationSN
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemoteAddr returns the station address the session connected to. It is
// the zero AddrPort before a successful Connect.
func (s *Session) RemoteAddr() netip.AddrPort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ValidFor reports whether the session is connected and bound to the
// given station serial. Callers use it to decide whether an existing
// session can be reused for a station or a fresh one must be opened.
func (s *Session) ValidFor(serial string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected && s.config.StationSN == serial
}

// Connect dials the station at addr and runs the authentication
// handshake. On failure the session transitions to CLOSED and is not
// reusable. When ctx carries no deadline the handshake is bounded by
// DefaultAuthTimeout.
func (s *Session) Connect(ctx context.Context, addr netip.AddrPort) error {
	s.mu.Lock()
	if s.state != StateUnconnected {
		s.mu.Unlock()
		return ErrAlreadyUsed
	}
	s.state = StateConnecting
	s.mu.Unlock()
	s.logState(StateUnconnected, StateConnecting, "connect to "+addr.String())

	conn, err := net.DialUDP("udp4", nil, net.UDPAddrFromAddrPort(addr))
	if err != nil {
		s.fail("dial failed")
		return fmt.Errorf("failed to dial station %s: %w", addr, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultAuthTimeout)
		defer cancel()
	}

	if err := s.config.Authenticator.Authenticate(ctx, conn, s.config.Credentials); err != nil {
		conn.Close()
		s.fail("handshake failed")
		if s.config.Logger != nil {
			s.config.Logger.Debug("session handshake failed",
				"station", s.config.StationSN,
				"addr", addr.String(),
				"error", err)
		}
		return fmt.Errorf("handshake with station %s failed: %w", s.config.StationSN, err)
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Closed from another goroutine while the handshake ran.
		s.mu.Unlock()
		conn.Close()
		return ErrAlreadyUsed
	}
	s.conn = conn
	s.addr = addr
	s.state = StateConnected
	s.mu.Unlock()

	s.logState(StateConnecting, StateConnected, "")
	if s.config.Logger != nil {
		s.config.Logger.Info("session established",
			"station", s.config.StationSN,
			"addr", addr.String())
	}
	return nil
}

// SendCommandWithInt sends a control command carrying an integer value.
// The send is fire-and-forget; the station does not acknowledge at this
// layer.
func (s *Session) SendCommandWithInt(channel int, cmd p2p.CommandType, value int32) error {
	return s.sendCommand(channel, cmd, value, "")
}

// SendCommandWithIntString sends a control command carrying an integer
// value both in the fixed header and as its decimal string form, for
// commands whose firmware handler reads the string field.
func (s *Session) SendCommandWithIntString(channel int, cmd p2p.CommandType, value int32) error {
	return s.sendCommand(channel, cmd, value, strconv.FormatInt(int64(value), 10))
}

func (s *Session) sendCommand(channel int, cmd p2p.CommandType, value int32, str string) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot send %s in state %s", ErrNotConnected, cmd, s.state)
	}
	conn := s.conn
	addr := s.addr
	s.mu.Unlock()

	payload := p2p.EncodeCommandPayload(cmd, channel, value, str)
	frame, err := p2p.EncodeFrame(p2p.RequestData, payload)
	if err != nil {
		return err
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}

	s.config.EventLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		RemoteAddr:   addr.String(),
		StationSN:    s.config.StationSN,
		Frame:        log.NewFrameEvent(uint16(p2p.RequestData), payload),
	})
	if s.config.Logger != nil {
		s.config.Logger.Debug("command sent",
			"station", s.config.StationSN,
			"command", cmd.String(),
			"channel", channel,
			"value", value)
	}
	return nil
}

// Close tears the session down. It is idempotent and safe to call in any
// state, including after a failed Connect.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		conn := s.conn
		s.conn = nil
		s.state = StateClosed
		s.mu.Unlock()

		if conn != nil {
			err = conn.Close()
		}
		if prev != StateClosed {
			s.logState(prev, StateClosed, "")
		}
	})
	return err
}

// fail moves the session to CLOSED after a connect-path error.
func (s *Session) fail(reason string) {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	s.mu.Unlock()
	s.logState(prev, StateClosed, reason)
}

func (s *Session) logState(from, to State, reason string) {
	s.config.EventLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		StationSN:    s.config.StationSN,
		StateChange: &log.StateChangeEvent{
			From:   from.String(),
			To:     to.String(),
			Reason: reason,
		},
	})
}

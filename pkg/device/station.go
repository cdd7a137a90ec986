package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/eufy-security/eufy-go/pkg/discovery"
	"github.com/eufy-security/eufy-go/pkg/log"
	"github.com/eufy-security/eufy-go/pkg/p2p"
	"github.com/eufy-security/eufy-go/pkg/session"
)

// ErrStationUnreachable indicates no discovered candidate address
// accepted a session.
var ErrStationUnreachable = errors.New("station unreachable")

// SessionOptions configure how a station opens sessions.
type SessionOptions struct {
	// RelayAddr is the rendezvous relay ("host:port"). Empty skips the
	// relay lookup and goes straight to the local network.
	RelayAddr string

	// LocalPort overrides the station probe port for local lookups.
	// Zero uses discovery.DefaultLocalPort.
	LocalPort int

	// Timeout overrides the per-lookup response window. Zero uses
	// discovery.DefaultTimeout.
	Timeout time.Duration

	// Authenticator overrides the session handshake. Nil uses the
	// default.
	Authenticator session.Authenticator

	// EventLog receives protocol capture events. Nil disables capture.
	EventLog log.Logger

	// Logger receives operational debug logging. Nil disables it.
	Logger *slog.Logger
}

// Station is a home base (or a standalone device fronting itself). It
// owns session establishment: DSK key retrieval, address discovery, and
// the candidate connection sweep.
type Station struct {
	backend Backend
	opts    SessionOptions

	mu  sync.RWMutex
	rec StationRecord
}

// NewStation creates a station from an inventory record.
func NewStation(backend Backend, rec StationRecord, opts SessionOptions) *Station {
	return &Station{backend: backend, rec: rec, opts: opts}
}

// UpdateRecord replaces the station's inventory record.
func (s *Station) UpdateRecord(rec StationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
}

// Record returns a snapshot of the inventory record.
func (s *Station) Record() StationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Serial returns the station serial number.
func (s *Station) Serial() string { return s.Record().Serial }

// Name returns the station name.
func (s *Station) Name() string { return s.Record().Name }

// Model returns the station model.
func (s *Station) Model() string { return s.Record().Model }

// IP returns the station's LAN address from the inventory.
func (s *Station) IP() string { return s.Record().IPAddr }

// Connect discovers the station and opens an authenticated session. It
// fetches the station's DSK key, collects candidate addresses (relay
// lookup when a relay is configured, then the local network using the
// inventory LAN address), and tries candidates in order until one
// accepts the handshake.
func (s *Station) Connect(ctx context.Context) (*session.Session, error) {
	rec := s.Record()

	key, err := s.backend.DSKKey(ctx, rec.Serial)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DSK key for %s: %w", rec.Name, err)
	}

	did, err := p2p.ParseDID(rec.P2PDID)
	if err != nil {
		return nil, fmt.Errorf("station %s has a malformed P2P-DID: %w", rec.Name, err)
	}

	candidates, err := s.discover(ctx, did, key)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate address for %s", ErrStationUnreachable, rec.Name)
	}

	var lastErr error
	for _, addr := range candidates {
		sess, err := s.connectAddr(ctx, rec, key, addr)
		if err == nil {
			return sess, nil
		}
		lastErr = err
		if s.opts.Logger != nil {
			s.opts.Logger.Debug("candidate rejected session",
				"station", rec.Serial,
				"addr", addr.String(),
				"error", err)
		}
	}
	return nil, fmt.Errorf("%w: all candidates failed for %s: %w", ErrStationUnreachable, rec.Name, lastErr)
}

// ConnectAddr opens a session to a known station address, skipping
// discovery.
func (s *Station) ConnectAddr(ctx context.Context, addr netip.AddrPort) (*session.Session, error) {
	rec := s.Record()
	key, err := s.backend.DSKKey(ctx, rec.Serial)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DSK key for %s: %w", rec.Name, err)
	}
	return s.connectAddr(ctx, rec, key, addr)
}

func (s *Station) connectAddr(ctx context.Context, rec StationRecord, key string, addr netip.AddrPort) (*session.Session, error) {
	did, err := p2p.ParseDID(rec.P2PDID)
	if err != nil {
		return nil, fmt.Errorf("station %s has a malformed P2P-DID: %w", rec.Name, err)
	}

	sess := session.New(session.Config{
		StationSN: rec.Serial,
		Credentials: session.Credentials{
			DID:          did,
			DSKKey:       key,
			ActingUserID: rec.Member.ActionUserID,
		},
		Authenticator: s.opts.Authenticator,
		EventLog:      s.opts.EventLog,
		Logger:        s.opts.Logger,
	})
	if err := sess.Connect(ctx, addr); err != nil {
		return nil, err
	}
	return sess, nil
}

// discover collects candidate addresses: relay candidates first (when a
// relay is configured), then the local network probe against the
// station's inventory LAN address.
func (s *Station) discover(ctx context.Context, did p2p.DID, key string) ([]netip.AddrPort, error) {
	rec := s.Record()
	resolver := discovery.NewResolver(discovery.Config{
		Timeout:   s.opts.Timeout,
		LocalPort: s.opts.LocalPort,
		EventLog:  s.opts.EventLog,
		Logger:    s.opts.Logger,
	})

	var candidates []netip.AddrPort
	if s.opts.RelayAddr != "" {
		addrs, err := resolver.Lookup(ctx, s.opts.RelayAddr, did, key)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, addrs...)
	}
	if len(candidates) == 0 && rec.IPAddr != "" {
		addrs, err := resolver.LookupLocal(ctx, rec.IPAddr)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, addrs...)
	}
	return candidates, nil
}

// WithSession runs fn with a session valid for this station. A supplied
// session that is still valid is used as-is and left open; otherwise a
// fresh session is opened and closed exactly once when fn returns.
func (s *Station) WithSession(ctx context.Context, existing *session.Session, fn func(*session.Session) error) error {
	if existing != nil && existing.ValidFor(s.Serial()) {
		return fn(existing)
	}

	sess, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}

// SetGuardMode arms or disarms the station.
func (s *Station) SetGuardMode(ctx context.Context, mode GuardMode, existing *session.Session) error {
	return s.WithSession(ctx, existing, func(sess *session.Session) error {
		return sess.SendCommandWithInt(0, p2p.CmdSetArming, int32(mode))
	})
}

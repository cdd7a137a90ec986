package discovery

import (
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/eufy-security/eufy-go/pkg/log"
	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// Timing and protocol constants.
const (
	// DefaultTimeout is how long a lookup waits for responses. The
	// vendor app uses a fixed 1.5 s window for both lookup modes.
	DefaultTimeout = 1500 * time.Millisecond

	// DefaultLocalPort is the UDP port stations listen on for local
	// lookup probes.
	DefaultLocalPort = 32108

	// maxRelayCandidates caps relay responses per lookup. The relay
	// answers at most twice: once with the station's LAN address and
	// once with its WAN address.
	maxRelayCandidates = 2
)

// Config configures a Resolver.
type Config struct {
	// Timeout is the per-lookup response window.
	// Default: DefaultTimeout.
	Timeout time.Duration

	// LocalPort is the station probe port for local lookups.
	// Default: DefaultLocalPort.
	LocalPort int

	// EventLog receives protocol capture events. Nil disables capture.
	EventLog log.Logger

	// Logger receives operational debug logging. Nil disables it.
	Logger *slog.Logger
}

// Resolver runs discovery lookups against the relay and the local
// network. A Resolver is stateless and safe for concurrent use; every
// lookup opens and closes its own socket.
type Resolver struct {
	config Config
}

// NewResolver creates a Resolver, applying configuration defaults.
func NewResolver(config Config) *Resolver {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.LocalPort == 0 {
		config.LocalPort = DefaultLocalPort
	}
	if config.EventLog == nil {
		config.EventLog = log.NoopLogger{}
	}
	return &Resolver{config: config}
}

// collector accumulates lookup candidates and resolves exactly once:
// either when the candidate cap is reached or when the caller fires the
// timeout. Late triggers of either kind are safe no-ops.
type collector struct {
	mu       sync.Mutex
	max      int
	addrs    []netip.AddrPort
	resolved bool
	timedOut bool
	done     chan struct{}
}

// newCollector creates a collector that resolves after max candidates.
// A max of 0 means unbounded (timeout-only resolution).
func newCollector(max int) *collector {
	return &collector{
		max:  max,
		done: make(chan struct{}),
	}
}

// add records a candidate. It resolves the collector when the cap is
// reached; candidates arriving after resolution are discarded.
func (c *collector) add(addr netip.AddrPort) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved {
		return
	}
	c.addrs = append(c.addrs, addr)
	if c.max > 0 && len(c.addrs) >= c.max {
		c.resolveLocked(false)
	}
}

// resolve completes the collector with whatever candidates have arrived.
// Calling resolve after the collector already completed is a no-op.
func (c *collector) resolve(timedOut bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveLocked(timedOut)
}

func (c *collector) resolveLocked(timedOut bool) {
	if c.resolved {
		return
	}
	c.resolved = true
	c.timedOut = timedOut
	close(c.done)
}

// result returns the collected candidates and whether resolution came
// from the timeout. Only meaningful after done is closed.
func (c *collector) result() ([]netip.AddrPort, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addrs, c.timedOut
}

// frameHandler processes one decoded inbound frame.
type frameHandler func(respType p2p.ResponseType, payload []byte, src netip.AddrPort)

// readFrames decodes inbound datagrams until the socket is closed.
// Malformed or unrecognized frames are logged and skipped; a lookup
// must not die because an unrelated datagram hit its ephemeral port.
func (r *Resolver) readFrames(conn *net.UDPConn, connID string, handle frameHandler) {
	buf := make([]byte, 2048)
	for {
		n, src, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			// Socket closed by the lookup's exit path.
			return
		}

		respType, payload, err := p2p.DecodeFrame(buf[:n])
		if err != nil {
			r.logError(connID, src, err)
			continue
		}
		handle(respType, payload, src)
	}
}

func (r *Resolver) logError(connID string, src netip.AddrPort, err error) {
	if r.config.Logger != nil {
		r.config.Logger.Debug("dropping malformed datagram",
			"conn", connID,
			"src", src.String(),
			"error", err)
	}
	r.config.EventLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerDiscovery,
		Category:     log.CategoryError,
		RemoteAddr:   src.String(),
		Error:        &log.ErrorEventData{Message: err.Error()},
	})
}

func (r *Resolver) logFrameOut(connID string, dst netip.AddrPort, frameType uint16, payload []byte) {
	r.config.EventLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		RemoteAddr:   dst.String(),
		Frame:        log.NewFrameEvent(frameType, payload),
	})
}

func (r *Resolver) logLookup(connID string, ev *log.LookupEvent) {
	r.config.EventLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerDiscovery,
		Category:     log.CategoryLookup,
		Lookup:       ev,
	})
}

// addrStrings formats candidates for logging.
func addrStrings(addrs []netip.AddrPort) []string {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

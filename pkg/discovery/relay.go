package discovery

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"github.com/eufy-security/eufy-go/pkg/log"
	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// Lookup asks the rendezvous relay at relayAddr for the registered
// addresses of the station identified by did. The key is the station's
// DSK key from the cloud inventory.
//
// Lookup returns up to two candidates in arrival order. An empty result
// means the relay did not answer within the timeout - the station is
// unreachable via the relay, which is a valid outcome; callers fall
// back to LookupLocal or report a connection error. A non-nil error is
// returned only for socket failures and context cancellation.
func (r *Resolver) Lookup(ctx context.Context, relayAddr string, did p2p.DID, key string) ([]netip.AddrPort, error) {
	start := time.Now()
	connID := uuid.NewString()

	relay, err := net.ResolveUDPAddr("udp4", relayAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve relay address %q: %w", relayAddr, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup socket: %w", err)
	}
	defer conn.Close()

	local := conn.LocalAddr().(*net.UDPAddr)
	payload := lookupPayload(did, key, localIPv4(local), uint16(local.Port))
	frame, err := p2p.EncodeFrame(p2p.RequestLookupWithKey, payload)
	if err != nil {
		return nil, err
	}

	if _, err := conn.WriteToUDP(frame, relay); err != nil {
		return nil, fmt.Errorf("failed to send lookup request: %w", err)
	}
	r.logFrameOut(connID, relay.AddrPort(), uint16(p2p.RequestLookupWithKey), payload)

	col := newCollector(maxRelayCandidates)
	go r.readFrames(conn, connID, func(respType p2p.ResponseType, payload []byte, src netip.AddrPort) {
		if respType != p2p.ResponseLookupAddr {
			return
		}
		addr, ok := parseLookupAddr(payload)
		if !ok {
			r.logError(connID, src, fmt.Errorf("short LOOKUP_ADDR payload: %d bytes", len(payload)))
			return
		}
		col.add(addr)
	})

	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()

	select {
	case <-col.done:
	case <-timer.C:
		col.resolve(true)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	addrs, timedOut := col.result()
	r.logLookup(connID, &log.LookupEvent{
		DID:        did.String(),
		Mode:       "relay",
		Candidates: addrStrings(addrs),
		TimedOut:   timedOut,
		ElapsedMS:  time.Since(start).Milliseconds(),
	})
	if r.config.Logger != nil {
		r.config.Logger.Debug("relay lookup complete",
			"did", did.String(),
			"candidates", len(addrs),
			"timedOut", timedOut)
	}
	return addrs, nil
}

// lookupPayload builds the LOOKUP_WITH_KEY request payload:
//
//	DID prefix || serial (5, BE) || DID suffix ||
//	5 zero bytes ||
//	local port (2, LE) || local IPv4 (4, reversed octets) ||
//	00 00 00 00 00 00 00 00 02 04 00 00 ||
//	key || 4 zero bytes
//
// The local address tells the relay where to direct the station's hole
// punch; the 12-byte flag block is fixed in all observed captures.
func lookupPayload(did p2p.DID, key string, localIP netip.Addr, localPort uint16) []byte {
	p := make([]byte, 0, 48+len(key))
	p = did.AppendWire(p)
	p = append(p, 0x00, 0x00, 0x00, 0x00, 0x00)
	p = append(p, byte(localPort), byte(localPort>>8))
	ip4 := localIP.As4()
	p = append(p, ip4[3], ip4[2], ip4[1], ip4[0])
	p = append(p, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x04, 0x00, 0x00)
	p = append(p, key...)
	return append(p, 0x00, 0x00, 0x00, 0x00)
}

// parseLookupAddr extracts the candidate address from a LOOKUP_ADDR
// payload: port at bytes [2:4] little-endian, IPv4 at [4:8] with the
// most significant octet last. Bytes [0:2] are a status word the
// client ignores.
func parseLookupAddr(payload []byte) (netip.AddrPort, bool) {
	if len(payload) < 8 {
		return netip.AddrPort{}, false
	}
	port := uint16(payload[2]) | uint16(payload[3])<<8
	ip := netip.AddrFrom4([4]byte{payload[7], payload[6], payload[5], payload[4]})
	return netip.AddrPortFrom(ip, port), true
}

// localIPv4 extracts the socket's bound IPv4 address, falling back to
// 0.0.0.0 for wildcard binds.
func localIPv4(addr *net.UDPAddr) netip.Addr {
	if ip4 := addr.IP.To4(); ip4 != nil {
		return netip.AddrFrom4([4]byte(ip4))
	}
	return netip.AddrFrom4([4]byte{0, 0, 0, 0})
}

package discovery

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/eufy-security/eufy-go/pkg/log"
	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// localProbePayload is the fixed LOCAL_LOOKUP probe payload.
var localProbePayload = []byte{0x00, 0x00}

// LookupLocal probes the local network segment for a station. The
// target is a host or broadcast address ("192.168.1.255" reaches every
// station on the segment, a concrete host address probes one station);
// the probe always goes to the fixed station port.
//
// The first station to answer wins and resolves the lookup immediately;
// duplicate or later responses are ignored. Only one station is
// expected to answer a directed probe, so there is no response cap like
// the relay lookup's. An empty result after the timeout means "not
// found locally" and is a valid outcome, not an error.
func (r *Resolver) LookupLocal(ctx context.Context, target string) ([]netip.AddrPort, error) {
	start := time.Now()
	connID := uuid.NewString()

	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(target, strconv.Itoa(r.config.LocalPort)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve probe target %q: %w", target, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open probe socket: %w", err)
	}
	defer conn.Close()

	frame, err := p2p.EncodeFrame(p2p.RequestLocalLookup, localProbePayload)
	if err != nil {
		return nil, err
	}
	if _, err := conn.WriteToUDP(frame, dst); err != nil {
		return nil, fmt.Errorf("failed to send local probe: %w", err)
	}
	r.logFrameOut(connID, dst.AddrPort(), uint16(p2p.RequestLocalLookup), localProbePayload)

	col := newCollector(1)
	go r.readFrames(conn, connID, func(respType p2p.ResponseType, _ []byte, src netip.AddrPort) {
		if respType != p2p.ResponseLocalLookupResp {
			return
		}
		// The responder's source address is the candidate; the
		// payload carries nothing the client needs.
		col.add(src)
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
		Mode:       "local",
		Candidates: addrStrings(addrs),
		TimedOut:   timedOut,
		ElapsedMS:  time.Since(start).Milliseconds(),
	})
	if r.config.Logger != nil {
		r.config.Logger.Debug("local lookup complete",
			"target", target,
			"candidates", len(addrs),
			"timedOut", timedOut)
	}
	return addrs, nil
}

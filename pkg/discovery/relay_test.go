package discovery

import (
	"context"
	"encoding/binary"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// testTimeout keeps lookup tests fast; production uses DefaultTimeout.
const testTimeout = 250 * time.Millisecond

var testDID = p2p.DID{Prefix: "T8010", Serial: 123, Suffix: "ABCDE"}

// startFakeRelay runs a UDP responder on the loopback interface and
// returns its address. The handler receives each inbound datagram.
func startFakeRelay(t *testing.T, handle func(conn *net.UDPConn, req []byte, src *net.UDPAddr)) *net.UDPAddr {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			n, src, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			handle(conn, append([]byte(nil), buf[:n]...), src)
		}
	}()
	return conn.LocalAddr().(*net.UDPAddr)
}

// lookupAddrFrame builds a LOOKUP_ADDR response advertising addr.
func lookupAddrFrame(t *testing.T, addr netip.AddrPort) []byte {
	t.Helper()

	payload := make([]byte, 8)
	binary.LittleEndian.PutUint16(payload[2:4], addr.Port())
	ip := addr.Addr().As4()
	payload[4], payload[5], payload[6], payload[7] = ip[3], ip[2], ip[1], ip[0]

	frame, err := p2p.EncodeFrame(p2p.RequestType(p2p.ResponseLookupAddr), payload)
	require.NoError(t, err)
	return frame
}

func TestLookupTwoCandidates(t *testing.T) {
	lan := netip.MustParseAddrPort("192.168.1.50:29477")
	wan := netip.MustParseAddrPort("203.0.113.9:54321")

	relayAddr := startFakeRelay(t, func(conn *net.UDPConn, req []byte, src *net.UDPAddr) {
		require.Equal(t, byte(0xF1), req[0])
		require.Equal(t, byte(0x26), req[1])
		conn.WriteToUDP(lookupAddrFrame(t, lan), src)
		conn.WriteToUDP(lookupAddrFrame(t, wan), src)
	})

	resolver := NewResolver(Config{Timeout: testTimeout})
	start := time.Now()
	addrs, err := resolver.Lookup(context.Background(), relayAddr.String(), testDID, "dsk-key")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, lan, addrs[0])
	assert.Equal(t, wan, addrs[1])
	assert.Less(t, elapsed, testTimeout, "lookup should resolve before the timer fires")
}

func TestLookupTimeoutIsEmptyNotError(t *testing.T) {
	relayAddr := startFakeRelay(t, func(*net.UDPConn, []byte, *net.UDPAddr) {
		// Relay stays silent.
	})

	resolver := NewResolver(Config{Timeout: testTimeout})
	start := time.Now()
	addrs, err := resolver.Lookup(context.Background(), relayAddr.String(), testDID, "dsk-key")
	elapsed := time.Since(start)

	require.NoError(t, err, "timeout with zero candidates is a valid outcome")
	assert.Empty(t, addrs)
	assert.GreaterOrEqual(t, elapsed, testTimeout)
}

func TestLookupSingleCandidateResolvesOnTimeout(t *testing.T) {
	lan := netip.MustParseAddrPort("192.168.1.50:29477")

	relayAddr := startFakeRelay(t, func(conn *net.UDPConn, req []byte, src *net.UDPAddr) {
		conn.WriteToUDP(lookupAddrFrame(t, lan), src)
	})

	resolver := NewResolver(Config{Timeout: testTimeout})
	addrs, err := resolver.Lookup(context.Background(), relayAddr.String(), testDID, "dsk-key")

	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, lan, addrs[0])
}

func TestLookupSkipsMalformedDatagrams(t *testing.T) {
	lan := netip.MustParseAddrPort("192.168.1.50:29477")

	relayAddr := startFakeRelay(t, func(conn *net.UDPConn, req []byte, src *net.UDPAddr) {
		conn.WriteToUDP([]byte{0xDE, 0xAD, 0x00, 0x00}, src) // unknown type code
		conn.WriteToUDP([]byte{0xF1}, src)                   // truncated header
		conn.WriteToUDP(lookupAddrFrame(t, lan), src)
	})

	resolver := NewResolver(Config{Timeout: testTimeout})
	addrs, err := resolver.Lookup(context.Background(), relayAddr.String(), testDID, "dsk-key")

	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, lan, addrs[0])
}

func TestLookupContextCancellation(t *testing.T) {
	relayAddr := startFakeRelay(t, func(*net.UDPConn, []byte, *net.UDPAddr) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := NewResolver(Config{Timeout: time.Minute})
	_, err := resolver.Lookup(ctx, relayAddr.String(), testDID, "dsk-key")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookupPayloadLayout(t *testing.T) {
	did, err := p2p.ParseDID("AB-00001-CD")
	require.NoError(t, err)

	payload := lookupPayload(did, "k", netip.MustParseAddr("10.0.0.5"), 40000)

	var want []byte
	want = append(want, 'A', 'B')                         // DID prefix
	want = append(want, 0x00, 0x00, 0x00, 0x00, 0x01)     // serial, 5 bytes BE
	want = append(want, 'C', 'D')                         // DID suffix
	want = append(want, 0x00, 0x00, 0x00, 0x00, 0x00)     // padding
	want = append(want, 0x40, 0x9C)                       // port 40000 LE
	want = append(want, 5, 0, 0, 10)                      // 10.0.0.5 reversed
	want = append(want, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x04, 0x00, 0x00)
	want = append(want, 'k')                              // DSK key
	want = append(want, 0x00, 0x00, 0x00, 0x00)           // trailer

	assert.Equal(t, want, payload)
}

func TestParseLookupAddr(t *testing.T) {
	payload := []byte{0x00, 0x10, 0x25, 0x73, 9, 113, 0, 203}
	addr, ok := parseLookupAddr(payload)

	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddrPort("203.0.113.9:29477"), addr)

	_, ok = parseLookupAddr(payload[:7])
	assert.False(t, ok, "short payload must be rejected")
}

func TestCollectorResolveOnce(t *testing.T) {
	col := newCollector(2)
	a := netip.MustParseAddrPort("192.168.1.50:29477")
	b := netip.MustParseAddrPort("203.0.113.9:54321")

	col.add(a)
	col.add(b)
	<-col.done

	// Firing the timeout after resolution must not change the result.
	col.resolve(true)
	addrs, timedOut := col.result()
	assert.Len(t, addrs, 2)
	assert.False(t, timedOut)

	// Late candidates are discarded.
	col.add(netip.MustParseAddrPort("198.51.100.1:1000"))
	addrs, _ = col.result()
	assert.Len(t, addrs, 2)
}

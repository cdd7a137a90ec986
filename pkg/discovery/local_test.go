package discovery

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// startFakeStation runs a UDP responder standing in for a station's
// local lookup listener and returns its bound port.
func startFakeStation(t *testing.T, responses int) (port int, addr netip.AddrPort) {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := p2p.EncodeFrame(p2p.RequestType(p2p.ResponseLocalLookupResp), nil)
	require.NoError(t, err)

	go func() {
		buf := make([]byte, 2048)
		for {
			n, src, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if n < p2p.HeaderSize || buf[0] != 0xF1 || buf[1] != 0x30 {
				continue
			}
			for i := 0; i < responses; i++ {
				conn.WriteToUDP(resp, src)
			}
		}
	}()

	local := conn.LocalAddr().(*net.UDPAddr)
	return local.Port, local.AddrPort()
}

func TestLookupLocalFirstResponseWins(t *testing.T) {
	port, stationAddr := startFakeStation(t, 1)

	resolver := NewResolver(Config{Timeout: testTimeout, LocalPort: port})
	start := time.Now()
	addrs, err := resolver.LookupLocal(context.Background(), "127.0.0.1")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, stationAddr, addrs[0])
	assert.Less(t, elapsed, testTimeout, "first response must resolve immediately")
}

func TestLookupLocalIgnoresDuplicateResponses(t *testing.T) {
	port, stationAddr := startFakeStation(t, 3)

	resolver := NewResolver(Config{Timeout: testTimeout, LocalPort: port})
	addrs, err := resolver.LookupLocal(context.Background(), "127.0.0.1")

	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, stationAddr, addrs[0])
}

func TestLookupLocalTimeoutIsEmptyNotError(t *testing.T) {
	// Bind a port that never answers.
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	resolver := NewResolver(Config{Timeout: testTimeout, LocalPort: port})
	start := time.Now()
	addrs, err := resolver.LookupLocal(context.Background(), "127.0.0.1")
	elapsed := time.Since(start)

	require.NoError(t, err, "local timeout means not found, not failure")
	assert.Empty(t, addrs)
	assert.GreaterOrEqual(t, elapsed, testTimeout)
}

func TestDefaultsMatchVendorProtocol(t *testing.T) {
	resolver := NewResolver(Config{})
	assert.Equal(t, 1500*time.Millisecond, resolver.config.Timeout)
	assert.Equal(t, 32108, resolver.config.LocalPort)
}

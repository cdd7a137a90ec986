package session

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufy-security/eufy-go/pkg/log"
	"github.com/eufy-security/eufy-go/pkg/p2p"
)

var testCreds = Credentials{
	DID:          p2p.DID{Prefix: "T8010", Serial: 123, Suffix: "ABCDE"},
	DSKKey:       "dsk-key",
	ActingUserID: "user-1",
}

// fakeStation answers the handshake on a loopback socket and captures
// DATA frame payloads.
type fakeStation struct {
	addr    netip.AddrPort
	verdict []byte // CAM_ID payload; nil means stay silent
	data    chan []byte
}

func startFakeStation(t *testing.T, verdict []byte) *fakeStation {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	fs := &fakeStation{
		addr:    conn.LocalAddr().(*net.UDPAddr).AddrPort(),
		verdict: verdict,
		data:    make(chan []byte, 16),
	}

	go func() {
		buf := make([]byte, 2048)
		for {
			n, src, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if n < p2p.HeaderSize {
				continue
			}
			switch p2p.RequestType(uint16(buf[0])<<8 | uint16(buf[1])) {
			case p2p.RequestCheckCam:
				if fs.verdict == nil {
					continue
				}
				resp, err := p2p.EncodeFrame(p2p.RequestType(p2p.ResponseCamID), fs.verdict)
				if err != nil {
					return
				}
				conn.WriteToUDP(resp, src)
			case p2p.RequestData:
				fs.data <- append([]byte(nil), buf[p2p.HeaderSize:n]...)
			}
		}
	}()
	return fs
}

func (fs *fakeStation) waitData(t *testing.T) []byte {
	t.Helper()
	select {
	case p := <-fs.data:
		return p
	case <-time.After(time.Second):
		t.Fatal("no DATA frame reached the station")
		return nil
	}
}

func TestConnectAndSendCommand(t *testing.T) {
	fs := startFakeStation(t, []byte{0x00})

	s := New(Config{StationSN: "T8010P0123456789", Credentials: testCreds})
	require.NoError(t, s.Connect(context.Background(), fs.addr))
	defer s.Close()

	assert.Equal(t, StateConnected, s.State())
	assert.Equal(t, fs.addr, s.RemoteAddr())

	require.NoError(t, s.SendCommandWithInt(0, p2p.CmdSetArming, 1))
	payload := fs.waitData(t)

	want := p2p.EncodeCommandPayload(p2p.CmdSetArming, 0, 1, "")
	assert.Equal(t, want, payload)
}

func TestSendCommandWithIntStringAppendsDecimalForm(t *testing.T) {
	fs := startFakeStation(t, []byte{0x00})

	s := New(Config{StationSN: "T8010P0123456789", Credentials: testCreds})
	require.NoError(t, s.Connect(context.Background(), fs.addr))
	defer s.Close()

	require.NoError(t, s.SendCommandWithIntString(2, p2p.CmdSetFloodlightManualSwitch, 1))
	payload := fs.waitData(t)

	want := p2p.EncodeCommandPayload(p2p.CmdSetFloodlightManualSwitch, 2, 1, "1")
	assert.Equal(t, want, payload)
}

func TestConnectRejectedClosesSession(t *testing.T) {
	fs := startFakeStation(t, []byte{0x01})

	s := New(Config{StationSN: "T8010P0123456789", Credentials: testCreds})
	err := s.Connect(context.Background(), fs.addr)

	require.ErrorIs(t, err, ErrAuthRejected)
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, s.ValidFor("T8010P0123456789"))

	// Close after a failed connect is a safe no-op.
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestConnectTimeoutClosesSession(t *testing.T) {
	fs := startFakeStation(t, nil) // station never answers

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	s := New(Config{StationSN: "T8010P0123456789", Credentials: testCreds})
	err := s.Connect(ctx, fs.addr)

	require.Error(t, err)
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionIsSingleUse(t *testing.T) {
	fs := startFakeStation(t, []byte{0x00})

	s := New(Config{StationSN: "T8010P0123456789", Credentials: testCreds})
	require.NoError(t, s.Connect(context.Background(), fs.addr))
	defer s.Close()

	assert.ErrorIs(t, s.Connect(context.Background(), fs.addr), ErrAlreadyUsed)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Connect(context.Background(), fs.addr), ErrAlreadyUsed)
}

func TestValidFor(t *testing.T) {
	fs := startFakeStation(t, []byte{0x00})

	s := New(Config{StationSN: "A", Credentials: testCreds})
	assert.False(t, s.ValidFor("A"), "unconnected session is never valid")

	require.NoError(t, s.Connect(context.Background(), fs.addr))
	assert.True(t, s.ValidFor("A"))
	assert.False(t, s.ValidFor("B"), "session is bound to exactly one serial")

	require.NoError(t, s.Close())
	assert.False(t, s.ValidFor("A"), "closed session is never valid")
}

func TestSendRequiresConnectedState(t *testing.T) {
	s := New(Config{StationSN: "A", Credentials: testCreds})
	assert.ErrorIs(t, s.SendCommandWithInt(0, p2p.CmdSetArming, 1), ErrNotConnected)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SendCommandWithInt(0, p2p.CmdSetArming, 1), ErrNotConnected)
}

// captureLogger records events for assertions.
type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(ev log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureLogger) stateChanges() []log.StateChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []log.StateChangeEvent
	for _, ev := range c.events {
		if ev.StateChange != nil {
			out = append(out, *ev.StateChange)
		}
	}
	return out
}

func TestStateTransitionsAreCaptured(t *testing.T) {
	fs := startFakeStation(t, []byte{0x00})
	capture := &captureLogger{}

	s := New(Config{StationSN: "A", Credentials: testCreds, EventLog: capture})
	require.NoError(t, s.Connect(context.Background(), fs.addr))
	require.NoError(t, s.Close())

	changes := capture.stateChanges()
	require.Len(t, changes, 3)
	assert.Equal(t, "UNCONNECTED", changes[0].From)
	assert.Equal(t, "CONNECTING", changes[0].To)
	assert.Equal(t, "CONNECTING", changes[1].From)
	assert.Equal(t, "CONNECTED", changes[1].To)
	assert.Equal(t, "CONNECTED", changes[2].From)
	assert.Equal(t, "CLOSED", changes[2].To)
}

func TestFailedHandshakeGoesStraightToClosed(t *testing.T) {
	fs := startFakeStation(t, []byte{0x01})
	capture := &captureLogger{}

	s := New(Config{StationSN: "A", Credentials: testCreds, EventLog: capture})
	require.Error(t, s.Connect(context.Background(), fs.addr))

	changes := capture.stateChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, "CONNECTING", changes[1].From)
	assert.Equal(t, "CLOSED", changes[1].To)
	assert.Equal(t, "handshake failed", changes[1].Reason)
}

package device

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufy-security/eufy-go/pkg/p2p"
	"github.com/eufy-security/eufy-go/pkg/session"
)

// fakeBackend satisfies Backend with canned answers and call recording.
type fakeBackend struct {
	dskKey    string
	dskErr    error
	streamURL string
	station   *Station

	updates []ParamUpdate
	stopped bool
}

func (b *fakeBackend) DSKKey(context.Context, string) (string, error) {
	return b.dskKey, b.dskErr
}

func (b *fakeBackend) StartStream(context.Context, string, string) (string, error) {
	return b.streamURL, nil
}

func (b *fakeBackend) StopStream(context.Context, string, string) error {
	b.stopped = true
	return nil
}

func (b *fakeBackend) UpdateDeviceParams(_ context.Context, _, _ string, updates []ParamUpdate) error {
	b.updates = append(b.updates, updates...)
	return nil
}

func (b *fakeBackend) StationBySerial(serial string) (*Station, bool) {
	if b.station != nil && b.station.Serial() == serial {
		return b.station, true
	}
	return nil, false
}

// startStationResponder serves the full station side on one loopback
// socket: local lookup probes, the session handshake, and DATA capture.
func startStationResponder(t *testing.T) (port int, data chan []byte) {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	data = make(chan []byte, 16)
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
			switch p2p.RequestType(binary.BigEndian.Uint16(buf[0:2])) {
			case p2p.RequestLocalLookup:
				resp, _ := p2p.EncodeFrame(p2p.RequestType(p2p.ResponseLocalLookupResp), nil)
				conn.WriteToUDP(resp, src)
			case p2p.RequestCheckCam:
				resp, _ := p2p.EncodeFrame(p2p.RequestType(p2p.ResponseCamID), []byte{0x00})
				conn.WriteToUDP(resp, src)
			case p2p.RequestData:
				data <- append([]byte(nil), buf[p2p.HeaderSize:n]...)
			}
		}
	}()
	return conn.LocalAddr().(*net.UDPAddr).Port, data
}

func testStationRecord() StationRecord {
	return StationRecord{
		Serial: "T8010P0123456789",
		Name:   "Home Base",
		Model:  "T8010",
		Type:   TypeStation,
		IPAddr: "127.0.0.1",
		P2PDID: "T8010-00123-ABCDE",
		Member: Member{ActionUserID: "user-1"},
	}
}

func testStation(t *testing.T) (*Station, *fakeBackend, chan []byte) {
	t.Helper()
	port, data := startStationResponder(t)

	backend := &fakeBackend{dskKey: "dsk-key"}
	station := NewStation(backend, testStationRecord(), SessionOptions{
		LocalPort: port,
		Timeout:   250 * time.Millisecond,
	})
	backend.station = station
	return station, backend, data
}

func waitData(t *testing.T, data chan []byte) []byte {
	t.Helper()
	select {
	case p := <-data:
		return p
	case <-time.After(time.Second):
		t.Fatal("no DATA frame reached the station")
		return nil
	}
}

func TestStationConnectViaLocalDiscovery(t *testing.T) {
	station, _, _ := testStation(t)

	sess, err := station.Connect(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, session.StateConnected, sess.State())
	assert.True(t, sess.ValidFor(station.Serial()))
}

func TestStationConnectFailsOnBadDID(t *testing.T) {
	station, _, _ := testStation(t)
	rec := station.Record()
	rec.P2PDID = "garbage"
	station.UpdateRecord(rec)

	_, err := station.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, p2p.ErrInvalidDID)
}

func TestStationConnectPropagatesDSKError(t *testing.T) {
	station, backend, _ := testStation(t)
	backend.dskErr = errors.New("cloud says no")

	_, err := station.Connect(context.Background())
	assert.ErrorContains(t, err, "cloud says no")
}

func TestStationConnectUnreachable(t *testing.T) {
	backend := &fakeBackend{dskKey: "dsk-key"}
	rec := testStationRecord()
	rec.IPAddr = "" // nothing to probe, no relay configured
	station := NewStation(backend, rec, SessionOptions{Timeout: 100 * time.Millisecond})

	_, err := station.Connect(context.Background())
	assert.ErrorIs(t, err, ErrStationUnreachable)
}

func TestSetGuardModeSendsArmingCommand(t *testing.T) {
	station, _, data := testStation(t)

	require.NoError(t, station.SetGuardMode(context.Background(), GuardModeAway, nil))

	payload := waitData(t, data)
	want := p2p.EncodeCommandPayload(p2p.CmdSetArming, 0, int32(GuardModeAway), "")
	assert.Equal(t, want, payload)
}

func TestWithSessionOpensAndClosesExactlyOnce(t *testing.T) {
	station, _, _ := testStation(t)

	var seen *session.Session
	err := station.WithSession(context.Background(), nil, func(s *session.Session) error {
		seen = s
		assert.Equal(t, session.StateConnected, s.State())
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, session.StateClosed, seen.State(), "policy-opened session must be closed on exit")
}

func TestWithSessionClosesOnCallbackError(t *testing.T) {
	station, _, _ := testStation(t)

	var seen *session.Session
	boom := errors.New("boom")
	err := station.WithSession(context.Background(), nil, func(s *session.Session) error {
		seen = s
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, session.StateClosed, seen.State())
}

func TestWithSessionReusesValidSession(t *testing.T) {
	station, _, _ := testStation(t)

	existing, err := station.Connect(context.Background())
	require.NoError(t, err)
	defer existing.Close()

	err = station.WithSession(context.Background(), existing, func(s *session.Session) error {
		assert.Same(t, existing, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, session.StateConnected, existing.State(),
		"caller-supplied session must stay open")
}

func TestWithSessionIgnoresSessionForOtherStation(t *testing.T) {
	station, _, _ := testStation(t)

	other := session.New(session.Config{StationSN: "OTHER"})
	defer other.Close()

	var seen *session.Session
	err := station.WithSession(context.Background(), other, func(s *session.Session) error {
		seen = s
		return nil
	})
	require.NoError(t, err)
	assert.NotSame(t, other, seen, "a session for another station must not be reused")
}

func TestDeviceWithSessionFindsStation(t *testing.T) {
	station, backend, data := testStation(t)

	camera := NewCamera(backend, Record{
		Serial:        "CAM1",
		Name:          "Front Door",
		Type:          TypeDoorbell,
		StationSerial: station.Serial(),
	})

	require.NoError(t, camera.EnableOSD(context.Background(), true, nil))

	payload := waitData(t, data)
	want := p2p.EncodeCommandPayload(p2p.CmdSetDevsOSD, 0, 1, "1")
	assert.Equal(t, want, payload)
}

func TestDeviceWithSessionUnknownStation(t *testing.T) {
	backend := &fakeBackend{}
	camera := NewCamera(backend, Record{
		Serial:        "CAM1",
		Type:          TypeDoorbell,
		StationSerial: "MISSING",
	})

	err := camera.EnableOSD(context.Background(), true, nil)
	assert.ErrorIs(t, err, ErrNoStation)
}

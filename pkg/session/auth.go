package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/eufy-security/eufy-go/pkg/p2p"
)

// Authentication errors.
var (
	// ErrAuthRejected indicates the station answered the handshake with
	// a rejection. The credentials are wrong for this station.
	ErrAuthRejected = errors.New("station rejected the authentication handshake")

	// ErrAuthTimeout indicates the station never answered the handshake.
	ErrAuthTimeout = errors.New("no authentication response from station")
)

// Credentials carry the per-station secrets used to open a session.
type Credentials struct {
	// DID is the station's P2P-DID from the cloud inventory.
	DID p2p.DID

	// DSKKey is the station's DSK key from the cloud inventory.
	DSKKey string

	// ActingUserID identifies the account member issuing commands.
	ActingUserID string
}

// Authenticator performs the handshake that turns a raw UDP socket into
// an authenticated session. Authenticate returns nil only when the
// station accepted the credentials; any error leaves the socket in an
// unusable state and the caller closes it.
//
// The vendor's real exchange is proprietary; production deployments
// substitute an implementation derived from a captured exchange.
// DSKAuthenticator below is the default stand-in.
type Authenticator interface {
	Authenticate(ctx context.Context, conn *net.UDPConn, creds Credentials) error
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, conn *net.UDPConn, creds Credentials) error

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, conn *net.UDPConn, creds Credentials) error {
	return f(ctx, conn, creds)
}

// authKeyInfo is the HKDF context label for the handshake key.
var authKeyInfo = []byte("eufy-p2p-session-auth")

// DSKAuthenticator implements the default CHECK_CAM / CAM_ID handshake:
// it derives a key from the DSK key via HKDF-SHA256, sends a CHECK_CAM
// frame carrying the acting user ID and an HMAC over the station
// identity, and waits for a CAM_ID response whose first payload byte is
// the accept/reject verdict (zero accepts).
type DSKAuthenticator struct{}

// Authenticate runs the handshake over conn. The context deadline bounds
// the whole exchange; stray datagrams on the socket are skipped.
func (DSKAuthenticator) Authenticate(ctx context.Context, conn *net.UDPConn, creds Credentials) error {
	payload := authRequestPayload(creds)
	frame, err := p2p.EncodeFrame(p2p.RequestCheckCam, payload)
	if err != nil {
		return err
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("failed to send handshake: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultAuthTimeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 2048)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrAuthTimeout, err)
		}

		respType, resp, err := p2p.DecodeFrame(buf[:n])
		if err != nil || respType != p2p.ResponseCamID {
			// Not the handshake answer; keep reading until the deadline.
			continue
		}
		if len(resp) == 0 || resp[0] != 0x00 {
			return ErrAuthRejected
		}
		return nil
	}
}

// authRequestPayload builds the CHECK_CAM payload:
//
//	acting user ID || 0x00 || HMAC-SHA256(key, DID wire || user ID)
//
// with key = HKDF-SHA256(secret: DSK key, salt: DID wire form).
func authRequestPayload(creds Credentials) []byte {
	didWire := creds.DID.AppendWire(nil)

	r := hkdf.New(sha256.New, []byte(creds.DSKKey), didWire, authKeyInfo)
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF expansion of a single block cannot fail.
		panic(err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(didWire)
	mac.Write([]byte(creds.ActingUserID))

	p := make([]byte, 0, len(creds.ActingUserID)+1+sha256.Size)
	p = append(p, creds.ActingUserID...)
	p = append(p, 0x00)
	return mac.Sum(p)
}

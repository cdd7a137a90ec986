package api

import (
	"errors"
	"fmt"
)

// codeInvalidCredentials is the cloud's envelope code for a failed
// login or a token the cloud no longer accepts.
const codeInvalidCredentials = 26006

// Client errors.
var (
	// ErrInvalidCredentials indicates the cloud rejected the account
	// credentials, or a refreshed token failed twice in a row.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoDSKKey indicates the cloud returned no DSK key for the
	// requested station.
	ErrNoDSKKey = errors.New("no DSK key for station")
)

// ResponseError is a non-zero envelope code returned by the cloud.
type ResponseError struct {
	Endpoint string
	Code     int
	Message  string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("request to %s failed: code %d: %s", e.Endpoint, e.Code, e.Message)
}

// envelopeError maps an envelope code to the matching error value.
func envelopeError(endpoint string, code int, msg string) error {
	if code == codeInvalidCredentials {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, msg)
	}
	return &ResponseError{Endpoint: endpoint, Code: code, Message: msg}
}

package routeros

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors returned by Client.
var (
	// ErrNotConnected is returned by fetch methods called before a
	// successful Connect.
	ErrNotConnected = errors.New("not connected to router")

	// ErrFetch wraps every failed fetch call.
	ErrFetch = errors.New("router fetch failed")

	// ErrAuth marks a login the device rejected.
	ErrAuth = errors.New("router rejected login")
)

// ConnectErrorKind classifies why Connect failed.
type ConnectErrorKind int

const (
	AuthFailure ConnectErrorKind = iota + 1
	NetworkFailure
	ProtocolFailure
)

// String returns the kind's log name.
func (k ConnectErrorKind) String() string {
	switch k {
	case AuthFailure:
		return "auth failure"
	case NetworkFailure:
		return "network failure"
	case ProtocolFailure:
		return "protocol failure"
	default:
		return "unknown failure"
	}
}

// ConnectError is returned by Connect and TestConnection.
type ConnectError struct {
	Kind    ConnectErrorKind
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %s: %v", e.Address, e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// classifyConnectError maps a dial or verification error to a ConnectError.
// A timeout or cancellation always counts as a network failure.
func classifyConnectError(ctx context.Context, address string, err error) *ConnectError {
	kind := ProtocolFailure

	var netErr net.Error
	switch {
	case errors.Is(err, ErrAuth):
		kind = AuthFailure
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		kind = NetworkFailure
	case errors.As(err, &netErr):
		kind = NetworkFailure
	}

	return &ConnectError{Kind: kind, Address: address, Err: err}
}

package model

import (
	"net"
	"strconv"
)

// TransportMode selects the RouterOS API transport.
type TransportMode string

const (
	TransportPlain TransportMode = "plain"
	TransportTLS   TransportMode = "tls"
)

// Default RouterOS API ports.
const (
	DefaultAPIPort    = 8728
	DefaultAPITLSPort = 8729
)

// DefaultPort returns the RouterOS API port conventionally used by the mode.
func (m TransportMode) DefaultPort() int {
	if m == TransportTLS {
		return DefaultAPITLSPort
	}
	return DefaultAPIPort
}

// Valid reports whether m is a known transport mode.
func (m TransportMode) Valid() bool {
	return m == TransportPlain || m == TransportTLS
}

// ConnectionStatus is the last observed reachability of an endpoint.
type ConnectionStatus string

const (
	StatusUnknown      ConnectionStatus = "unknown"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// AccountStatus classifies an account that has no active session.
type AccountStatus string

const (
	AccountStatusDisabled AccountStatus = "Disabled"
	AccountStatusOffline  AccountStatus = "Offline"
)

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

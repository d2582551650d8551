package driven

import (
	"context"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// RouterClient is the driven port for one RouterOS management connection.
//
// Fetch methods require a prior successful Connect. They return an empty,
// non-nil collection when the device reports no records, and the same empty
// collection plus an error when the call itself fails; the failure message is
// also kept for LastError. Callers that only render may ignore the error.
type RouterClient interface {
	// Connect opens the persistent session and verifies it with one
	// resource read before reporting success.
	Connect(ctx context.Context) error
	// TestConnection performs an independent connect-verify-close cycle and
	// never touches the persistent session or its error state.
	TestConnection(ctx context.Context) error
	// Disconnect releases the persistent session. Safe to call repeatedly.
	Disconnect()
	// LastError returns the most recent failure message, or "" after a
	// successful operation.
	LastError() string

	FetchSystemResources(ctx context.Context) (model.SystemResources, error)
	FetchIdentity(ctx context.Context) (string, error)
	FetchInterfaces(ctx context.Context) ([]model.InterfaceRecord, error)
	FetchActiveSessions(ctx context.Context) ([]model.SessionRecord, error)
	FetchAccounts(ctx context.Context) ([]model.AccountRecord, error)
	FetchInterfaceStatistics(ctx context.Context) ([]model.InterfaceStats, error)
	FetchLeases(ctx context.Context) ([]model.LeaseRecord, error)
	FetchHotspotSessions(ctx context.Context) ([]model.HotspotSessionRecord, error)
	// FetchPPPoEInterfacesWithStats returns the pppoe-in interfaces joined
	// with their traffic counters. Missing counters stay "0".
	FetchPPPoEInterfacesWithStats(ctx context.Context) ([]model.InterfaceRecord, error)
}

// RouterClientFactory builds an unconnected RouterClient for an endpoint.
type RouterClientFactory interface {
	NewClient(ep model.Endpoint) RouterClient
}

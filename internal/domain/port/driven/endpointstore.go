// Package driven defines the ports implemented by storage, device and telemetry adapters.
package driven

import (
	"context"
	"errors"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// Sentinel errors returned by EndpointStore implementations and the registry.
var (
	// ErrEndpointNotFound indicates the requested endpoint does not exist.
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrEndpointExists indicates an endpoint with the same ID already exists.
	ErrEndpointExists = errors.New("endpoint already exists")
)

// EndpointStore defines the driven port for endpoint persistence.
// Add returns ErrEndpointExists on an ID collision and provisions the
// endpoint's empty category namespace in the same transaction.
// Update and Delete return ErrEndpointNotFound for unknown IDs; Delete also
// removes the endpoint's groups and categories.
type EndpointStore interface {
	Add(ctx context.Context, ep model.Endpoint) error
	Update(ctx context.Context, ep model.Endpoint) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]model.Endpoint, error)
}

// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// ErrInvalidEndpoint is returned when an endpoint lacks a required field.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// Registry is the authoritative set of configured endpoints. Reads are
// served from memory; every mutation is persisted through the store before
// the in-memory view changes, so the two never disagree.
type Registry struct {
	store driven.EndpointStore
	now   func() time.Time
	newID func() string

	mu        sync.RWMutex
	endpoints map[string]model.Endpoint
	order     []string
}

// NewRegistry loads every stored endpoint into a new Registry.
func NewRegistry(ctx context.Context, store driven.EndpointStore) (*Registry, error) {
	stored, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load endpoints: %w", err)
	}

	r := &Registry{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		endpoints: make(map[string]model.Endpoint, len(stored)),
		order:     make([]string, 0, len(stored)),
	}
	for _, ep := range stored {
		r.endpoints[ep.ID] = ep
		r.order = append(r.order, ep.ID)
	}

	slog.Info("endpoint registry loaded", "endpoints", len(stored))
	return r, nil
}

// List returns all endpoints in the order they were added.
func (r *Registry) List() []model.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Endpoint, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.endpoints[id])
	}
	return out
}

// Get returns the endpoint with the given ID.
func (r *Registry) Get(id string) (model.Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[id]
	return ep, ok
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Add registers a new endpoint. An empty ID is replaced with a generated
// one. Status starts as unknown with no recorded connection. The endpoint's
// empty category set is provisioned by the store in the same write.
func (r *Registry) Add(ctx context.Context, ep model.Endpoint) (model.Endpoint, error) {
	if err := validateEndpoint(ep); err != nil {
		return model.Endpoint{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ep.ID == "" {
		ep.ID = r.newID()
	}
	if _, exists := r.endpoints[ep.ID]; exists {
		return model.Endpoint{}, fmt.Errorf("add endpoint %s: %w", ep.ID, driven.ErrEndpointExists)
	}
	if ep.Transport == "" {
		ep.Transport = model.TransportPlain
	}

	now := r.now()
	ep.CreatedAt = now
	ep.UpdatedAt = now
	ep.LastConnection = nil
	ep.Status = model.StatusUnknown

	if err := r.store.Add(ctx, ep); err != nil {
		return model.Endpoint{}, err
	}

	r.endpoints[ep.ID] = ep
	r.order = append(r.order, ep.ID)

	slog.Info("endpoint added", "endpoint", ep.ID, "name", ep.Name, "address", ep.Address())
	return ep, nil
}

// Update merges patch into the stored endpoint. Absent and empty fields are
// ignored, so an empty password keeps the stored one.
func (r *Registry) Update(ctx context.Context, id string, patch model.EndpointPatch) (model.Endpoint, error) {
	if patch.Transport != nil && *patch.Transport != "" && !patch.Transport.Valid() {
		return model.Endpoint{}, fmt.Errorf("%w: unknown transport %q", ErrInvalidEndpoint, *patch.Transport)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.endpoints[id]
	if !ok {
		return model.Endpoint{}, fmt.Errorf("update endpoint %s: %w", id, driven.ErrEndpointNotFound)
	}

	updated := patch.Apply(current)
	if err := validateEndpoint(updated); err != nil {
		return model.Endpoint{}, err
	}
	updated.UpdatedAt = r.now()

	if err := r.store.Update(ctx, updated); err != nil {
		return model.Endpoint{}, err
	}
	r.endpoints[id] = updated

	slog.Info("endpoint updated", "endpoint", id)
	return updated, nil
}

// Remove deletes the endpoint along with its groups and categories.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.endpoints[id]; !ok {
		return fmt.Errorf("remove endpoint %s: %w", id, driven.ErrEndpointNotFound)
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	delete(r.endpoints, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	slog.Info("endpoint removed", "endpoint", id)
	return nil
}

// RecordConnectionOutcome stamps the endpoint's last connection time and
// status and persists them immediately.
func (r *Registry) RecordConnectionOutcome(ctx context.Context, id string, connected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return fmt.Errorf("record outcome for %s: %w", id, driven.ErrEndpointNotFound)
	}

	now := r.now()
	ep.LastConnection = &now
	ep.Status = model.StatusDisconnected
	if connected {
		ep.Status = model.StatusConnected
	}

	if err := r.store.Update(ctx, ep); err != nil {
		return err
	}
	r.endpoints[id] = ep
	return nil
}

func validateEndpoint(ep model.Endpoint) error {
	switch {
	case ep.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidEndpoint)
	case ep.Host == "":
		return fmt.Errorf("%w: host is required", ErrInvalidEndpoint)
	case ep.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidEndpoint)
	case ep.Port < 0 || ep.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidEndpoint, ep.Port)
	case ep.Transport != "" && !ep.Transport.Valid():
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidEndpoint, ep.Transport)
	}
	return nil
}

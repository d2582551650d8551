package application

import (
	"fmt"
	"sync"

	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Selection holds the endpoint the dashboard is currently viewing. It can be
// switched at runtime without restarting anything that reads it.
type Selection struct {
	registry *Registry

	mu sync.RWMutex
	id string
}

// NewSelection creates a Selection. An empty or unknown id falls back to
// the first registered endpoint.
func NewSelection(registry *Registry, id string) *Selection {
	return &Selection{registry: registry, id: id}
}

// Active returns the selected endpoint ID, or the first registered endpoint
// when the selection is unset or no longer registered. ok is false when the
// registry is empty.
func (s *Selection) Active() (string, bool) {
	s.mu.RLock()
	id := s.id
	s.mu.RUnlock()

	if id != "" {
		if _, ok := s.registry.Get(id); ok {
			return id, true
		}
	}

	endpoints := s.registry.List()
	if len(endpoints) == 0 {
		return "", false
	}
	return endpoints[0].ID, true
}

// Set switches the selection. Returns ErrEndpointNotFound for unknown IDs.
func (s *Selection) Set(id string) error {
	if _, ok := s.registry.Get(id); !ok {
		return fmt.Errorf("select endpoint %s: %w", id, driven.ErrEndpointNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

// Resolve returns id when non-empty, else the active endpoint ID.
func (s *Selection) Resolve(id string) (string, bool) {
	if id != "" {
		return id, true
	}
	return s.Active()
}

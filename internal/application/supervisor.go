package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// TestResult is the outcome of an on-demand endpoint connectivity test.
type TestResult struct {
	Success      bool   `json:"success"`
	Connected    bool   `json:"connected"`
	Identity     string `json:"identity,omitempty"`
	EndpointName string `json:"router_name,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Supervisor turns endpoint IDs into connected RouterClients. Each call
// builds an independent client, so a failing endpoint cannot affect another.
type Supervisor struct {
	registry *Registry
	factory  driven.RouterClientFactory

	mu      sync.Mutex
	lastErr string
}

// NewSupervisor creates a Supervisor over the registry's endpoints.
func NewSupervisor(registry *Registry, factory driven.RouterClientFactory) *Supervisor {
	return &Supervisor{registry: registry, factory: factory}
}

// GetClient returns a connected client for the endpoint. On failure the
// error is also kept for LastClientError. The caller owns the client and
// must Disconnect it.
func (s *Supervisor) GetClient(ctx context.Context, id string) (driven.RouterClient, error) {
	ep, ok := s.registry.Get(id)
	if !ok {
		err := fmt.Errorf("endpoint %s: %w", id, driven.ErrEndpointNotFound)
		s.setLastError(err.Error())
		slog.Error("get client failed", "endpoint", id, "error", err)
		return nil, err
	}

	client := s.factory.NewClient(ep)
	if err := client.Connect(ctx); err != nil {
		client.Disconnect()
		wrapped := fmt.Errorf("failed to connect to endpoint %s: %w", id, err)
		s.setLastError(wrapped.Error())
		slog.Error("get client failed", "endpoint", id, "error", err)
		return nil, wrapped
	}

	s.setLastError("")
	return client, nil
}

// LastClientError returns the message of the most recent GetClient
// failure, or "" if the latest call succeeded.
func (s *Supervisor) LastClientError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// TestEndpoint connects to the endpoint, runs an independent connection
// test and records the outcome in the registry. It always returns a result;
// failures are reported in it rather than as an error.
func (s *Supervisor) TestEndpoint(ctx context.Context, id string) TestResult {
	ep, ok := s.registry.Get(id)
	if !ok {
		return TestResult{Error: "endpoint not found"}
	}

	client, err := s.GetClient(ctx, id)
	if err != nil {
		s.recordOutcome(ctx, id, false)
		return TestResult{Error: err.Error()}
	}
	defer client.Disconnect()

	if err := client.TestConnection(ctx); err != nil {
		s.recordOutcome(ctx, id, false)
		return TestResult{Error: err.Error()}
	}

	s.recordOutcome(ctx, id, true)

	identity, err := client.FetchIdentity(ctx)
	if err != nil {
		slog.Warn("identity lookup failed", "endpoint", id, "error", err)
	}

	return TestResult{
		Success:      true,
		Connected:    true,
		Identity:     identity,
		EndpointName: ep.Name,
	}
}

func (s *Supervisor) recordOutcome(ctx context.Context, id string, connected bool) {
	if err := s.registry.RecordConnectionOutcome(ctx, id, connected); err != nil {
		slog.Error("record connection outcome failed", "endpoint", id, "error", err)
	}
}

func (s *Supervisor) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

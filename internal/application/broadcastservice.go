package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// SnapshotSource produces one endpoint's snapshot. TelemetryService is the
// production implementation.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id string) model.Snapshot
}

// refreshRequest represents a manual refresh trigger. An empty endpointID
// refreshes every enabled endpoint.
type refreshRequest struct {
	endpointID string
	done       chan error
}

// BroadcastService periodically snapshots every enabled endpoint and hands
// the results to its sinks. Endpoints are polled concurrently up to a
// limit, each with its own client, so a slow or dead endpoint only delays
// its own snapshot.
type BroadcastService struct {
	registry    *Registry
	source      SnapshotSource
	sinks       []driven.TelemetrySink
	interval    time.Duration
	concurrency int
	refreshCh   chan refreshRequest
}

// NewBroadcastService creates a BroadcastService. concurrency below 1 is
// treated as 1.
func NewBroadcastService(
	registry *Registry,
	source SnapshotSource,
	sinks []driven.TelemetrySink,
	interval time.Duration,
	concurrency int,
) *BroadcastService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BroadcastService{
		registry:    registry,
		source:      source,
		sinks:       sinks,
		interval:    interval,
		concurrency: concurrency,
		refreshCh:   make(chan refreshRequest),
	}
}

// Start runs an immediate broadcast, then one per interval, and serves
// manual refresh requests in between. It blocks until ctx is canceled.
func (s *BroadcastService) Start(ctx context.Context) {
	s.broadcastAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("broadcast service stopped")
			return
		case <-ticker.C:
			s.broadcastAll(ctx)
		case req := <-s.refreshCh:
			req.done <- s.handleRefresh(ctx, req)
		}
	}
}

// Refresh triggers an out-of-schedule broadcast for one endpoint, or for
// all enabled endpoints when endpointID is empty. It blocks until the
// broadcast completes or ctx is canceled.
func (s *BroadcastService) Refresh(ctx context.Context, endpointID string) error {
	done := make(chan error, 1)
	req := refreshRequest{endpointID: endpointID, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// broadcastAll snapshots every enabled endpoint. Failures are logged per
// endpoint and never stop the others.
func (s *BroadcastService) broadcastAll(ctx context.Context) {
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	var polled int
	for _, ep := range s.registry.List() {
		if !ep.Enabled {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		polled++

		id := ep.ID
		g.Go(func() error {
			if err := s.broadcastOne(ctx, id); err != nil {
				slog.Error("broadcast failed", "endpoint", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Debug("broadcast cycle complete",
		"endpoints", polled,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// broadcastOne snapshots one endpoint and publishes it to every sink.
func (s *BroadcastService) broadcastOne(ctx context.Context, id string) error {
	snap := s.source.Snapshot(ctx, id)
	if !snap.Success {
		slog.Warn("endpoint snapshot degraded", "endpoint", id, "error", snap.Error)
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// handleRefresh dispatches a manual refresh request.
func (s *BroadcastService) handleRefresh(ctx context.Context, req refreshRequest) error {
	if req.endpointID == "" {
		s.broadcastAll(ctx)
		return nil
	}

	if _, ok := s.registry.Get(req.endpointID); !ok {
		return fmt.Errorf("refresh %s: %w", req.endpointID, driven.ErrEndpointNotFound)
	}
	return s.broadcastOne(ctx, req.endpointID)
}

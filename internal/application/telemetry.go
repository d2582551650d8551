package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// ExportReport is everything known about one endpoint at one instant.
type ExportReport struct {
	Endpoint   model.Endpoint
	Identity   string
	Resources  model.SystemResources
	Usage      model.ResourceUsage
	Interfaces []model.InterfaceRecord
	Leases     []model.LeaseRecord
	Hotspot    []model.HotspotSessionRecord
	Snapshot   model.Snapshot
}

// TelemetryService reads live data from endpoints and correlates it. Every
// call opens its own client and releases it before returning.
type TelemetryService struct {
	registry   *Registry
	supervisor *Supervisor
	now        func() time.Time
}

// NewTelemetryService creates a TelemetryService.
func NewTelemetryService(registry *Registry, supervisor *Supervisor) *TelemetryService {
	return &TelemetryService{
		registry:   registry,
		supervisor: supervisor,
		now:        time.Now,
	}
}

// Snapshot fetches PPPoE interfaces, sessions and accounts for the endpoint
// and correlates them. It never fails: an unreachable endpoint or a failed
// fetch yields Success false with Error set, and whatever collections were
// fetched (empty otherwise) with stats computed over them.
func (s *TelemetryService) Snapshot(ctx context.Context, id string) model.Snapshot {
	now := s.now()
	snap := model.Snapshot{
		EndpointID:      id,
		PPPoEInterfaces: []model.InterfaceRecord{},
		Accounts:        []model.AccountRecord{},
		Online:          []model.AccountRecord{},
		Offline:         []model.OfflineAccount{},
		Sessions:        []model.SessionRecord{},
		Stats:           model.AggregateStats{LastUpdated: now},
		CapturedAt:      now,
	}
	if ep, ok := s.registry.Get(id); ok {
		snap.EndpointName = ep.Name
	}

	client, err := s.supervisor.GetClient(ctx, id)
	if err != nil {
		snap.Error = err.Error()
		return snap
	}
	defer client.Disconnect()

	var errs []error

	ifaces, err := client.FetchPPPoEInterfacesWithStats(ctx)
	errs = append(errs, err)
	sessions, err := client.FetchActiveSessions(ctx)
	errs = append(errs, err)
	accounts, err := client.FetchAccounts(ctx)
	errs = append(errs, err)

	snap.Sessions = sessions
	snap.Accounts = accounts
	snap.PPPoEInterfaces = AttachAddresses(ifaces, sessions)
	snap.Online, snap.Offline = PartitionAccounts(accounts, sessions, now)
	snap.Stats = Aggregate(accounts, sessions, snap.PPPoEInterfaces, now)

	if err := errors.Join(errs...); err != nil {
		snap.Error = err.Error()
		slog.Warn("snapshot incomplete", "endpoint", id, "error", err)
		return snap
	}

	snap.Success = true
	return snap
}

// Resources returns the endpoint's system resources and derived usage.
func (s *TelemetryService) Resources(ctx context.Context, id string) (model.SystemResources, model.ResourceUsage, error) {
	var res model.SystemResources
	err := s.withClient(ctx, id, func(c driven.RouterClient) error {
		var err error
		res, err = c.FetchSystemResources(ctx)
		return err
	})
	if err != nil {
		return model.SystemResources{}, model.ResourceUsage{}, err
	}
	return res, ResourceUsage(res), nil
}

// Interfaces returns every interface on the endpoint.
func (s *TelemetryService) Interfaces(ctx context.Context, id string) ([]model.InterfaceRecord, error) {
	ifaces := []model.InterfaceRecord{}
	err := s.withClient(ctx, id, func(c driven.RouterClient) error {
		var err error
		ifaces, err = c.FetchInterfaces(ctx)
		return err
	})
	return ifaces, err
}

// ActiveSessions returns the endpoint's active PPP sessions.
func (s *TelemetryService) ActiveSessions(ctx context.Context, id string) ([]model.SessionRecord, error) {
	sessions := []model.SessionRecord{}
	err := s.withClient(ctx, id, func(c driven.RouterClient) error {
		var err error
		sessions, err = c.FetchActiveSessions(ctx)
		return err
	})
	return sessions, err
}

// Export gathers identity, resources, all interfaces, DHCP leases, hotspot
// users and a snapshot. Failed reads are logged and leave those parts empty.
func (s *TelemetryService) Export(ctx context.Context, id string) (ExportReport, error) {
	ep, ok := s.registry.Get(id)
	if !ok {
		return ExportReport{}, fmt.Errorf("export %s: %w", id, driven.ErrEndpointNotFound)
	}

	report := ExportReport{
		Endpoint:   ep,
		Interfaces: []model.InterfaceRecord{},
		Leases:     []model.LeaseRecord{},
		Hotspot:    []model.HotspotSessionRecord{},
	}
	err := s.withClient(ctx, id, func(c driven.RouterClient) error {
		var err error
		if report.Identity, err = c.FetchIdentity(ctx); err != nil {
			slog.Warn("export identity failed", "endpoint", id, "error", err)
		}
		if report.Resources, err = c.FetchSystemResources(ctx); err != nil {
			slog.Warn("export resources failed", "endpoint", id, "error", err)
		}
		if report.Interfaces, err = c.FetchInterfaces(ctx); err != nil {
			slog.Warn("export interfaces failed", "endpoint", id, "error", err)
		}
		if report.Leases, err = c.FetchLeases(ctx); err != nil {
			slog.Warn("export leases failed", "endpoint", id, "error", err)
		}
		if report.Hotspot, err = c.FetchHotspotSessions(ctx); err != nil {
			slog.Warn("export hotspot users failed", "endpoint", id, "error", err)
		}
		return nil
	})
	if err != nil {
		return ExportReport{}, err
	}

	report.Usage = ResourceUsage(report.Resources)
	report.Snapshot = s.Snapshot(ctx, id)
	return report, nil
}

func (s *TelemetryService) withClient(ctx context.Context, id string, fn func(driven.RouterClient) error) error {
	client, err := s.supervisor.GetClient(ctx, id)
	if err != nil {
		return err
	}
	defer client.Disconnect()

	return fn(client)
}

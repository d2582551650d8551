package application_test

import (
	"context"
	"errors"
	"sync"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// --- Endpoint store ---

type mockEndpointStore struct {
	mu        sync.Mutex
	endpoints map[string]model.Endpoint
	order     []string
	failWrite error
	adds      int
	updates   int
	deletes   int
}

func newMockEndpointStore(initial ...model.Endpoint) *mockEndpointStore {
	s := &mockEndpointStore{endpoints: make(map[string]model.Endpoint)}
	for _, ep := range initial {
		s.endpoints[ep.ID] = ep
		s.order = append(s.order, ep.ID)
	}
	return s
}

func (m *mockEndpointStore) Add(_ context.Context, ep model.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	if m.failWrite != nil {
		return m.failWrite
	}
	if _, ok := m.endpoints[ep.ID]; ok {
		return driven.ErrEndpointExists
	}
	m.endpoints[ep.ID] = ep
	m.order = append(m.order, ep.ID)
	return nil
}

func (m *mockEndpointStore) Update(_ context.Context, ep model.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.failWrite != nil {
		return m.failWrite
	}
	if _, ok := m.endpoints[ep.ID]; !ok {
		return driven.ErrEndpointNotFound
	}
	m.endpoints[ep.ID] = ep
	return nil
}

func (m *mockEndpointStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.failWrite != nil {
		return m.failWrite
	}
	if _, ok := m.endpoints[id]; !ok {
		return driven.ErrEndpointNotFound
	}
	delete(m.endpoints, id)
	return nil
}

func (m *mockEndpointStore) ListAll(_ context.Context) ([]model.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Endpoint
	for _, id := range m.order {
		if ep, ok := m.endpoints[id]; ok {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (m *mockEndpointStore) stored(id string) (model.Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.endpoints[id]
	return ep, ok
}

// --- Router client ---

type mockRouterClient struct {
	connect        func(ctx context.Context) error
	testConnection func(ctx context.Context) error
	identity       string
	resources      model.SystemResources
	interfaces     []model.InterfaceRecord
	pppoe          []model.InterfaceRecord
	sessions       []model.SessionRecord
	accounts       []model.AccountRecord
	leases         []model.LeaseRecord
	hotspot        []model.HotspotSessionRecord
	fetchErr       error

	mu           sync.Mutex
	disconnected int
}

func (m *mockRouterClient) Connect(ctx context.Context) error {
	if m.connect != nil {
		return m.connect(ctx)
	}
	return nil
}

func (m *mockRouterClient) TestConnection(ctx context.Context) error {
	if m.testConnection != nil {
		return m.testConnection(ctx)
	}
	return nil
}

func (m *mockRouterClient) Disconnect() {
	m.mu.Lock()
	m.disconnected++
	m.mu.Unlock()
}

func (m *mockRouterClient) LastError() string {
	if m.fetchErr != nil {
		return m.fetchErr.Error()
	}
	return ""
}

func (m *mockRouterClient) FetchSystemResources(_ context.Context) (model.SystemResources, error) {
	return m.resources, m.fetchErr
}

func (m *mockRouterClient) FetchIdentity(_ context.Context) (string, error) {
	return m.identity, m.fetchErr
}

func (m *mockRouterClient) FetchInterfaces(_ context.Context) ([]model.InterfaceRecord, error) {
	return orEmpty(m.interfaces), m.fetchErr
}

func (m *mockRouterClient) FetchActiveSessions(_ context.Context) ([]model.SessionRecord, error) {
	return orEmpty(m.sessions), m.fetchErr
}

func (m *mockRouterClient) FetchAccounts(_ context.Context) ([]model.AccountRecord, error) {
	return orEmpty(m.accounts), m.fetchErr
}

func (m *mockRouterClient) FetchInterfaceStatistics(_ context.Context) ([]model.InterfaceStats, error) {
	return []model.InterfaceStats{}, m.fetchErr
}

func (m *mockRouterClient) FetchLeases(_ context.Context) ([]model.LeaseRecord, error) {
	return orEmpty(m.leases), m.fetchErr
}

func (m *mockRouterClient) FetchHotspotSessions(_ context.Context) ([]model.HotspotSessionRecord, error) {
	return orEmpty(m.hotspot), m.fetchErr
}

func (m *mockRouterClient) FetchPPPoEInterfacesWithStats(_ context.Context) ([]model.InterfaceRecord, error) {
	return orEmpty(m.pppoe), m.fetchErr
}

func (m *mockRouterClient) disconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// mockFactory returns the client registered for an endpoint ID, or a client
// whose Connect fails.
type mockFactory struct {
	mu      sync.Mutex
	clients map[string]*mockRouterClient
	built   []string
}

func (f *mockFactory) NewClient(ep model.Endpoint) driven.RouterClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built = append(f.built, ep.ID)
	if c, ok := f.clients[ep.ID]; ok {
		return c
	}
	return &mockRouterClient{connect: func(context.Context) error { return errors.New("connection refused") }}
}

// --- Telemetry sink ---

type mockSink struct {
	mu        sync.Mutex
	snapshots []model.Snapshot
	err       error
}

func (m *mockSink) Publish(_ context.Context, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	return m.err
}

func (m *mockSink) published() []model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Snapshot(nil), m.snapshots...)
}

// --- Group and category stores ---

type mockGroupStore struct {
	groups  map[int64]model.Group
	nextID  int64
	members map[int64][]string
}

func newMockGroupStore() *mockGroupStore {
	return &mockGroupStore{groups: make(map[int64]model.Group), members: make(map[int64][]string)}
}

func (m *mockGroupStore) ListByEndpoint(_ context.Context, endpointID string) ([]model.Group, error) {
	out := []model.Group{}
	for _, g := range m.groups {
		if g.EndpointID == endpointID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGroupStore) Create(_ context.Context, g model.Group) (model.Group, error) {
	m.nextID++
	g.ID = m.nextID
	m.groups[g.ID] = g
	return g, nil
}

func (m *mockGroupStore) Update(_ context.Context, g model.Group) error {
	if _, ok := m.groups[g.ID]; !ok {
		return driven.ErrGroupNotFound
	}
	g.Accounts = m.groups[g.ID].Accounts
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroupStore) SetAccounts(_ context.Context, _ string, groupID int64, accounts []string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return driven.ErrGroupNotFound
	}
	g.Accounts = accounts
	m.groups[groupID] = g
	return nil
}

func (m *mockGroupStore) Delete(_ context.Context, _ string, groupID int64) error {
	if _, ok := m.groups[groupID]; !ok {
		return driven.ErrGroupNotFound
	}
	delete(m.groups, groupID)
	return nil
}

type mockCategoryStore struct {
	sets map[string][]model.Category
}

func (m *mockCategoryStore) Get(_ context.Context, endpointID string) ([]model.Category, error) {
	return orEmpty(m.sets[endpointID]), nil
}

func (m *mockCategoryStore) Replace(_ context.Context, endpointID string, categories []model.Category) error {
	if m.sets == nil {
		m.sets = make(map[string][]model.Category)
	}
	m.sets[endpointID] = categories
	return nil
}

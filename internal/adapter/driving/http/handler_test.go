package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	httphandler "github.com/regolet/mikrotikmonitoring/internal/adapter/driving/http"
	"github.com/regolet/mikrotikmonitoring/internal/application"
	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockEndpointStore struct {
	mu        sync.Mutex
	endpoints []model.Endpoint
}

func (m *mockEndpointStore) Add(_ context.Context, ep model.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = append(m.endpoints, ep)
	return nil
}

func (m *mockEndpointStore) Update(_ context.Context, ep model.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.endpoints {
		if m.endpoints[i].ID == ep.ID {
			m.endpoints[i] = ep
			return nil
		}
	}
	return driven.ErrEndpointNotFound
}

func (m *mockEndpointStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.endpoints {
		if m.endpoints[i].ID == id {
			m.endpoints = append(m.endpoints[:i], m.endpoints[i+1:]...)
			return nil
		}
	}
	return driven.ErrEndpointNotFound
}

func (m *mockEndpointStore) ListAll(_ context.Context) ([]model.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Endpoint(nil), m.endpoints...), nil
}

type mockRouterClient struct {
	connectErr error
	fetchErr   error
	identity   string
	resources  model.SystemResources
	interfaces []model.InterfaceRecord
	pppoe      []model.InterfaceRecord
	sessions   []model.SessionRecord
	accounts   []model.AccountRecord
	leases     []model.LeaseRecord
	hotspot    []model.HotspotSessionRecord
}

func (m *mockRouterClient) Connect(context.Context) error        { return m.connectErr }
func (m *mockRouterClient) TestConnection(context.Context) error { return m.connectErr }
func (m *mockRouterClient) Disconnect()                          {}
func (m *mockRouterClient) LastError() string                    { return "" }
func (m *mockRouterClient) FetchSystemResources(context.Context) (model.SystemResources, error) {
	return m.resources, m.fetchErr
}
func (m *mockRouterClient) FetchIdentity(context.Context) (string, error) {
	return m.identity, m.fetchErr
}
func (m *mockRouterClient) FetchInterfaces(context.Context) ([]model.InterfaceRecord, error) {
	return orEmpty(m.interfaces), m.fetchErr
}
func (m *mockRouterClient) FetchActiveSessions(context.Context) ([]model.SessionRecord, error) {
	return orEmpty(m.sessions), m.fetchErr
}
func (m *mockRouterClient) FetchAccounts(context.Context) ([]model.AccountRecord, error) {
	return orEmpty(m.accounts), m.fetchErr
}
func (m *mockRouterClient) FetchInterfaceStatistics(context.Context) ([]model.InterfaceStats, error) {
	return []model.InterfaceStats{}, m.fetchErr
}
func (m *mockRouterClient) FetchLeases(context.Context) ([]model.LeaseRecord, error) {
	return orEmpty(m.leases), m.fetchErr
}
func (m *mockRouterClient) FetchHotspotSessions(context.Context) ([]model.HotspotSessionRecord, error) {
	return orEmpty(m.hotspot), m.fetchErr
}
func (m *mockRouterClient) FetchPPPoEInterfacesWithStats(context.Context) ([]model.InterfaceRecord, error) {
	return orEmpty(m.pppoe), m.fetchErr
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type mockFactory struct {
	clients map[string]*mockRouterClient
}

func (f *mockFactory) NewClient(ep model.Endpoint) driven.RouterClient {
	if c, ok := f.clients[ep.ID]; ok {
		return c
	}
	return &mockRouterClient{connectErr: errors.New("connection refused")}
}

type mockGroupStore struct {
	groups []model.Group
	err    error
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
	if m.err != nil {
		return model.Group{}, m.err
	}
	g.ID = int64(len(m.groups) + 1)
	m.groups = append(m.groups, g)
	return g, nil
}

func (m *mockGroupStore) Update(_ context.Context, g model.Group) error {
	for i := range m.groups {
		if m.groups[i].ID == g.ID && m.groups[i].EndpointID == g.EndpointID {
			m.groups[i].Name = g.Name
			m.groups[i].Description = g.Description
			return nil
		}
	}
	return driven.ErrGroupNotFound
}

func (m *mockGroupStore) SetAccounts(_ context.Context, endpointID string, groupID int64, accounts []string) error {
	for i := range m.groups {
		if m.groups[i].ID == groupID && m.groups[i].EndpointID == endpointID {
			m.groups[i].Accounts = accounts
			return nil
		}
	}
	return driven.ErrGroupNotFound
}

func (m *mockGroupStore) Delete(_ context.Context, endpointID string, groupID int64) error {
	for i := range m.groups {
		if m.groups[i].ID == groupID && m.groups[i].EndpointID == endpointID {
			m.groups = append(m.groups[:i], m.groups[i+1:]...)
			return nil
		}
	}
	return driven.ErrGroupNotFound
}

type mockCategoryStore struct {
	sets map[string][]model.Category
}

func (m *mockCategoryStore) Get(_ context.Context, endpointID string) ([]model.Category, error) {
	return orEmpty(m.sets[endpointID]), nil
}

func (m *mockCategoryStore) Replace(_ context.Context, endpointID string, categories []model.Category) error {
	m.sets[endpointID] = categories
	return nil
}

// --- Test helpers ---

type testEnv struct {
	mux     http.Handler
	store   *mockEndpointStore
	factory *mockFactory
	groups  *mockGroupStore
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, endpoints ...model.Endpoint) *testEnv {
	t.Helper()
	return newTestEnvWithHub(t, nil, endpoints...)
}

func newTestEnvWithHub(t *testing.T, hub *httphandler.Hub, endpoints ...model.Endpoint) *testEnv {
	t.Helper()

	env := &testEnv{
		store:   &mockEndpointStore{endpoints: endpoints},
		factory: &mockFactory{clients: map[string]*mockRouterClient{}},
		groups:  &mockGroupStore{},
	}

	registry, err := application.NewRegistry(context.Background(), env.store)
	require.NoError(t, err)

	supervisor := application.NewSupervisor(registry, env.factory)
	telemetry := application.NewTelemetryService(registry, supervisor)
	selection := application.NewSelection(registry, "")
	groups := application.NewGroupService(registry, env.groups, &mockCategoryStore{sets: map[string][]model.Category{}})

	h := httphandler.NewHandler(registry, supervisor, telemetry, selection, groups, hub, discardLogger())
	env.mux = httphandler.NewServeMux(h, discardLogger())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func routerEndpoint(id string) model.Endpoint {
	return model.Endpoint{
		ID:        id,
		Name:      "Router " + id,
		Host:      "10.0.0.1",
		Port:      8728,
		Username:  "admin",
		Password:  "s3cret",
		Transport: model.TransportPlain,
		Enabled:   true,
		Status:    model.StatusUnknown,
	}
}

// --- Tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	resp := decode[httphandler.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Endpoints)
	assert.NotEmpty(t, resp.Time)
}

func TestHealth_CountsLiveClients(t *testing.T) {
	hub := httphandler.NewHub(discardLogger(), nil)
	go hub.Run()
	defer hub.Stop()

	env := newTestEnvWithHub(t, hub, routerEndpoint("r1"))
	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/api/v1/health", "")
		var resp httphandler.HealthResponse
		return json.Unmarshal(rec.Body.Bytes(), &resp) == nil && resp.LiveClients == 1
	}, time.Second, 10*time.Millisecond)
}

func TestListEndpoints_NeverExposesPassword(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodGet, "/api/v1/endpoints", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "s3cret")
	assert.NotContains(t, rec.Body.String(), `"password"`)

	resp := decode[[]httphandler.EndpointResponse](t, rec)
	require.Len(t, resp, 1)
	assert.Equal(t, "r1", resp[0].ID)
	assert.True(t, resp[0].HasPassword)
	assert.Equal(t, "unknown", resp[0].Status)
}

func TestListEndpoints_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/endpoints", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/endpoints/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/endpoints",
		`{"name":"Edge","host":"10.1.1.1","username":"api","password":"pw","transport":"tls"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[httphandler.EndpointResponse](t, rec)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "tls", resp.Transport)
	assert.True(t, resp.Enabled)
	assert.True(t, resp.HasPassword)

	stored, _ := env.store.ListAll(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, "pw", stored[0].Password)
}

func TestCreateEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"missing host", `{"name":"x","username":"u"}`, http.StatusBadRequest},
		{"bad transport", `{"name":"x","host":"h","username":"u","transport":"ssh"}`, http.StatusBadRequest},
		{"bad port", `{"name":"x","host":"h","username":"u","port":70000}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/endpoints", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestUpdateEndpoint_KeepsPasswordWhenEmpty(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodPut, "/api/v1/endpoints/r1", `{"name":"Renamed","password":""}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[httphandler.EndpointResponse](t, rec)
	assert.Equal(t, "Renamed", resp.Name)

	stored, _ := env.store.ListAll(context.Background())
	assert.Equal(t, "s3cret", stored[0].Password)
}

func TestUpdateEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/endpoints/nope", `{"name":"x"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodDelete, "/api/v1/endpoints/r1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/endpoints/r1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestEndpoint(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"), routerEndpoint("dead"))
	env.factory.clients["r1"] = &mockRouterClient{identity: "CoreRouter"}

	rec := env.do(t, http.MethodPost, "/api/v1/endpoints/r1/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ok := decode[application.TestResult](t, rec)
	assert.True(t, ok.Success)
	assert.Equal(t, "CoreRouter", ok.Identity)
	assert.Equal(t, "Router r1", ok.EndpointName)

	rec = env.do(t, http.MethodPost, "/api/v1/endpoints/dead/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	failed := decode[application.TestResult](t, rec)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "connection refused")

	rec = env.do(t, http.MethodPost, "/api/v1/endpoints/missing/test", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored, _ := env.store.ListAll(context.Background())
	assert.Equal(t, model.StatusConnected, stored[0].Status)
	assert.Equal(t, model.StatusDisconnected, stored[1].Status)
}

func TestActiveEndpoint(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"), routerEndpoint("r2"))

	rec := env.do(t, http.MethodGet, "/api/v1/endpoints/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", decode[httphandler.ActiveEndpointResponse](t, rec).EndpointID)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/active", `{"endpoint_id":"r2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[httphandler.ActiveEndpointResponse](t, rec)
	assert.Equal(t, "r2", resp.EndpointID)
	require.NotNil(t, resp.Endpoint)
	assert.Equal(t, "Router r2", resp.Endpoint.Name)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/active", `{"endpoint_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/active", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard_Success(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))
	env.factory.clients["r1"] = &mockRouterClient{
		pppoe:    []model.InterfaceRecord{{Name: "<pppoe-alice>", Type: "pppoe-in", RxBytes: "100", TxBytes: "40"}},
		sessions: []model.SessionRecord{{Name: "alice", Address: "10.9.0.2"}},
		accounts: []model.AccountRecord{{Name: "alice"}, {Name: "bob", Disabled: true}},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[httphandler.SnapshotResponse](t, rec)
	assert.True(t, snap.Success)
	assert.Equal(t, "r1", snap.EndpointID)
	require.Len(t, snap.PPPoEInterfaces, 1)
	assert.Equal(t, "10.9.0.2", snap.PPPoEInterfaces[0].Address)
	assert.Equal(t, 2, snap.Stats.TotalAccounts)
	assert.Equal(t, 1, snap.Stats.OnlineAccounts)
	assert.Equal(t, int64(100), snap.Stats.TotalDownloadBytes)
	require.Len(t, snap.Offline, 1)
	assert.Equal(t, "Disabled", snap.Offline[0].Status)
}

func TestTelemetryRoutes_FailedEndpointRendersWith200(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("dead"))

	for _, path := range []string{
		"/api/v1/dashboard",
		"/api/v1/pppoe",
		"/api/v1/ppp/accounts",
		"/api/v1/ppp/active",
		"/api/v1/interfaces",
		"/api/v1/resources",
		"/api/v1/status",
		"/api/v1/export",
	} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, path+"?endpoint_id=dead", "")

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], "connection refused")
		})
	}
}

func TestTelemetryRoutes_NoEndpointConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[httphandler.SnapshotResponse](t, rec)
	assert.False(t, snap.Success)
	assert.Equal(t, "no endpoint configured", snap.Error)
	assert.NotNil(t, snap.Accounts)
}

func TestResources(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))
	env.factory.clients["r1"] = &mockRouterClient{resources: model.SystemResources{
		Version:     "7.14",
		TotalMemory: "1000",
		FreeMemory:  "250",
	}}

	rec := env.do(t, http.MethodGet, "/api/v1/resources", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[httphandler.ResourcesResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "7.14", resp.Resources["version"])
	require.NotNil(t, resp.MemoryUsedPercent)
	assert.InDelta(t, 75.0, *resp.MemoryUsedPercent, 0.001)
	assert.Nil(t, resp.DiskUsedPercent)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))
	env.factory.clients["r1"] = &mockRouterClient{
		identity:   "CoreRouter",
		interfaces: []model.InterfaceRecord{{Name: "ether1", Type: "ether"}},
		leases:     []model.LeaseRecord{{Address: "192.168.88.10", MACAddress: "AA:BB:CC:00:11:22", Dynamic: true}},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/export?endpoint_id=r1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	resp := decode[httphandler.ExportResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "CoreRouter", resp.Identity)
	assert.Len(t, resp.Interfaces, 1)
	require.Len(t, resp.Leases, 1)
	assert.Equal(t, "AA:BB:CC:00:11:22", resp.Leases[0].MACAddress)
	assert.True(t, resp.Leases[0].Dynamic)
	assert.NotNil(t, resp.Hotspot)
	assert.Empty(t, resp.Hotspot)
	assert.NotContains(t, rec.Body.String(), "s3cret")

	rec = env.do(t, http.MethodGet, "/api/v1/export?endpoint_id=ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupsLifecycle(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodPost, "/api/v1/endpoints/r1/groups",
		`{"name":" Tower A ","accounts":["alice"," bob","alice"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[httphandler.GroupResponse](t, rec)
	assert.Equal(t, "Tower A", created.Name)
	assert.Equal(t, []string{"alice", "bob"}, created.Accounts)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/r1/groups/1/members", `{"accounts":["carol"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/r1/groups/1", `{"name":"Tower B"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/endpoints/r1/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]httphandler.GroupResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Tower B", list[0].Name)
	assert.Equal(t, []string{"carol"}, list[0].Accounts)

	rec = env.do(t, http.MethodDelete, "/api/v1/endpoints/r1/groups/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/endpoints/r1/groups/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroups_Errors(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodGet, "/api/v1/endpoints/ghost/groups", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/endpoints/r1/groups", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/r1/groups/abc", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.groups.err = driven.ErrGroupExists
	rec = env.do(t, http.MethodPost, "/api/v1/endpoints/r1/groups", `{"name":"dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, routerEndpoint("r1"))

	rec := env.do(t, http.MethodGet, "/api/v1/endpoints/r1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/r1/categories",
		`[{"name":"North","groups":["Tower A","Tower B"]},{"name":"South","groups":[]}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]model.Category](t, rec)
	require.Len(t, cats, 2)
	assert.Equal(t, "North", cats[0].Name)
	assert.Equal(t, []string{"Tower A", "Tower B"}, cats[0].Groups)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/r1/categories", `[{"name":""}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/endpoints/ghost/categories", `[]`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	// A nil handler dependency panics inside the route; the middleware
	// must turn that into a 500 JSON body.
	h := httphandler.NewHandler(nil, nil, nil, nil, nil, nil, discardLogger())
	mux := httphandler.NewServeMux(h, discardLogger())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/endpoints", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

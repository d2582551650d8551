// Package httphandler serves the monitoring REST API and the dashboard
// WebSocket.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/application"
	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

const errNoEndpoint = "no endpoint configured"

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	registry   *application.Registry
	supervisor *application.Supervisor
	telemetry  *application.TelemetryService
	selection  *application.Selection
	groups     *application.GroupService
	hub        *Hub
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	registry *application.Registry,
	supervisor *application.Supervisor,
	telemetry *application.TelemetryService,
	selection *application.Selection,
	groups *application.GroupService,
	hub *Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		registry:   registry,
		supervisor: supervisor,
		telemetry:  telemetry,
		selection:  selection,
		groups:     groups,
		hub:        hub,
		logger:     logger,
		now:        time.Now,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Telemetry for ?endpoint_id= or the active endpoint.
	mux.HandleFunc("GET /api/v1/status", h.Status)
	mux.HandleFunc("GET /api/v1/resources", h.Resources)
	mux.HandleFunc("GET /api/v1/interfaces", h.Interfaces)
	mux.HandleFunc("GET /api/v1/pppoe", h.PPPoE)
	mux.HandleFunc("GET /api/v1/ppp/active", h.ActiveSessions)
	mux.HandleFunc("GET /api/v1/ppp/accounts", h.Accounts)
	mux.HandleFunc("GET /api/v1/dashboard", h.Dashboard)
	mux.HandleFunc("GET /api/v1/export", h.Export)

	mux.HandleFunc("GET /api/v1/endpoints", h.ListEndpoints)
	mux.HandleFunc("POST /api/v1/endpoints", h.CreateEndpoint)
	mux.HandleFunc("GET /api/v1/endpoints/active", h.GetActiveEndpoint)
	mux.HandleFunc("PUT /api/v1/endpoints/active", h.SetActiveEndpoint)
	mux.HandleFunc("GET /api/v1/endpoints/{id}", h.GetEndpoint)
	mux.HandleFunc("PUT /api/v1/endpoints/{id}", h.UpdateEndpoint)
	mux.HandleFunc("DELETE /api/v1/endpoints/{id}", h.DeleteEndpoint)
	mux.HandleFunc("POST /api/v1/endpoints/{id}/test", h.TestEndpoint)

	mux.HandleFunc("GET /api/v1/endpoints/{id}/groups", h.ListGroups)
	mux.HandleFunc("POST /api/v1/endpoints/{id}/groups", h.CreateGroup)
	mux.HandleFunc("PUT /api/v1/endpoints/{id}/groups/{groupID}", h.UpdateGroup)
	mux.HandleFunc("DELETE /api/v1/endpoints/{id}/groups/{groupID}", h.DeleteGroup)
	mux.HandleFunc("PUT /api/v1/endpoints/{id}/groups/{groupID}/members", h.SetGroupMembers)
	mux.HandleFunc("GET /api/v1/endpoints/{id}/categories", h.GetCategories)
	mux.HandleFunc("PUT /api/v1/endpoints/{id}/categories", h.ReplaceCategories)

	if h.hub != nil {
		mux.Handle("GET /api/v1/ws", h.hub)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports liveness with the endpoint and WebSocket client counts.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Time:      h.now().UTC().Format(time.RFC3339),
		Endpoints: h.registry.Len(),
	}
	if h.hub != nil {
		resp.LiveClients = h.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveEndpoint returns the endpoint_id query parameter or the active
// endpoint. ok is false when neither exists.
func (h *Handler) resolveEndpoint(r *http.Request) (string, bool) {
	return h.selection.Resolve(r.URL.Query().Get("endpoint_id"))
}

// StatusResponse reports the outcome of a live connection test.
type StatusResponse struct {
	EndpointID string `json:"endpoint_id"`
	application.TestResult
}

// Status connects to the endpoint, tests the connection and reports its
// identity.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveEndpoint(r)
	if !ok {
		writeJSON(w, http.StatusOK, StatusResponse{TestResult: application.TestResult{Error: errNoEndpoint}})
		return
	}

	result := h.supervisor.TestEndpoint(r.Context(), id)
	writeJSON(w, http.StatusOK, StatusResponse{EndpointID: id, TestResult: result})
}

// Resources returns system resources and usage percentages.
func (h *Handler) Resources(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveEndpoint(r)
	if !ok {
		writeJSON(w, http.StatusOK, ResourcesResponse{Error: errNoEndpoint, Resources: map[string]string{}})
		return
	}

	res, usage, err := h.telemetry.Resources(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, ResourcesResponse{EndpointID: id, Error: err.Error(), Resources: map[string]string{}})
		return
	}

	writeJSON(w, http.StatusOK, toResourcesResponse(id, res, usage))
}

// Interfaces returns every interface on the endpoint.
func (h *Handler) Interfaces(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveEndpoint(r)
	if !ok {
		writeJSON(w, http.StatusOK, InterfacesResponse{Error: errNoEndpoint, Interfaces: []InterfaceResponse{}})
		return
	}

	ifaces, err := h.telemetry.Interfaces(r.Context(), id)
	resp := InterfacesResponse{
		EndpointID: id,
		Success:    err == nil,
		Interfaces: toInterfaceResponses(ifaces),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ActiveSessions returns the endpoint's active PPP sessions.
func (h *Handler) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveEndpoint(r)
	if !ok {
		writeJSON(w, http.StatusOK, SessionsResponse{Error: errNoEndpoint, Sessions: []SessionResponse{}})
		return
	}

	sessions, err := h.telemetry.ActiveSessions(r.Context(), id)
	resp := SessionsResponse{
		EndpointID: id,
		Success:    err == nil,
		Sessions:   toSessionResponses(sessions),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// PPPoE returns correlated PPPoE interfaces, accounts, sessions and stats.
func (h *Handler) PPPoE(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	writeJSON(w, http.StatusOK, PPPoEResponse{
		EndpointID: snap.EndpointID,
		Success:    snap.Success,
		Error:      snap.Error,
		Interfaces: toInterfaceResponses(snap.PPPoEInterfaces),
		Accounts:   toAccountResponses(snap.Accounts),
		Sessions:   toSessionResponses(snap.Sessions),
		Stats:      toStatsResponse(snap.Stats),
	})
}

// Accounts returns accounts partitioned into online and offline.
func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	writeJSON(w, http.StatusOK, AccountsResponse{
		EndpointID: snap.EndpointID,
		Success:    snap.Success,
		Error:      snap.Error,
		Accounts:   toAccountResponses(snap.Accounts),
		Online:     toAccountResponses(snap.Online),
		Offline:    toOfflineResponses(snap.Offline),
		Stats:      toStatsResponse(snap.Stats),
	})
}

// Dashboard returns the full snapshot.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.snapshot(r)))
}

func (h *Handler) snapshot(r *http.Request) model.Snapshot {
	id, ok := h.resolveEndpoint(r)
	if !ok {
		return model.Snapshot{Error: errNoEndpoint, CapturedAt: h.now()}
	}
	return h.telemetry.Snapshot(r.Context(), id)
}

// Export returns everything known about one endpoint as a JSON attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveEndpoint(r)
	if !ok {
		writeJSON(w, http.StatusOK, ExportResponse{Error: errNoEndpoint})
		return
	}

	now := h.now()
	report, err := h.telemetry.Export(r.Context(), id)
	if errors.Is(err, driven.ErrEndpointNotFound) {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	if err != nil {
		ep, _ := h.registry.Get(id)
		writeJSON(w, http.StatusOK, ExportResponse{
			Error:      err.Error(),
			ExportedAt: formatTime(now),
			Endpoint:   toEndpointResponse(ep),
			Interfaces: []InterfaceResponse{},
			Leases:     []LeaseResponse{},
			Hotspot:    []HotspotSessionResponse{},
		})
		return
	}

	filename := "mikromon-" + id + "-" + now.UTC().Format("20060102-150405") + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writeJSON(w, http.StatusOK, toExportResponse(report, now))
}

// ListEndpoints returns all registered endpoints.
func (h *Handler) ListEndpoints(w http.ResponseWriter, _ *http.Request) {
	endpoints := h.registry.List()

	resp := make([]EndpointResponse, 0, len(endpoints))
	for _, ep := range endpoints {
		resp = append(resp, toEndpointResponse(ep))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetEndpoint returns a single endpoint.
func (h *Handler) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, toEndpointResponse(ep))
}

// CreateEndpoint registers a new endpoint.
func (h *Handler) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var req EndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ep, err := h.registry.Add(r.Context(), req.toModel())
	if err != nil {
		h.writeDomainError(w, "failed to add endpoint", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEndpointResponse(ep))
}

// UpdateEndpoint applies a partial update. Absent or empty fields keep
// their stored values.
func (h *Handler) UpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	var req EndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ep, err := h.registry.Update(r.Context(), r.PathValue("id"), req.toPatch())
	if err != nil {
		h.writeDomainError(w, "failed to update endpoint", err)
		return
	}

	writeJSON(w, http.StatusOK, toEndpointResponse(ep))
}

// DeleteEndpoint removes an endpoint together with its groups and categories.
func (h *Handler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.registry.Remove(r.Context(), id); err != nil {
		h.writeDomainError(w, "failed to remove endpoint", err)
		return
	}
	if h.hub != nil {
		h.hub.Forget(id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// TestEndpoint runs a live connection test against one endpoint.
func (h *Handler) TestEndpoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.registry.Get(id); !ok {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, h.supervisor.TestEndpoint(r.Context(), id))
}

// GetActiveEndpoint returns the endpoint the dashboard is viewing.
func (h *Handler) GetActiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	id, ok := h.selection.Active()
	if !ok {
		writeJSON(w, http.StatusOK, ActiveEndpointResponse{})
		return
	}

	resp := ActiveEndpointResponse{EndpointID: id}
	if ep, found := h.registry.Get(id); found {
		epResp := toEndpointResponse(ep)
		resp.Endpoint = &epResp
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetActiveEndpoint switches the dashboard to another endpoint.
func (h *Handler) SetActiveEndpoint(w http.ResponseWriter, r *http.Request) {
	var req ActiveEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EndpointID == "" {
		writeError(w, http.StatusBadRequest, "endpoint_id is required")
		return
	}

	if err := h.selection.Set(req.EndpointID); err != nil {
		h.writeDomainError(w, "failed to select endpoint", err)
		return
	}

	h.GetActiveEndpoint(w, r)
}

// writeDomainError maps domain sentinel errors to HTTP statuses. Anything
// unrecognized is logged and reported as a 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, driven.ErrEndpointNotFound):
		writeError(w, http.StatusNotFound, "endpoint not found")
	case errors.Is(err, driven.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group not found")
	case errors.Is(err, driven.ErrEndpointExists):
		writeError(w, http.StatusConflict, "endpoint already exists")
	case errors.Is(err, driven.ErrGroupExists):
		writeError(w, http.StatusConflict, "group name already in use")
	case errors.Is(err, application.ErrInvalidEndpoint), errors.Is(err, application.ErrInvalidGroup):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

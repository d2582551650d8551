package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/application"
	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// EndpointResponse is the JSON representation of an endpoint. The password
// is never included; HasPassword reports whether one is stored.
type EndpointResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Host           string  `json:"host"`
	Port           int     `json:"port"`
	Username       string  `json:"username"`
	HasPassword    bool    `json:"has_password"`
	Transport      string  `json:"transport"`
	Enabled        bool    `json:"enabled"`
	Status         string  `json:"status"`
	LastConnection *string `json:"last_connection"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// EndpointRequest is the JSON body for creating an endpoint and, with
// absent fields left unchanged, for updating one.
type EndpointRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Host        *string `json:"host"`
	Port        *int    `json:"port"`
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	Transport   *string `json:"transport"`
	Enabled     *bool   `json:"enabled"`
}

// ActiveEndpointRequest is the JSON body for switching the active endpoint.
type ActiveEndpointRequest struct {
	EndpointID string `json:"endpoint_id"`
}

// ActiveEndpointResponse names the endpoint the dashboard is viewing.
type ActiveEndpointResponse struct {
	EndpointID string            `json:"endpoint_id"`
	Endpoint   *EndpointResponse `json:"endpoint"`
}

// InterfaceResponse is the JSON representation of an interface.
type InterfaceResponse struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Enabled        bool   `json:"enabled"`
	Running        bool   `json:"running"`
	MACAddress     string `json:"mac_address"`
	LastLinkUpTime string `json:"last_link_up_time"`
	RxBytes        string `json:"rx_bytes"`
	TxBytes        string `json:"tx_bytes"`
	RxRate         string `json:"rx_rate"`
	TxRate         string `json:"tx_rate"`
	Address        string `json:"address"`
}

// SessionResponse is the JSON representation of an active PPP session.
type SessionResponse struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Uptime   string `json:"uptime"`
	CallerID string `json:"caller_id"`
	Service  string `json:"service"`
}

// LeaseResponse is the JSON representation of a DHCP lease.
type LeaseResponse struct {
	Address      string `json:"address"`
	MACAddress   string `json:"mac_address"`
	HostName     string `json:"host_name"`
	Server       string `json:"server"`
	Status       string `json:"status"`
	ExpiresAfter string `json:"expires_after"`
	Dynamic      bool   `json:"dynamic"`
	Disabled     bool   `json:"disabled"`
	Comment      string `json:"comment"`
}

// HotspotSessionResponse is the JSON representation of a hotspot user.
type HotspotSessionResponse struct {
	User       string `json:"user"`
	Address    string `json:"address"`
	MACAddress string `json:"mac_address"`
	Server     string `json:"server"`
	Uptime     string `json:"uptime"`
	LoginBy    string `json:"login_by"`
	BytesIn    string `json:"bytes_in"`
	BytesOut   string `json:"bytes_out"`
}

// AccountResponse is the JSON representation of a PPP account.
type AccountResponse struct {
	Name          string `json:"name"`
	Profile       string `json:"profile"`
	Service       string `json:"service"`
	Disabled      bool   `json:"disabled"`
	LastLoggedOut string `json:"last_logged_out"`
	Comment       string `json:"comment"`
}

// OfflineAccountResponse is an account without an active session.
type OfflineAccountResponse struct {
	AccountResponse
	Status          string `json:"status"`
	DowntimeSeconds int64  `json:"downtime_seconds"`
}

// StatsResponse is the JSON representation of aggregate stats.
type StatsResponse struct {
	TotalAccounts      int    `json:"total_accounts"`
	OnlineAccounts     int    `json:"online_accounts"`
	OfflineAccounts    int    `json:"offline_accounts"`
	EnabledAccounts    int    `json:"enabled_accounts"`
	DisabledAccounts   int    `json:"disabled_accounts"`
	TotalDownloadBytes int64  `json:"total_download_bytes"`
	TotalUploadBytes   int64  `json:"total_upload_bytes"`
	LastUpdated        string `json:"last_updated"`
}

// SnapshotResponse is the full dashboard payload for one endpoint.
type SnapshotResponse struct {
	EndpointID      string                   `json:"endpoint_id"`
	EndpointName    string                   `json:"endpoint_name"`
	Success         bool                     `json:"success"`
	Error           string                   `json:"error,omitempty"`
	PPPoEInterfaces []InterfaceResponse      `json:"pppoe_interfaces"`
	Accounts        []AccountResponse        `json:"accounts"`
	Online          []AccountResponse        `json:"online_accounts"`
	Offline         []OfflineAccountResponse `json:"offline_accounts"`
	Sessions        []SessionResponse        `json:"active_sessions"`
	Stats           StatsResponse            `json:"stats"`
	CapturedAt      string                   `json:"captured_at"`
}

// PPPoEResponse is the PPPoE view: correlated interfaces, sessions and stats.
type PPPoEResponse struct {
	EndpointID string              `json:"endpoint_id"`
	Success    bool                `json:"success"`
	Error      string              `json:"error,omitempty"`
	Interfaces []InterfaceResponse `json:"interfaces"`
	Accounts   []AccountResponse   `json:"accounts"`
	Sessions   []SessionResponse   `json:"active_sessions"`
	Stats      StatsResponse       `json:"stats"`
}

// AccountsResponse is the account view partitioned into online and offline.
type AccountsResponse struct {
	EndpointID string                   `json:"endpoint_id"`
	Success    bool                     `json:"success"`
	Error      string                   `json:"error,omitempty"`
	Accounts   []AccountResponse        `json:"accounts"`
	Online     []AccountResponse        `json:"online_accounts"`
	Offline    []OfflineAccountResponse `json:"offline_accounts"`
	Stats      StatsResponse            `json:"stats"`
}

// SessionsResponse lists active PPP sessions.
type SessionsResponse struct {
	EndpointID string            `json:"endpoint_id"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Sessions   []SessionResponse `json:"active_sessions"`
}

// InterfacesResponse lists every interface on an endpoint.
type InterfacesResponse struct {
	EndpointID string              `json:"endpoint_id"`
	Success    bool                `json:"success"`
	Error      string              `json:"error,omitempty"`
	Interfaces []InterfaceResponse `json:"interfaces"`
}

// ResourcesResponse carries system resources and derived usage percentages.
// Percentages are null when the totals were not reported.
type ResourcesResponse struct {
	EndpointID        string            `json:"endpoint_id"`
	Success           bool              `json:"success"`
	Error             string            `json:"error,omitempty"`
	Resources         map[string]string `json:"resources"`
	MemoryUsedPercent *float64          `json:"memory_used_percent"`
	DiskUsedPercent   *float64          `json:"disk_used_percent"`
}

// ExportResponse is the downloadable report for one endpoint.
type ExportResponse struct {
	Success    bool                     `json:"success"`
	Error      string                   `json:"error,omitempty"`
	ExportedAt string                   `json:"exported_at"`
	Endpoint   EndpointResponse         `json:"endpoint"`
	Identity   string                   `json:"identity"`
	Resources  ResourcesResponse        `json:"resources"`
	Interfaces []InterfaceResponse      `json:"interfaces"`
	Leases     []LeaseResponse          `json:"dhcp_leases"`
	Hotspot    []HotspotSessionResponse `json:"hotspot_users"`
	Snapshot   *SnapshotResponse        `json:"snapshot,omitempty"`
}

// GroupResponse is the JSON representation of an account group.
type GroupResponse struct {
	ID          int64    `json:"id"`
	EndpointID  string   `json:"endpoint_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Accounts    []string `json:"accounts"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// GroupRequest is the JSON body for creating or renaming a group.
type GroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Accounts    []string `json:"accounts"`
}

// MembersRequest is the JSON body for replacing a group's members.
type MembersRequest struct {
	Accounts []string `json:"accounts"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Time        string `json:"time"`
	Endpoints   int    `json:"endpoints"`
	LiveClients int    `json:"live_clients"`
}

// dashboardEvent is the envelope pushed to WebSocket clients.
type dashboardEvent struct {
	Event string           `json:"event"`
	Data  SnapshotResponse `json:"data"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toEndpointResponse converts a domain Endpoint to its JSON representation.
func toEndpointResponse(ep model.Endpoint) EndpointResponse {
	resp := EndpointResponse{
		ID:          ep.ID,
		Name:        ep.Name,
		Description: ep.Description,
		Host:        ep.Host,
		Port:        ep.Port,
		Username:    ep.Username,
		HasPassword: ep.Password != "",
		Transport:   string(ep.Transport),
		Enabled:     ep.Enabled,
		Status:      string(ep.Status),
		CreatedAt:   formatTime(ep.CreatedAt),
		UpdatedAt:   formatTime(ep.UpdatedAt),
	}
	if ep.LastConnection != nil {
		ts := formatTime(*ep.LastConnection)
		resp.LastConnection = &ts
	}
	return resp
}

// toModel converts a create request to a domain Endpoint. Enabled defaults
// to true.
func (req EndpointRequest) toModel() model.Endpoint {
	ep := model.Endpoint{Enabled: true}
	if req.Name != nil {
		ep.Name = *req.Name
	}
	if req.Description != nil {
		ep.Description = *req.Description
	}
	if req.Host != nil {
		ep.Host = *req.Host
	}
	if req.Port != nil {
		ep.Port = *req.Port
	}
	if req.Username != nil {
		ep.Username = *req.Username
	}
	if req.Password != nil {
		ep.Password = *req.Password
	}
	if req.Transport != nil {
		ep.Transport = model.TransportMode(*req.Transport)
	}
	if req.Enabled != nil {
		ep.Enabled = *req.Enabled
	}
	return ep
}

// toPatch converts an update request to an EndpointPatch.
func (req EndpointRequest) toPatch() model.EndpointPatch {
	patch := model.EndpointPatch{
		Name:        req.Name,
		Description: req.Description,
		Host:        req.Host,
		Port:        req.Port,
		Username:    req.Username,
		Password:    req.Password,
		Enabled:     req.Enabled,
	}
	if req.Transport != nil {
		mode := model.TransportMode(*req.Transport)
		patch.Transport = &mode
	}
	return patch
}

func toInterfaceResponses(ifaces []model.InterfaceRecord) []InterfaceResponse {
	resp := make([]InterfaceResponse, 0, len(ifaces))
	for _, i := range ifaces {
		resp = append(resp, InterfaceResponse{
			Name:           i.Name,
			Type:           i.Type,
			Enabled:        i.Enabled,
			Running:        i.Running,
			MACAddress:     i.MACAddress,
			LastLinkUpTime: i.LastLinkUpTime,
			RxBytes:        i.RxBytes,
			TxBytes:        i.TxBytes,
			RxRate:         i.RxRate,
			TxRate:         i.TxRate,
			Address:        i.Address,
		})
	}
	return resp
}

func toSessionResponses(sessions []model.SessionRecord) []SessionResponse {
	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, SessionResponse{
			Name:     s.Name,
			Address:  s.Address,
			Uptime:   s.Uptime,
			CallerID: s.CallerID,
			Service:  s.Service,
		})
	}
	return resp
}

func toAccountResponse(a model.AccountRecord) AccountResponse {
	return AccountResponse{
		Name:          a.Name,
		Profile:       a.Profile,
		Service:       a.Service,
		Disabled:      a.Disabled,
		LastLoggedOut: a.LastLoggedOut,
		Comment:       a.Comment,
	}
}

func toAccountResponses(accounts []model.AccountRecord) []AccountResponse {
	resp := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	return resp
}

func toOfflineResponses(offline []model.OfflineAccount) []OfflineAccountResponse {
	resp := make([]OfflineAccountResponse, 0, len(offline))
	for _, o := range offline {
		resp = append(resp, OfflineAccountResponse{
			AccountResponse: toAccountResponse(o.Account),
			Status:          string(o.Status),
			DowntimeSeconds: o.DowntimeSeconds,
		})
	}
	return resp
}

func toStatsResponse(s model.AggregateStats) StatsResponse {
	return StatsResponse{
		TotalAccounts:      s.TotalAccounts,
		OnlineAccounts:     s.OnlineAccounts,
		OfflineAccounts:    s.OfflineAccounts,
		EnabledAccounts:    s.EnabledAccounts,
		DisabledAccounts:   s.DisabledAccounts,
		TotalDownloadBytes: s.TotalDownloadBytes,
		TotalUploadBytes:   s.TotalUploadBytes,
		LastUpdated:        formatTime(s.LastUpdated),
	}
}

// toSnapshotResponse converts a Snapshot to the dashboard payload.
func toSnapshotResponse(snap model.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		EndpointID:      snap.EndpointID,
		EndpointName:    snap.EndpointName,
		Success:         snap.Success,
		Error:           snap.Error,
		PPPoEInterfaces: toInterfaceResponses(snap.PPPoEInterfaces),
		Accounts:        toAccountResponses(snap.Accounts),
		Online:          toAccountResponses(snap.Online),
		Offline:         toOfflineResponses(snap.Offline),
		Sessions:        toSessionResponses(snap.Sessions),
		Stats:           toStatsResponse(snap.Stats),
		CapturedAt:      formatTime(snap.CapturedAt),
	}
}

// toResourcesResponse flattens SystemResources into the reported key set
// plus any extra attributes the device returned.
func toResourcesResponse(id string, res model.SystemResources, usage model.ResourceUsage) ResourcesResponse {
	fields := make(map[string]string, len(res.Raw)+11)
	for k, v := range res.Raw {
		fields[k] = v
	}
	fields["uptime"] = res.Uptime
	fields["version"] = res.Version
	fields["board-name"] = res.BoardName
	fields["architecture-name"] = res.ArchitectureName
	fields["cpu"] = res.CPU
	fields["cpu-count"] = res.CPUCount
	fields["cpu-load"] = res.CPULoad
	fields["free-memory"] = res.FreeMemory
	fields["total-memory"] = res.TotalMemory
	fields["free-hdd-space"] = res.FreeHDDSpace
	fields["total-hdd-space"] = res.TotalHDDSpace

	return ResourcesResponse{
		EndpointID:        id,
		Success:           true,
		Resources:         fields,
		MemoryUsedPercent: usage.MemoryUsedPercent,
		DiskUsedPercent:   usage.DiskUsedPercent,
	}
}

func toLeaseResponses(leases []model.LeaseRecord) []LeaseResponse {
	resp := make([]LeaseResponse, 0, len(leases))
	for _, l := range leases {
		resp = append(resp, LeaseResponse{
			Address:      l.Address,
			MACAddress:   l.MACAddress,
			HostName:     l.HostName,
			Server:       l.Server,
			Status:       l.Status,
			ExpiresAfter: l.ExpiresAfter,
			Dynamic:      l.Dynamic,
			Disabled:     l.Disabled,
			Comment:      l.Comment,
		})
	}
	return resp
}

func toHotspotSessionResponses(sessions []model.HotspotSessionRecord) []HotspotSessionResponse {
	resp := make([]HotspotSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, HotspotSessionResponse{
			User:       s.User,
			Address:    s.Address,
			MACAddress: s.MACAddress,
			Server:     s.Server,
			Uptime:     s.Uptime,
			LoginBy:    s.LoginBy,
			BytesIn:    s.BytesIn,
			BytesOut:   s.BytesOut,
		})
	}
	return resp
}

func toExportResponse(report application.ExportReport, exportedAt time.Time) ExportResponse {
	snap := toSnapshotResponse(report.Snapshot)
	return ExportResponse{
		Success:    report.Snapshot.Success,
		Error:      report.Snapshot.Error,
		ExportedAt: formatTime(exportedAt),
		Endpoint:   toEndpointResponse(report.Endpoint),
		Identity:   report.Identity,
		Resources:  toResourcesResponse(report.Endpoint.ID, report.Resources, report.Usage),
		Interfaces: toInterfaceResponses(report.Interfaces),
		Leases:     toLeaseResponses(report.Leases),
		Hotspot:    toHotspotSessionResponses(report.Hotspot),
		Snapshot:   &snap,
	}
}

// toGroupResponse converts a domain Group to its JSON representation.
func toGroupResponse(g model.Group) GroupResponse {
	accounts := g.Accounts
	if accounts == nil {
		accounts = []string{}
	}
	return GroupResponse{
		ID:          g.ID,
		EndpointID:  g.EndpointID,
		Name:        g.Name,
		Description: g.Description,
		Accounts:    accounts,
		CreatedAt:   formatTime(g.CreatedAt),
		UpdatedAt:   formatTime(g.UpdatedAt),
	}
}

package model

import "time"

// Endpoint is one registered RouterOS device: its address, API credentials,
// and the most recently observed connection status.
type Endpoint struct {
	ID             string
	Name           string
	Description    string
	Host           string
	Port           int
	Username       string
	Password       string
	Transport      TransportMode
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastConnection *time.Time
	Status         ConnectionStatus
}

// Address returns the host:port dial target, applying the RouterOS default
// port for the endpoint's transport when Port is unset.
func (e Endpoint) Address() string {
	port := e.Port
	if port == 0 {
		port = e.Transport.DefaultPort()
	}
	return joinHostPort(e.Host, port)
}

// EndpointPatch carries a partial update. A nil field is absent and leaves
// the stored value unchanged; an empty string is treated as absent too.
type EndpointPatch struct {
	Name        *string
	Description *string
	Host        *string
	Port        *int
	Username    *string
	Password    *string
	Transport   *TransportMode
	Enabled     *bool
}

// Apply merges the present, non-empty fields of p into e and returns the
// result. An empty Password never overwrites the stored one.
func (p EndpointPatch) Apply(e Endpoint) Endpoint {
	if p.Name != nil && *p.Name != "" {
		e.Name = *p.Name
	}
	if p.Description != nil && *p.Description != "" {
		e.Description = *p.Description
	}
	if p.Host != nil && *p.Host != "" {
		e.Host = *p.Host
	}
	if p.Port != nil && *p.Port != 0 {
		e.Port = *p.Port
	}
	if p.Username != nil && *p.Username != "" {
		e.Username = *p.Username
	}
	if p.Password != nil && *p.Password != "" {
		e.Password = *p.Password
	}
	if p.Transport != nil && *p.Transport != "" {
		e.Transport = *p.Transport
	}
	if p.Enabled != nil {
		e.Enabled = *p.Enabled
	}
	return e
}

package model

import "time"

// Group is a user-defined, endpoint-scoped set of PPP account names.
type Group struct {
	ID          int64
	EndpointID  string
	Name        string
	Description string
	Accounts    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category is a named bucket of group names. An endpoint's categories are
// stored and replaced as one ordered list.
type Category struct {
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

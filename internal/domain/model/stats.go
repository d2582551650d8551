package model

import "time"

// AggregateStats summarizes one endpoint's account and traffic state.
// OnlineAccounts+OfflineAccounts and EnabledAccounts+DisabledAccounts both
// equal TotalAccounts.
type AggregateStats struct {
	TotalAccounts      int
	OnlineAccounts     int
	OfflineAccounts    int
	EnabledAccounts    int
	DisabledAccounts   int
	TotalDownloadBytes int64
	TotalUploadBytes   int64
	LastUpdated        time.Time
}

// Snapshot is the correlated telemetry for one endpoint at one instant.
// A failed endpoint still produces a Snapshot with Success false, Error set,
// empty collections and zeroed Stats.
type Snapshot struct {
	EndpointID      string
	EndpointName    string
	Success         bool
	Error           string
	PPPoEInterfaces []InterfaceRecord
	Accounts        []AccountRecord
	Online          []AccountRecord
	Offline         []OfflineAccount
	Sessions        []SessionRecord
	Stats           AggregateStats
	CapturedAt      time.Time
}

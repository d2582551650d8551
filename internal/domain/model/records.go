package model

import (
	"strconv"
	"strings"
	"time"
)

// Placeholder values written into synthesized interface fields when no
// statistics or session match exist.
const (
	ZeroCounter    = "0"
	AddressUnknown = "N/A"
)

// PPPoEServerInterfaceType is the RouterOS interface type of a dynamic
// server-side PPPoE session interface.
const PPPoEServerInterfaceType = "pppoe-in"

// SystemResources is the subset of /system/resource that the dashboard shows.
// Numeric fields keep RouterOS's string form; absent fields are empty.
type SystemResources struct {
	Uptime           string
	Version          string
	BoardName        string
	ArchitectureName string
	CPU              string
	CPUCount         string
	CPULoad          string
	FreeMemory       string
	TotalMemory      string
	FreeHDDSpace     string
	TotalHDDSpace    string
	Raw              map[string]string
}

// ResourceUsage holds percentages derived from SystemResources. A nil field
// means the inputs were missing or the total was zero.
type ResourceUsage struct {
	MemoryUsedPercent *float64
	DiskUsedPercent   *float64
}

// InterfaceRecord is one /interface entry. The Rx/Tx and Address fields are
// synthesized by the stats join and the correlator.
type InterfaceRecord struct {
	Name           string
	Type           string
	Enabled        bool
	Running        bool
	MACAddress     string
	LastLinkUpTime string
	Raw            map[string]string

	RxBytes string
	TxBytes string
	RxRate  string
	TxRate  string
	Address string
}

// InterfaceStats is one row of the bulk interface statistics table or of a
// single-interface traffic probe.
type InterfaceStats struct {
	Name             string
	RxBytes          string
	TxBytes          string
	RxBitsPerSecond  string
	TxBitsPerSecond  string
	ClientMACAddress string
	LastLinkUpTime   string
}

// SessionRecord is an active PPP session from /ppp/active. Name is the bare
// account name, without interface decoration.
type SessionRecord struct {
	Name     string
	Address  string
	Uptime   string
	CallerID string
	Service  string
}

// AccountRecord is a provisioned PPP secret from /ppp/secret.
type AccountRecord struct {
	Name          string
	Profile       string
	Service       string
	Disabled      bool
	LastLoggedOut string
	Comment       string
}

// LeaseRecord is a DHCP server lease from /ip/dhcp-server/lease.
type LeaseRecord struct {
	Address      string
	MACAddress   string
	HostName     string
	Server       string
	Status       string
	ExpiresAfter string
	Dynamic      bool
	Disabled     bool
	Comment      string
}

// HotspotSessionRecord is a logged-in hotspot user from /ip/hotspot/active.
// Byte counters default to "0".
type HotspotSessionRecord struct {
	User       string
	Address    string
	MACAddress string
	Server     string
	Uptime     string
	LoginBy    string
	BytesIn    string
	BytesOut   string
}

// DowntimeUnknown marks an offline account whose last logout time is
// missing or unparseable.
const DowntimeUnknown int64 = -1

// OfflineAccount is an account with no active session.
type OfflineAccount struct {
	Account         AccountRecord
	Status          AccountStatus
	DowntimeSeconds int64
}

// ParseFlag interprets a RouterOS-style boolean tolerantly: "true", "yes",
// "1" (any case), boolean true and integer 1 are true; anything else is false.
func ParseFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t == 1
	case int64:
		return t == 1
	case float64:
		return t == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// ParseCounter parses an integer counter. ok is false for empty or
// non-numeric input.
func ParseCounter(s string) (n int64, ok bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// routerTimeLayouts covers RouterOS v7 ("2006-01-02 15:04:05") and v6
// ("jan/02/2006 15:04:05") timestamp renderings. Month names match in any case.
var routerTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"Jan/02/2006 15:04:05",
	time.RFC3339,
}

// ParseRouterTime parses a RouterOS timestamp in the given location.
func ParseRouterTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range routerTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

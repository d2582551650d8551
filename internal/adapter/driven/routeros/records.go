package routeros

import (
	"maps"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// mapSystemResources converts a /system/resource reply row.
func mapSystemResources(row map[string]string) model.SystemResources {
	return model.SystemResources{
		Uptime:           row["uptime"],
		Version:          row["version"],
		BoardName:        row["board-name"],
		ArchitectureName: row["architecture-name"],
		CPU:              row["cpu"],
		CPUCount:         row["cpu-count"],
		CPULoad:          row["cpu-load"],
		FreeMemory:       row["free-memory"],
		TotalMemory:      row["total-memory"],
		FreeHDDSpace:     row["free-hdd-space"],
		TotalHDDSpace:    row["total-hdd-space"],
		Raw:              maps.Clone(row),
	}
}

// mapInterface converts an /interface reply row. Traffic fields start at
// zero and Address at "N/A" until the stats join and correlator fill them.
func mapInterface(row map[string]string) model.InterfaceRecord {
	return model.InterfaceRecord{
		Name:           row["name"],
		Type:           row["type"],
		Enabled:        !model.ParseFlag(row["disabled"]),
		Running:        model.ParseFlag(row["running"]),
		MACAddress:     row["mac-address"],
		LastLinkUpTime: row["last-link-up-time"],
		Raw:            maps.Clone(row),
		RxBytes:        model.ZeroCounter,
		TxBytes:        model.ZeroCounter,
		RxRate:         model.ZeroCounter,
		TxRate:         model.ZeroCounter,
		Address:        model.AddressUnknown,
	}
}

// mapInterfaceStats converts a row of "/interface/print stats" or of a
// "/interface/monitor-traffic once" probe. Missing counters become "0".
func mapInterfaceStats(row map[string]string) model.InterfaceStats {
	return model.InterfaceStats{
		Name:             row["name"],
		RxBytes:          valueOrZero(row, "rx-byte"),
		TxBytes:          valueOrZero(row, "tx-byte"),
		RxBitsPerSecond:  valueOrZero(row, "rx-bits-per-second"),
		TxBitsPerSecond:  valueOrZero(row, "tx-bits-per-second"),
		ClientMACAddress: row["client-mac-address"],
		LastLinkUpTime:   row["last-link-up-time"],
	}
}

func mapSession(row map[string]string) model.SessionRecord {
	return model.SessionRecord{
		Name:     row["name"],
		Address:  row["address"],
		Uptime:   row["uptime"],
		CallerID: row["caller-id"],
		Service:  row["service"],
	}
}

func mapAccount(row map[string]string) model.AccountRecord {
	return model.AccountRecord{
		Name:          row["name"],
		Profile:       row["profile"],
		Service:       row["service"],
		Disabled:      model.ParseFlag(row["disabled"]),
		LastLoggedOut: row["last-logged-out"],
		Comment:       row["comment"],
	}
}

func mapLease(row map[string]string) model.LeaseRecord {
	return model.LeaseRecord{
		Address:      row["address"],
		MACAddress:   row["mac-address"],
		HostName:     row["host-name"],
		Server:       row["server"],
		Status:       row["status"],
		ExpiresAfter: row["expires-after"],
		Dynamic:      model.ParseFlag(row["dynamic"]),
		Disabled:     model.ParseFlag(row["disabled"]),
		Comment:      row["comment"],
	}
}

func mapHotspotSession(row map[string]string) model.HotspotSessionRecord {
	return model.HotspotSessionRecord{
		User:       row["user"],
		Address:    row["address"],
		MACAddress: row["mac-address"],
		Server:     row["server"],
		Uptime:     row["uptime"],
		LoginBy:    row["login-by"],
		BytesIn:    valueOrZero(row, "bytes-in"),
		BytesOut:   valueOrZero(row, "bytes-out"),
	}
}

// applyStats copies counters from st onto iface. Link metadata from the
// stats table wins over the plain interface listing when present.
func applyStats(iface *model.InterfaceRecord, st model.InterfaceStats) {
	iface.RxBytes = st.RxBytes
	iface.TxBytes = st.TxBytes
	iface.RxRate = st.RxBitsPerSecond
	iface.TxRate = st.TxBitsPerSecond
	if st.ClientMACAddress != "" {
		iface.MACAddress = st.ClientMACAddress
	}
	if st.LastLinkUpTime != "" {
		iface.LastLinkUpTime = st.LastLinkUpTime
	}
}

func valueOrZero(row map[string]string, key string) string {
	if v, ok := row[key]; ok && v != "" {
		return v
	}
	return model.ZeroCounter
}

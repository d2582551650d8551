package application

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// pppoeNamePattern extracts the account from a server interface name such
// as "<pppoe-alice>".
var pppoeNamePattern = regexp.MustCompile(`^<pppoe-(.+)>$`)

// AttachAddresses returns a copy of interfaces with Address filled from the
// matching active session. Matching falls through three tiers: the account
// extracted from "<pppoe-NAME>", the name with the decoration stripped
// literally, then a case-insensitive comparison. Unmatched interfaces get
// model.AddressUnknown.
func AttachAddresses(interfaces []model.InterfaceRecord, sessions []model.SessionRecord) []model.InterfaceRecord {
	byName := make(map[string]string, len(sessions))
	for _, s := range sessions {
		if _, dup := byName[s.Name]; !dup {
			byName[s.Name] = s.Address
		}
	}

	// Sorted so the case-insensitive tier is deterministic when several
	// sessions differ only by case.
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.InterfaceRecord, len(interfaces))
	for i, iface := range interfaces {
		iface.Address = lookupAddress(iface.Name, byName, names)
		out[i] = iface
	}
	return out
}

func lookupAddress(ifaceName string, byName map[string]string, sortedNames []string) string {
	if m := pppoeNamePattern.FindStringSubmatch(ifaceName); m != nil {
		if addr, ok := byName[m[1]]; ok {
			return addr
		}
	}

	stripped := strings.ReplaceAll(strings.ReplaceAll(ifaceName, "<pppoe-", ""), ">", "")
	if addr, ok := byName[stripped]; ok {
		return addr
	}

	for _, name := range sortedNames {
		if strings.EqualFold(name, stripped) {
			return byName[name]
		}
	}

	return model.AddressUnknown
}

// PartitionAccounts splits accounts into those with an active session and
// those without. Names match case-insensitively. Offline accounts are
// classified Disabled or Offline and carry the whole seconds elapsed since
// their last logout, or model.DowntimeUnknown when that time is missing or
// unparseable. Input order is preserved in both results.
func PartitionAccounts(accounts []model.AccountRecord, sessions []model.SessionRecord, now time.Time) ([]model.AccountRecord, []model.OfflineAccount) {
	active := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		active[strings.ToLower(s.Name)] = struct{}{}
	}

	online := []model.AccountRecord{}
	offline := []model.OfflineAccount{}

	for _, acc := range accounts {
		if _, ok := active[strings.ToLower(acc.Name)]; ok {
			online = append(online, acc)
			continue
		}

		status := model.AccountStatusOffline
		if acc.Disabled {
			status = model.AccountStatusDisabled
		}

		offline = append(offline, model.OfflineAccount{
			Account:         acc,
			Status:          status,
			DowntimeSeconds: downtimeSeconds(acc.LastLoggedOut, now),
		})
	}

	return online, offline
}

func downtimeSeconds(lastLoggedOut string, now time.Time) int64 {
	loc := now.Location()
	if loc == nil {
		loc = time.Local
	}
	t, ok := model.ParseRouterTime(lastLoggedOut, loc)
	if !ok {
		return model.DowntimeUnknown
	}

	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

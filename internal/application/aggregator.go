package application

import (
	"strconv"
	"strings"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// Aggregate computes account and traffic totals. Online and offline counts
// come from PartitionAccounts so they always sum to TotalAccounts.
// Download is the sum of interface RxBytes and upload of TxBytes.
func Aggregate(accounts []model.AccountRecord, sessions []model.SessionRecord, interfaces []model.InterfaceRecord, now time.Time) model.AggregateStats {
	online, offline := PartitionAccounts(accounts, sessions, now)

	var disabled int
	for _, acc := range accounts {
		if acc.Disabled {
			disabled++
		}
	}

	rx := make([]string, len(interfaces))
	tx := make([]string, len(interfaces))
	for i, iface := range interfaces {
		rx[i] = iface.RxBytes
		tx[i] = iface.TxBytes
	}

	return model.AggregateStats{
		TotalAccounts:      len(accounts),
		OnlineAccounts:     len(online),
		OfflineAccounts:    len(offline),
		EnabledAccounts:    len(accounts) - disabled,
		DisabledAccounts:   disabled,
		TotalDownloadBytes: SumCounters(rx),
		TotalUploadBytes:   SumCounters(tx),
		LastUpdated:        now,
	}
}

// SumCounters adds the values that parse as integers and skips the rest.
func SumCounters(values []string) int64 {
	var total int64
	for _, v := range values {
		if n, ok := model.ParseCounter(v); ok {
			total += n
		}
	}
	return total
}

// ResourceUsage derives memory and disk utilization percentages. A
// percentage is omitted when its total or free value is missing or
// unparseable, or when the total is zero.
func ResourceUsage(res model.SystemResources) model.ResourceUsage {
	return model.ResourceUsage{
		MemoryUsedPercent: usedPercent(res.TotalMemory, res.FreeMemory),
		DiskUsedPercent:   usedPercent(res.TotalHDDSpace, res.FreeHDDSpace),
	}
}

func usedPercent(total, free string) *float64 {
	t, err := strconv.ParseFloat(strings.TrimSpace(total), 64)
	if err != nil || t == 0 {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(free), 64)
	if err != nil {
		return nil
	}

	pct := (t - f) / t * 100
	return &pct
}

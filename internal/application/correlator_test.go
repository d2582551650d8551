package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regolet/mikrotikmonitoring/internal/application"
	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

func iface(name string) model.InterfaceRecord {
	return model.InterfaceRecord{
		Name:    name,
		Type:    model.PPPoEServerInterfaceType,
		RxBytes: model.ZeroCounter,
		TxBytes: model.ZeroCounter,
		Address: model.AddressUnknown,
	}
}

func session(name, addr string) model.SessionRecord {
	return model.SessionRecord{Name: name, Address: addr}
}

func TestAttachAddresses(t *testing.T) {
	tests := []struct {
		name     string
		iface    string
		sessions []model.SessionRecord
		want     string
	}{
		{
			name:     "tier 1 decorated exact match",
			iface:    "<pppoe-alice>",
			sessions: []model.SessionRecord{session("alice", "10.0.0.2")},
			want:     "10.0.0.2",
		},
		{
			name:  "tier 1 wins over case-insensitive candidates",
			iface: "<pppoe-alice>",
			sessions: []model.SessionRecord{
				session("ALICE", "10.0.0.9"),
				session("alice", "10.0.0.2"),
			},
			want: "10.0.0.2",
		},
		{
			name:     "tier 2 undecorated exact match",
			iface:    "bob",
			sessions: []model.SessionRecord{session("bob", "10.0.0.3")},
			want:     "10.0.0.3",
		},
		{
			name:     "tier 2 partial decoration stripped",
			iface:    "<pppoe-carol",
			sessions: []model.SessionRecord{session("carol", "10.0.0.4")},
			want:     "10.0.0.4",
		},
		{
			name:     "tier 3 case-insensitive",
			iface:    "<pppoe-bolilla_engineer>",
			sessions: []model.SessionRecord{session("Bolilla_Engineer", "10.0.0.5")},
			want:     "10.0.0.5",
		},
		{
			name:     "tier 3 undecorated case-insensitive",
			iface:    "DAVE",
			sessions: []model.SessionRecord{session("dave", "10.0.0.6")},
			want:     "10.0.0.6",
		},
		{
			name:     "no match",
			iface:    "<pppoe-erin>",
			sessions: []model.SessionRecord{session("frank", "10.0.0.7")},
			want:     model.AddressUnknown,
		},
		{
			name:  "no sessions",
			iface: "<pppoe-erin>",
			want:  model.AddressUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := application.AttachAddresses([]model.InterfaceRecord{iface(tt.iface)}, tt.sessions)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Address)
			assert.Equal(t, tt.iface, got[0].Name)
		})
	}
}

func TestAttachAddresses_Tier3Deterministic(t *testing.T) {
	sessions := []model.SessionRecord{
		session("Joe", "10.0.0.2"),
		session("JOE", "10.0.0.1"),
	}

	for i := 0; i < 10; i++ {
		got := application.AttachAddresses([]model.InterfaceRecord{iface("<pppoe-joe>")}, sessions)
		assert.Equal(t, "10.0.0.1", got[0].Address, "sorted scan picks JOE before Joe")
	}
}

func TestAttachAddresses_DoesNotMutateInput(t *testing.T) {
	in := []model.InterfaceRecord{iface("<pppoe-alice>")}

	out := application.AttachAddresses(in, []model.SessionRecord{session("alice", "10.0.0.2")})

	assert.Equal(t, model.AddressUnknown, in[0].Address)
	assert.Equal(t, "10.0.0.2", out[0].Address)
}

func TestPartitionAccounts_Scenario(t *testing.T) {
	accounts := []model.AccountRecord{
		{Name: "a", Disabled: model.ParseFlag("false")},
		{Name: "b", Disabled: model.ParseFlag("true")},
	}
	sessions := []model.SessionRecord{{Name: "a"}}

	online, offline := application.PartitionAccounts(accounts, sessions, time.Now())

	require.Len(t, online, 1)
	assert.Equal(t, "a", online[0].Name)
	require.Len(t, offline, 1)
	assert.Equal(t, "b", offline[0].Account.Name)
	assert.Equal(t, model.AccountStatusDisabled, offline[0].Status)
	assert.Equal(t, model.DowntimeUnknown, offline[0].DowntimeSeconds)
}

func TestPartitionAccounts_CaseInsensitiveOnline(t *testing.T) {
	accounts := []model.AccountRecord{{Name: "Bolilla_Engineer"}}
	sessions := []model.SessionRecord{{Name: "bolilla_engineer"}}

	online, offline := application.PartitionAccounts(accounts, sessions, time.Now())

	assert.Len(t, online, 1)
	assert.Empty(t, offline)
}

func TestPartitionAccounts_Downtime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	accounts := []model.AccountRecord{
		{Name: "v7", LastLoggedOut: "2024-05-01 10:00:00"},
		{Name: "v6", LastLoggedOut: "apr/30/2024 12:00:00"},
		{Name: "garbage", LastLoggedOut: "never"},
		{Name: "missing"},
		{Name: "future", LastLoggedOut: "2024-05-02 10:00:00"},
	}

	_, offline := application.PartitionAccounts(accounts, nil, now)

	require.Len(t, offline, 5)
	assert.Equal(t, int64(7200), offline[0].DowntimeSeconds)
	assert.Equal(t, int64(86400), offline[1].DowntimeSeconds)
	assert.Equal(t, model.DowntimeUnknown, offline[2].DowntimeSeconds)
	assert.Equal(t, model.DowntimeUnknown, offline[3].DowntimeSeconds)
	assert.Equal(t, int64(0), offline[4].DowntimeSeconds)
	for _, o := range offline {
		assert.Equal(t, model.AccountStatusOffline, o.Status)
	}
}

func TestPartitionAccounts_Empty(t *testing.T) {
	online, offline := application.PartitionAccounts(nil, nil, time.Now())

	assert.NotNil(t, online)
	assert.NotNil(t, offline)
	assert.Empty(t, online)
	assert.Empty(t, offline)
}

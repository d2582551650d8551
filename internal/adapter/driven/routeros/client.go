// Package routeros implements the RouterClient port on top of the
// go-routeros API client.
package routeros

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.RouterClient        = (*Client)(nil)
	_ driven.RouterClientFactory = Factory{}
)

// DefaultTimeout bounds each network operation when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client is a typed facade over one RouterOS API session. Requests on the
// session are serialized: the protocol does not multiplex concurrent
// commands on one connection. A request abandoned by its caller (context
// expiry) keeps running in the background and its result is discarded.
type Client struct {
	target  Target
	dial    Dialer
	timeout time.Duration
	logger  *slog.Logger

	// opMu serializes requests on session.
	opMu sync.Mutex

	mu      sync.Mutex
	session Session
	lastErr string
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces DialRouterOS.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// WithTimeout sets the per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates an unconnected client for the endpoint.
func NewClient(ep model.Endpoint, opts ...Option) *Client {
	c := &Client{
		target: Target{
			Address:  ep.Address(),
			Username: ep.Username,
			Password: ep.Password,
			TLS:      ep.Transport == model.TransportTLS,
		},
		dial:    DialRouterOS,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("router", c.target.Address)
	return c
}

// Factory builds Clients with shared settings. The zero value dials real
// devices with DefaultTimeout.
type Factory struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Dial    Dialer
}

// NewClient implements driven.RouterClientFactory.
func (f Factory) NewClient(ep model.Endpoint) driven.RouterClient {
	opts := []Option{WithTimeout(f.Timeout), WithLogger(f.Logger)}
	if f.Dial != nil {
		opts = append(opts, WithDialer(f.Dial))
	}
	return NewClient(ep, opts...)
}

// Connect opens the persistent session and verifies it with a
// /system/resource read. A login that succeeds but fails verification is
// reported as a failed connect. Any previous session is closed.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Debug("connecting",
		"user", c.target.Username,
		"tls", c.target.TLS,
	)

	sess, err := c.open(ctx)
	if err != nil {
		c.setError(err.Error())
		c.logger.Error("connect failed", "error", err)
		return err
	}

	c.mu.Lock()
	old := c.session
	c.session = sess
	c.lastErr = ""
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	c.logger.Info("connected")
	return nil
}

// TestConnection dials a separate session, verifies it and closes it. The
// persistent session and LastError are left untouched whatever the outcome.
func (c *Client) TestConnection(ctx context.Context) error {
	sess, err := c.open(ctx)
	if err != nil {
		c.logger.Warn("connection test failed", "error", err)
		return err
	}
	_ = sess.Close()

	c.logger.Debug("connection test succeeded")
	return nil
}

// Disconnect closes the persistent session, if any.
func (c *Client) Disconnect() {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	if sess != nil {
		_ = sess.Close()
		c.logger.Debug("disconnected")
	}
}

// LastError returns the message of the most recent failure, or "".
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// FetchSystemResources reads /system/resource.
func (c *Client) FetchSystemResources(ctx context.Context) (model.SystemResources, error) {
	rows, err := c.fetch(ctx, "system resources", "/system/resource/print")
	if err != nil || len(rows) == 0 {
		return model.SystemResources{Raw: map[string]string{}}, err
	}
	return mapSystemResources(rows[0]), nil
}

// FetchIdentity reads the device's /system/identity name.
func (c *Client) FetchIdentity(ctx context.Context) (string, error) {
	rows, err := c.fetch(ctx, "system identity", "/system/identity/print")
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return rows[0]["name"], nil
}

// FetchInterfaces lists /interface.
func (c *Client) FetchInterfaces(ctx context.Context) ([]model.InterfaceRecord, error) {
	rows, err := c.fetch(ctx, "interfaces", "/interface/print")
	ifaces := make([]model.InterfaceRecord, 0, len(rows))
	for _, row := range rows {
		ifaces = append(ifaces, mapInterface(row))
	}
	return ifaces, err
}

// FetchActiveSessions lists /ppp/active.
func (c *Client) FetchActiveSessions(ctx context.Context) ([]model.SessionRecord, error) {
	rows, err := c.fetch(ctx, "active PPP connections", "/ppp/active/print")
	sessions := make([]model.SessionRecord, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, mapSession(row))
	}
	return sessions, err
}

// FetchAccounts lists /ppp/secret.
func (c *Client) FetchAccounts(ctx context.Context) ([]model.AccountRecord, error) {
	rows, err := c.fetch(ctx, "PPP secrets", "/ppp/secret/print")
	accounts := make([]model.AccountRecord, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, mapAccount(row))
	}
	return accounts, err
}

// FetchInterfaceStatistics reads the bulk interface statistics table.
func (c *Client) FetchInterfaceStatistics(ctx context.Context) ([]model.InterfaceStats, error) {
	stats, err := c.interfaceStatistics(ctx)
	return stats, c.record("interface statistics", len(stats), err)
}

// FetchLeases lists /ip/dhcp-server/lease.
func (c *Client) FetchLeases(ctx context.Context) ([]model.LeaseRecord, error) {
	rows, err := c.fetch(ctx, "DHCP leases", "/ip/dhcp-server/lease/print")
	leases := make([]model.LeaseRecord, 0, len(rows))
	for _, row := range rows {
		leases = append(leases, mapLease(row))
	}
	return leases, err
}

// FetchHotspotSessions lists /ip/hotspot/active.
func (c *Client) FetchHotspotSessions(ctx context.Context) ([]model.HotspotSessionRecord, error) {
	rows, err := c.fetch(ctx, "active hotspot users", "/ip/hotspot/active/print")
	sessions := make([]model.HotspotSessionRecord, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, mapHotspotSession(row))
	}
	return sessions, err
}

// FetchPPPoEInterfacesWithStats returns the pppoe-in interfaces with traffic
// counters from the bulk statistics table. Interfaces missing from the table
// are probed one by one with monitor-traffic. A failed table read or probe is
// logged and leaves the affected counters at "0"; only a failed interface
// listing fails the call.
func (c *Client) FetchPPPoEInterfacesWithStats(ctx context.Context) ([]model.InterfaceRecord, error) {
	all, err := c.FetchInterfaces(ctx)
	if err != nil {
		return []model.InterfaceRecord{}, err
	}

	pppoe := make([]model.InterfaceRecord, 0, len(all))
	for _, iface := range all {
		if iface.Type == model.PPPoEServerInterfaceType {
			pppoe = append(pppoe, iface)
		}
	}
	c.logger.Debug("pppoe interfaces found", "count", len(pppoe))

	statsByName := make(map[string]model.InterfaceStats)
	table, err := c.interfaceStatistics(ctx)
	if err != nil {
		c.logger.Error("interface statistics unavailable", "error", err)
	}
	for _, st := range table {
		statsByName[st.Name] = st
	}

	for i := range pppoe {
		iface := &pppoe[i]
		if st, ok := statsByName[iface.Name]; ok {
			applyStats(iface, st)
			continue
		}

		probe, err := c.run(ctx, "/interface/monitor-traffic", "=interface="+iface.Name, "=once=")
		if err != nil {
			c.logger.Warn("traffic probe failed", "interface", iface.Name, "error", err)
			continue
		}
		if len(probe) > 0 {
			applyStats(iface, mapInterfaceStats(probe[0]))
		}
	}

	return pppoe, nil
}

// interfaceStatistics reads the statistics table without touching the
// last-error slot.
func (c *Client) interfaceStatistics(ctx context.Context) ([]model.InterfaceStats, error) {
	rows, err := c.run(ctx, "/interface/print", "=stats=")
	stats := make([]model.InterfaceStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, mapInterfaceStats(row))
	}
	return stats, err
}

// fetch runs a read command on the persistent session, recording the
// outcome in the last-error slot.
func (c *Client) fetch(ctx context.Context, what string, sentence ...string) ([]map[string]string, error) {
	rows, err := c.run(ctx, sentence...)
	if err != nil {
		return nil, c.record(what, 0, err)
	}
	return rows, c.record(what, len(rows), nil)
}

// record stores the outcome of a read in the last-error slot and wraps a
// failure in ErrFetch.
func (c *Client) record(what string, n int, err error) error {
	if err != nil {
		c.setError(fmt.Sprintf("error getting %s: %v", what, err))
		c.logger.Error("fetch failed", "what", what, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrFetch, what, err)
	}

	c.setError("")
	c.logger.Debug("fetched", "what", what, "rows", n)
	return nil
}

// run sends one command on the persistent session.
func (c *Client) run(ctx context.Context, sentence ...string) ([]map[string]string, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return runSession(ctx, &c.opMu, sess, sentence...)
}

// open dials and verifies a new session without touching client state.
func (c *Client) open(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sess, err := c.dial(ctx, c.target)
	if err != nil {
		return nil, classifyConnectError(ctx, c.target.Address, err)
	}

	var mu sync.Mutex
	if _, err := runSession(ctx, &mu, sess, "/system/resource/print"); err != nil {
		_ = sess.Close()
		return nil, classifyConnectError(ctx, c.target.Address, fmt.Errorf("verify session: %w", err))
	}

	return sess, nil
}

func (c *Client) setError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

type runResult struct {
	rows []map[string]string
	err  error
}

// runSession executes sentence on sess while holding mu, giving up waiting
// when ctx ends. The command itself is not interrupted.
func runSession(ctx context.Context, mu *sync.Mutex, sess Session, sentence ...string) ([]map[string]string, error) {
	done := make(chan runResult, 1)
	go func() {
		mu.Lock()
		defer mu.Unlock()
		rows, err := sess.Run(sentence...)
		done <- runResult{rows: rows, err: err}
	}()

	select {
	case res := <-done:
		return res.rows, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", sentence[0], ctx.Err())
	}
}

// Package frtclient wires a ConnectionPool, a RequestFactory and a
// per-key Agent/Source pair into a single subscription entry point. It is
// the top-level constructor a caller reaches for; the individual packages
// (pool, request, agent, source, connection) remain independently usable
// for callers that want to assemble the pieces themselves.
package frtclient

import (
	"log/slog"
	"os"

	"github.com/gostdlib/base/context"

	"github.com/lattice-config/frtclient/agent"
	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/holder"
	"github.com/lattice-config/frtclient/pool"
	"github.com/lattice-config/frtclient/request"
	"github.com/lattice-config/frtclient/source"
	"github.com/lattice-config/frtclient/transport"
)

// Option configures a Client.
type Option func(*config)

type config struct {
	timing   configkey.TimingValues
	picker   pool.Picker
	log      *slog.Logger
	hostname string
}

// defaultConfig matches construct()'s default peer selection: a Connection
// pool defaults to hash-based selection keyed on the local hostname, so a
// mixed fleet of clients on the same host converges on the same peer
// without any coordination. Callers wanting even load-spreading across
// peers instead must opt in with WithRoundRobin.
func defaultConfig() *config {
	hostname, _ := os.Hostname()
	return &config{
		timing:   configkey.DefaultTimingValues(),
		picker:   &pool.HashPicker{HostKey: hostname},
		log:      slog.Default(),
		hostname: hostname,
	}
}

// WithTimingValues overrides the default subscription timing policy.
func WithTimingValues(tv configkey.TimingValues) Option {
	return func(c *config) { c.timing = tv }
}

// WithHostKey selects a specific peer deterministically by host key
// instead of the default (hostname-derived) one.
func WithHostKey(hostKey string) Option {
	return func(c *config) { c.picker = &pool.HashPicker{HostKey: hostKey} }
}

// WithRoundRobin distributes requests evenly across peers instead of
// pinning this client to a single hash-selected peer.
func WithRoundRobin() Option {
	return func(c *config) { c.picker = &pool.RoundRobinPicker{} }
}

// WithLogger sets the logger used for ambient Source/Agent diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithClientHostname overrides the hostname reported to the server in
// every request (defaults to os.Hostname()).
func WithClientHostname(hostname string) Option {
	return func(c *config) { c.hostname = hostname }
}

// Client subscribes to configuration from a fixed set of peers.
type Client struct {
	pool    *pool.ConnectionPool
	factory *request.Factory
	cfg     *config
}

// New builds a Client dialing addrs through dialer. No connection is made
// until the first Subscribe's Source polls.
func New(dialer transport.Dialer, addrs []string, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		pool:    pool.New(addrs, dialer, cfg.picker),
		factory: request.NewFactory(cfg.hostname),
		cfg:     cfg,
	}
}

// Subscribe starts a Source for key, delivering updates to h. The returned
// Source must be Closed by the caller when the subscription is no longer
// needed.
func (c *Client) Subscribe(ctx context.Context, key configkey.Key, defSchema []string, h holder.Holder) *source.Source {
	a := agent.New(h, c.cfg.timing)
	s := source.New(ctx, key, defSchema, c.pool, c.factory, a, c.cfg.timing, c.cfg.log)
	s.Start()
	return s
}

// Close releases every peer connection this Client holds.
func (c *Client) Close() error {
	return c.pool.Close()
}

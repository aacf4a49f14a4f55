// Package pool implements the ConnectionPool: an ordered set of peer
// Connections, selected either round-robin or by a stable hash of a
// client-supplied host key, with ready peers preferred over suspended
// ones. The selection algorithms are bit-exact with the original config
// protocol's implementation so that a mixed fleet of clients converges on
// the same peer for the same host key.
package pool

import (
	"time"

	"github.com/gostdlib/base/concurrency/sync"

	"github.com/lattice-config/frtclient/connection"
	"github.com/lattice-config/frtclient/transport"
)

// Picker selects a peer from a candidate list. The two built-in pickers
// (round-robin and hash-based) are exposed as RoundRobinPicker and
// HashPicker; callers needing a different policy can supply their own.
type Picker interface {
	// Pick returns an index into candidates, or -1 if it can't decide
	// (candidates is always non-empty when Pick is called).
	Pick(candidates []*connection.Connection) int
}

// RoundRobinPicker advances a shared cursor on every pick: sel = cursor %
// len(candidates); cursor = sel + 1. This must be constructed once and
// reused across calls to ConnectionPool.Current — a fresh RoundRobinPicker
// per call would always pick index 0.
type RoundRobinPicker struct {
	mu     sync.Mutex
	cursor int
}

func (p *RoundRobinPicker) Pick(candidates []*connection.Connection) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := p.cursor % len(candidates)
	p.cursor = sel + 1
	return sel
}

// HashPicker selects deterministically from a host key, using the same
// string hash as Java's String.hashCode so that selection is stable across
// implementations sharing a host key. It never advances any cursor.
type HashPicker struct {
	HostKey string
}

func (p *HashPicker) Pick(candidates []*connection.Connection) int {
	h := javaStringHash(p.HostKey)
	idx := int32(h)
	if idx < 0 {
		idx = -idx
	}
	return int(idx) % len(candidates)
}

// javaStringHash computes Java's String.hashCode: h = 31*h + c for each
// byte, wrapping in 32-bit arithmetic. This is load-bearing for
// cross-client-version hash-based peer selection and must not be "improved".
func javaStringHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = 31*h + uint32(s[i])
	}
	return h
}

// ConnectionPool holds the ordered set of peer Connections for one Source
// (or a group of Sources sharing a server list) and answers Current()
// requests by delegating to a Picker over the ready set, falling back to
// the suspended set only if no peer is currently ready.
type ConnectionPool struct {
	mu          sync.Mutex
	connections []*connection.Connection
	picker      Picker
	syncer      transport.SyncTransporter
}

// New builds a ConnectionPool over addrs, dialing lazily through dialer.
// picker chooses among ready (or, failing that, suspended) peers; pass a
// *RoundRobinPicker for server-list subscriptions with no host affinity, or
// a *HashPicker when the caller wants a stable peer per host key.
func New(addrs []string, dialer transport.Dialer, picker Picker) *ConnectionPool {
	conns := make([]*connection.Connection, 0, len(addrs))
	for _, a := range addrs {
		conns = append(conns, connection.New(a, dialer))
	}
	var syncer transport.SyncTransporter
	if s, ok := dialer.(transport.SyncTransporter); ok {
		syncer = s
	}
	return &ConnectionPool{connections: conns, picker: picker, syncer: syncer}
}

// Current returns the peer this pool currently considers best, or nil if
// the pool has no configured peers at all.
func (p *ConnectionPool) Current() *connection.Connection {
	p.mu.Lock()
	conns := p.connections
	p.mu.Unlock()

	if len(conns) == 0 {
		return nil
	}

	ready := make([]*connection.Connection, 0, len(conns))
	suspended := make([]*connection.Connection, 0, len(conns))
	for _, c := range conns {
		if c.Ready() {
			ready = append(ready, c)
		} else {
			suspended = append(suspended, c)
		}
	}

	candidates := ready
	if len(candidates) == 0 {
		candidates = suspended
	}
	if len(candidates) == 0 {
		return nil
	}
	idx := p.picker.Pick(candidates)
	return candidates[idx]
}

// SuspendedUntilEarliest returns the earliest non-zero suspension deadline
// among the pool's peers. A deadline that has already passed is still
// counted, so the result may lie in the past. The zero Time means no peer
// has a suspension recorded.
func (p *ConnectionPool) SuspendedUntilEarliest() time.Time {
	p.mu.Lock()
	conns := p.connections
	p.mu.Unlock()

	var earliest time.Time
	for _, c := range conns {
		u := c.SuspendedUntil()
		if u.IsZero() {
			continue
		}
		if earliest.IsZero() || u.Before(earliest) {
			earliest = u
		}
	}
	return earliest
}

// SyncTransport blocks until every RequestDone callback already queued by
// the underlying transport runtime has been delivered. A Source calls this
// during Close to guarantee no late callback touches it after Close
// returns. No-op if the dialer doesn't support draining.
func (p *ConnectionPool) SyncTransport() {
	if p.syncer != nil {
		p.syncer.SyncTransport()
	}
}

// Close releases every peer connection in the pool.
func (p *ConnectionPool) Close() error {
	p.mu.Lock()
	conns := p.connections
	p.mu.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

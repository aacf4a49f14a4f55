// Package connection implements a single peer connection in a
// ConnectionPool: lazy target resolution, async invoke, and the
// transient/fatal failure-count-driven suspension policy described by
// the config protocol.
package connection

import (
	"log/slog"
	"time"

	"github.com/gostdlib/base/concurrency/sync"

	"github.com/lattice-config/frtclient/transport"
)

// Error codes classified as transient: transport-level failures where the
// peer itself may still be healthy.
const (
	ErrRPCConnection = 100
	ErrRPCTimeout    = 101
)

// Error codes classified as fatal: the config server understood the
// request and rejected it, or hit an internal error processing it.
const (
	ErrUnknownConfig    = 200
	ErrUnknownDefinition = 201
	ErrUnknownVersion   = 202
	ErrUnknownConfigID  = 203
	ErrUnknownDefMD5    = 204
	ErrIllegalName      = 205
	ErrIllegalVersion   = 206
	ErrIllegalConfigID  = 207
	ErrIllegalDefMD5    = 208
	ErrIllegalConfigMD5 = 209
	ErrIllegalTimeout   = 210
	ErrOutdatedConfig   = 211
	ErrInternalError    = 212
)

// ErrAbort is the error code a request carries when it was aborted locally
// (Source.Close aborting an in-flight request); it is never classified as
// a peer failure.
const ErrAbort = 300

// ErrMalformedPayload is the synthetic error code the Agent reports when a
// transport-successful response fails to decode (response.Fill returning
// an error). It has no wire representation — the peer answered, but what
// it sent couldn't be parsed — and is classified fatal for the same
// reason an application-level rejection is: retrying the same peer
// immediately would just see the same broken reply.
const ErrMalformedPayload = 220

// failureType is the internal classification calculateSuspension uses.
type failureType uint8

const (
	noFailure failureType = iota
	transientFailure
	fatalFailure
)

func classify(errCode int) failureType {
	switch errCode {
	case ErrRPCConnection, ErrRPCTimeout:
		return transientFailure
	case ErrUnknownConfig, ErrUnknownDefinition, ErrUnknownVersion, ErrUnknownConfigID,
		ErrUnknownDefMD5, ErrIllegalName, ErrIllegalVersion, ErrIllegalConfigID,
		ErrIllegalDefMD5, ErrIllegalConfigMD5, ErrIllegalTimeout, ErrOutdatedConfig,
		ErrInternalError, ErrMalformedPayload:
		return fatalFailure
	default:
		return noFailure
	}
}

// maxDelayMultiplier caps how many consecutive failures of one type are
// allowed to keep multiplying the suspension delay.
const maxDelayMultiplier = 6

// warnInterval throttles the "connection suspended" log so a persistently
// failing peer doesn't spam logs once per request.
const warnInterval = 10 * time.Second

// Connection is one addressable peer in a pool: a lazily-resolved RPC
// target plus the failure bookkeeping that decides when the peer should be
// skipped in favor of others.
type Connection struct {
	address string
	dialer  transport.Dialer

	mu                sync.Mutex
	target            transport.Target
	suspendedUntil    time.Time
	suspendWarnedAt   time.Time
	transientFailures int
	fatalFailures     int
}

// New creates a Connection for address. No dial happens until the first
// Invoke; dialer resolves a transport.Target lazily, matching FRT's
// GetTarget-on-demand model (no background reconnect loop).
func New(address string, dialer transport.Dialer) *Connection {
	return &Connection{address: address, dialer: dialer}
}

// Address returns the peer address this Connection was created for.
func (c *Connection) Address() string { return c.address }

// resolvedTarget returns the current target, (re)resolving it if absent or invalid.
func (c *Connection) resolvedTarget() (transport.Target, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil || !c.target.Valid() {
		t, err := c.dialer.Dial(c.address)
		if err != nil {
			return nil, err
		}
		c.target = t
	}
	return c.target, nil
}

// Invoke resolves the target and dispatches req asynchronously; waiter is
// notified via RequestDone when the call completes, times out, or is
// aborted. Invoke must never be called while c's own mutex is held by the
// caller — it may block on dialing.
func (c *Connection) Invoke(req transport.Request, timeout time.Duration, waiter transport.Waiter) error {
	t, err := c.resolvedTarget()
	if err != nil {
		return err
	}
	t.InvokeAsync(req, timeout, waiter)
	return nil
}

// RecordError classifies errCode and, if it is a transient or fatal peer
// failure, extends the suspension deadline. Unclassified codes (including
// ErrAbort) are a no-op, matching the original's switch-with-no-default.
func (c *Connection) RecordError(errCode int, transientDelay, fatalDelay time.Duration) {
	ft := classify(errCode)
	if ft == noFailure {
		return
	}

	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	var delay time.Duration
	switch ft {
	case transientFailure:
		c.transientFailures++
		mult := c.transientFailures
		if mult > maxDelayMultiplier {
			mult = maxDelayMultiplier
		}
		delay = time.Duration(mult) * transientDelay
	case fatalFailure:
		c.fatalFailures++
		mult := c.fatalFailures
		if mult > maxDelayMultiplier {
			mult = maxDelayMultiplier
		}
		delay = time.Duration(mult) * fatalDelay
	}
	c.suspendedUntil = now.Add(delay)
	if c.suspendWarnedAt.Before(now.Add(-warnInterval)) {
		c.suspendWarnedAt = now
		slog.Warn("connection suspended", "address", c.address, "until", c.suspendedUntil)
	}
}

// RecordSuccess resets both failure counters and clears any suspension.
func (c *Connection) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transientFailures = 0
	c.fatalFailures = 0
	c.suspendedUntil = time.Time{}
}

// Ready reports whether this peer is not currently suspended.
func (c *Connection) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !time.Now().Before(c.suspendedUntil)
}

// SuspendedUntil returns the deadline at which this peer becomes ready
// again. The zero Time means no suspension has been recorded since the
// Connection was created or since the last RecordSuccess.
func (c *Connection) SuspendedUntil() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspendedUntil
}

// Close releases the underlying target, if any.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target != nil {
		err := c.target.Close()
		c.target = nil
		return err
	}
	return nil
}

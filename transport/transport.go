// Package transport defines the asynchronous invoke model a Connection
// uses to talk to one peer: a lazily-dialed Target that dispatches a
// Request and reports completion to a Waiter, rather than a synchronous
// read/write stream. This mirrors FRT's FRT_Target/FRT_IRequestWait pair,
// because the config protocol is a fire-and-callback RPC, not a framed
// byte stream.
package transport

import "time"

// Request is one in-flight call: the request body to send and the slot
// its result lands in once the Target reports completion.
type Request interface {
	// ErrorCode returns the completion status: 0 on success, FRT_ABORT-class
	// codes on client-side abort, or a protocol error code from the peer.
	ErrorCode() int
	// IsError reports whether ErrorCode() indicates a failure.
	IsError() bool
}

// Waiter is notified when a Request dispatched via Target.InvokeAsync
// completes, times out, or is aborted. RequestDone may be called on any
// goroutine, including one owned by the transport runtime, and must
// perform the minimum work needed before returning control to it.
type Waiter interface {
	RequestDone(req Request)
}

// Target is a resolved, reusable handle to one peer connection. Invoking a
// request against it is asynchronous: InvokeAsync returns immediately and
// the result arrives via the supplied Waiter.
type Target interface {
	// InvokeAsync dispatches req with the given timeout. waiter.RequestDone
	// is called exactly once for every call to InvokeAsync.
	InvokeAsync(req Request, timeout time.Duration, waiter Waiter)
	// Valid reports whether this Target can still be used, or whether the
	// owning Connection should dial a fresh one.
	Valid() bool
	// Close releases the target.
	Close() error
}

// Dialer lazily resolves a Target for an address. Implementations may
// cache and reuse a dialed Target; Connection only calls Dial again when
// its cached Target reports itself invalid.
type Dialer interface {
	Dial(address string) (Target, error)
}

// SyncTransporter is implemented by a Dialer (or whatever owns the shared
// RPC runtime) that can drain in-flight callbacks before a caller proceeds,
// mirroring FNET_Transport::sync(): it blocks until every RequestDone
// callback already queued at the time of the call has been delivered.
type SyncTransporter interface {
	SyncTransport()
}

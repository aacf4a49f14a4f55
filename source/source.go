// Package source implements the per-key subscription state machine: a
// single in-flight getConfig call at a time, driven by a scheduler task
// that reschedules itself from the call's completion callback rather than
// running on a dedicated goroutine.
package source

import (
	"log/slog"
	"time"

	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"

	"github.com/lattice-config/frtclient/agent"
	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/connection"
	"github.com/lattice-config/frtclient/pool"
	"github.com/lattice-config/frtclient/request"
	"github.com/lattice-config/frtclient/response"
	"github.com/lattice-config/frtclient/scheduler"
	"github.com/lattice-config/frtclient/transport"
)

// clientTimeoutGrace is added to the server-side timeout reported by the
// Agent to get the client-side call timeout: extra time allowed for the
// server's response to actually arrive after it decides to answer.
const clientTimeoutGrace = 5 * time.Second

// Source subscribes to a single ConfigKey against a ConnectionPool,
// polling on a schedule driven by its Agent's timing policy. Source is
// safe for concurrent use: Start/Close run on the owner's goroutine, poll
// runs on a worker from the context's pool (submitted by the scheduler
// task), and requestDone runs on whatever
// goroutine the transport layer delivers callbacks on — all three are
// serialized only where they touch shared state, never across an Invoke
// call itself.
type Source struct {
	key       configkey.Key
	defSchema []string
	pool      *pool.ConnectionPool
	factory   *request.Factory
	agent     *agent.Agent
	timing    configkey.TimingValues
	log       *slog.Logger
	ctx       context.Context

	task *scheduler.Task

	mu             sync.Mutex
	closed         bool
	currentRequest *request.Request
	currentConn    *connection.Connection
}

// New creates a Source for key, not yet polling. Call Start to begin.
// timing supplies the transient/fatal suspension delays applied to
// whichever peer answers each request; the Agent's own copy of timing
// drives the Source's own poll cadence.
func New(ctx context.Context, key configkey.Key, defSchema []string, p *pool.ConnectionPool, factory *request.Factory, a *agent.Agent, timing configkey.TimingValues, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	s := &Source{key: key, defSchema: defSchema, pool: p, factory: factory, agent: a, timing: timing, log: log, ctx: ctx}
	s.task = scheduler.New(func() { s.dispatch(s.poll) })
	return s
}

// Start triggers the first poll immediately.
func (s *Source) Start() {
	s.task.Schedule(0)
}

// poll runs on a worker from the context's pool, submitted by the
// scheduler task. It builds and dispatches exactly one request; if no peer
// is available (Current returns nil only for a pool with no peers), it logs
// and returns without rescheduling. The task is one-shot, so no further
// poll happens for this Source after that.
func (s *Source) poll() {
	serverTimeout := s.agent.Timeout()
	clientTimeout := serverTimeout + clientTimeoutGrace

	conn := s.pool.Current()
	if conn == nil {
		s.log.Warn("no connection available for config request", "key", s.key.String())
		return
	}

	state := s.agent.ConfigState()
	req := s.factory.Build(s.key, state, s.defSchema, serverTimeout)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.currentRequest = req
	s.currentConn = conn
	s.mu.Unlock()

	if err := conn.Invoke(req, clientTimeout, s); err != nil {
		// Local dial failure: treat like a transport error and let the
		// usual error path drive backoff/reschedule.
		req.SetError(connection.ErrRPCConnection)
		s.requestDone(req)
	}
}

// RequestDone implements transport.Waiter. It is called by the transport
// runtime when req completes, whether by success, error, or local abort.
func (s *Source) RequestDone(req transport.Request) {
	r, ok := req.(*request.Request)
	if !ok {
		return
	}
	s.requestDone(r)
}

func (s *Source) requestDone(req *request.Request) {
	if req.Aborted() {
		s.log.Debug("request aborted, stopping", "key", s.key.String())
		return
	}

	s.mu.Lock()
	conn := s.currentConn
	s.mu.Unlock()

	resp := response.New(req.ReplyJSON(), req.ReplyBinary(), req.ErrorCode())
	// The Agent is the single source of truth for what counts as a
	// failure: a transport-successful response can still fail to decode,
	// and that must suspend the peer exactly like a wire-level error.
	effCode := s.agent.HandleResponse(s.ctx, req, resp)

	if conn != nil {
		if effCode != 0 {
			conn.RecordError(effCode, s.timing.TransientDelay, s.timing.FatalDelay)
		} else {
			conn.RecordSuccess()
		}
	}

	s.scheduleNext()
}

// scheduleNext arms the next poll, unless Close has already run.
func (s *Source) scheduleNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.task.Schedule(s.agent.WaitTime())
}

// Close stops future polling, aborts any in-flight request, and waits for
// the transport runtime to drain any callback already in flight before
// returning — so no RequestDone call can touch this Source after Close
// returns. Close is idempotent.
func (s *Source) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.task.Kill()
	current := s.currentRequest
	s.mu.Unlock()

	if current != nil {
		current.Abort()
	}
	s.pool.SyncTransport()

	s.mu.Lock()
	s.currentRequest = nil
	s.mu.Unlock()
}

// dispatch is a small helper so poll runs on a shared worker pool rather
// than blocking the scheduler's own timer goroutine.
func (s *Source) dispatch(fn func()) {
	context.Pool(s.ctx).Submit(s.ctx, fn)
}

// Package agent implements the per-subscription policy that decides, after
// each getConfig response, whether the holder should be updated and how
// long the Source should wait before its next poll.
package agent

import (
	"log/slog"
	"time"

	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"

	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/connection"
	"github.com/lattice-config/frtclient/holder"
	"github.com/lattice-config/frtclient/internal/xerrors"
	"github.com/lattice-config/frtclient/response"
)

// Responder is the minimal view of a completed request Agent needs: its
// key and a way to verify whether a reported state is already known.
type Responder interface {
	Key() configkey.Key
	VerifyState(newState configkey.State) bool
}

// Agent tracks one subscription's config state and timing policy. It is
// not safe to share across subscriptions — each Source owns exactly one
// Agent.
type Agent struct {
	holder holder.Holder
	timing configkey.TimingValues
	log    *slog.Logger

	mu             sync.Mutex
	configState    configkey.State
	latest         configkey.Value
	waitTime       time.Duration
	nextTimeout    time.Duration
	numConfigured  int
	failedRequests int
}

// New creates an Agent that delivers updates to h using the given timing policy.
func New(h holder.Holder, timing configkey.TimingValues) *Agent {
	return &Agent{holder: h, timing: timing, nextTimeout: timing.InitialTimeout, log: slog.Default()}
}

// HandleResponse dispatches to the OK or error path depending on whether
// resp both validates and reports no transport-level error, then decodes
// the payload. It returns the effective completion code the caller should
// report to the Connection that served the request: 0 on a clean success,
// or the error code (transport, application, or connection.ErrMalformedPayload
// for a decode failure that only surfaces after the transport already
// reported success) that should drive that peer's suspension accounting.
func (a *Agent) HandleResponse(ctx context.Context, req Responder, resp *response.Response) int {
	if !resp.Validate() || resp.IsError() {
		errCode := resp.ErrorCode()
		a.handleError(req, errCode)
		return errCode
	}

	if err := resp.Fill(); err != nil {
		// The transport succeeded but the payload itself didn't decode:
		// still a fatal failure for this peer, just one with no wire
		// error code of its own.
		a.handleError(req, connection.ErrMalformedPayload)
		return connection.ErrMalformedPayload
	}

	a.handleOK(ctx, req, resp)
	return 0
}

func (a *Agent) handleOK(ctx context.Context, req Responder, resp *response.Response) {
	a.mu.Lock()
	a.failedRequests = 0
	a.mu.Unlock()

	newState := resp.State()
	if !req.VerifyState(newState) {
		a.handleUpdatedGeneration(ctx, resp.Key(), newState, resp.Value())
	}

	a.mu.Lock()
	a.setWaitTimeLocked(a.timing.SuccessDelay, 1)
	a.nextTimeout = a.timing.SuccessTimeout
	a.mu.Unlock()
}

func (a *Agent) handleUpdatedGeneration(ctx context.Context, key configkey.Key, newState configkey.State, value configkey.Value) {
	a.mu.Lock()
	changed := a.latest.Fingerprint != value.Fingerprint
	if changed {
		a.latest = value
	}
	a.configState = newState
	a.numConfigured++
	latest := a.latest
	a.mu.Unlock()

	a.holder.Handle(ctx, configkey.Update{Value: latest, Changed: changed, Generation: newState.Generation})
}

func (a *Agent) handleError(req Responder, errCode int) {
	cat := xerrors.Classify(errCode)
	a.log.Info("config request failed", "key", req.Key().String(), "errorCode", errCode, "category", cat.String())

	a.mu.Lock()
	defer a.mu.Unlock()

	a.failedRequests++
	multiplier := a.failedRequests
	if multiplier > a.timing.MaxDelayMultiplier {
		multiplier = a.timing.MaxDelayMultiplier
	}
	delay := a.timing.UnconfiguredDelay
	if a.numConfigured > 0 {
		delay = a.timing.ConfiguredErrorDelay
	}
	a.setWaitTimeLocked(delay, multiplier)
	a.nextTimeout = a.timing.ErrorTimeout
}

// setWaitTimeLocked must be called with a.mu held.
func (a *Agent) setWaitTimeLocked(delay time.Duration, multiplier int) {
	a.waitTime = a.timing.FixedDelay + time.Duration(multiplier)*delay
}

// Timeout returns the per-call timeout the Source should use for its next request.
func (a *Agent) Timeout() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextTimeout
}

// WaitTime returns how long the Source should wait before its next poll.
func (a *Agent) WaitTime() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.waitTime
}

// ConfigState returns the generation/fingerprint this Agent last accepted
// from the server, used to build the next request's verifyState check.
func (a *Agent) ConfigState() configkey.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.configState
}

// NumConfigured returns how many times this Agent has delivered an update
// to its holder; used to pick between configured/unconfigured error delay.
func (a *Agent) NumConfigured() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numConfigured
}

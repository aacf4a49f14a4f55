package connection

import (
	"testing"
	"time"

	"github.com/lattice-config/frtclient/transport"
)

type fakeReq struct {
	errCode int
}

func (r *fakeReq) ErrorCode() int { return r.errCode }
func (r *fakeReq) IsError() bool  { return r.errCode != 0 }

type fakeWaiter struct {
	done chan transport.Request
}

func (w *fakeWaiter) RequestDone(req transport.Request) {
	w.done <- req
}

func TestInvokeRoundTrip(t *testing.T) {
	dialer := &transport.FakeDialer{
		Invoke: func(addr string, req transport.Request) transport.Request {
			return &fakeReq{errCode: 0}
		},
	}
	conn := New("peer1", dialer)
	waiter := &fakeWaiter{done: make(chan transport.Request, 1)}

	if err := conn.Invoke(&fakeReq{}, time.Second, waiter); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	resp := <-waiter.done
	if resp.IsError() {
		t.Fatalf("expected success")
	}
}

func TestRecordErrorSuspendsThenSuccessClears(t *testing.T) {
	conn := New("peer1", &transport.FakeDialer{})

	if !conn.Ready() {
		t.Fatalf("new connection should be ready")
	}

	conn.RecordError(ErrRPCTimeout, time.Second, 5*time.Second)
	if conn.Ready() {
		t.Fatalf("connection should be suspended after a transient failure")
	}

	conn.RecordSuccess()
	if !conn.Ready() {
		t.Fatalf("connection should be ready again after success")
	}
}

func TestRecordErrorMultiplierCapsAtMax(t *testing.T) {
	conn := New("peer1", &transport.FakeDialer{})
	base := 1 * time.Millisecond

	for i := 0; i < maxDelayMultiplier+3; i++ {
		conn.RecordError(ErrRPCConnection, base, base)
	}
	until := conn.SuspendedUntil()
	maxExpected := time.Now().Add(time.Duration(maxDelayMultiplier) * base)
	if until.After(maxExpected.Add(50 * time.Millisecond)) {
		t.Fatalf("suspension exceeded the capped multiplier: %v vs %v", until, maxExpected)
	}
}

func TestRecordErrorUnknownCodeIsNoop(t *testing.T) {
	conn := New("peer1", &transport.FakeDialer{})
	conn.RecordError(999999, time.Second, time.Second)
	if !conn.Ready() {
		t.Fatalf("unclassified error code must not suspend the connection")
	}
}

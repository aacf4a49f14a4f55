package transport

import "time"

// FakeDialer is an in-process Dialer used by tests and by callers that want
// to exercise the pool/connection/source machinery without a real network
// transport. It is the asynchronous analogue of a fake dialFunc.
type FakeDialer struct {
	// Invoke, if set, is called synchronously from InvokeAsync to compute
	// the result delivered to the Waiter. It runs on whatever goroutine
	// called InvokeAsync.
	Invoke func(addr string, req Request) Request
	// DialErr, if set, is returned by Dial instead of a Target.
	DialErr error
}

func (d *FakeDialer) Dial(address string) (Target, error) {
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	return &fakeTarget{addr: address, invoke: d.Invoke}, nil
}

type fakeTarget struct {
	addr   string
	invoke func(addr string, req Request) Request
	closed bool
}

func (t *fakeTarget) InvokeAsync(req Request, timeout time.Duration, waiter Waiter) {
	result := req
	if t.invoke != nil {
		result = t.invoke(t.addr, req)
	}
	waiter.RequestDone(result)
}

func (t *fakeTarget) Valid() bool { return !t.closed }

func (t *fakeTarget) Close() error {
	t.closed = true
	return nil
}

func (t *fakeTarget) SyncTransport() {}

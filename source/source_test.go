package source

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lattice-config/frtclient/agent"
	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/holder"
	"github.com/lattice-config/frtclient/pool"
	"github.com/lattice-config/frtclient/request"
	"github.com/lattice-config/frtclient/transport"
)

func fastTiming() configkey.TimingValues {
	tv := configkey.DefaultTimingValues()
	tv.InitialTimeout = 50 * time.Millisecond
	tv.SuccessTimeout = 50 * time.Millisecond
	tv.ErrorTimeout = 50 * time.Millisecond
	tv.SuccessDelay = 10 * time.Millisecond
	tv.UnconfiguredDelay = 10 * time.Millisecond
	tv.ConfiguredErrorDelay = 10 * time.Millisecond
	tv.FixedDelay = 0
	return tv
}

const okJSON = `{
	"configId": "baz/qux", "defName": "foo", "defNamespace": "bar",
	"configMD5": "deadbeef", "generation": 1,
	"compressionInfo": {"compressionType": "UNCOMPRESSED", "uncompressedSize": 0}
}`

func newTestSource(t *testing.T, invoke func(addr string, req transport.Request) transport.Request) (*Source, chan configkey.Update) {
	t.Helper()
	updates := make(chan configkey.Update, 8)
	h := holder.Func(func(ctx context.Context, u configkey.Update) { updates <- u })
	a := agent.New(h, fastTiming())

	dialer := &transport.FakeDialer{Invoke: invoke}
	p := pool.New([]string{"peer1"}, dialer, &pool.RoundRobinPicker{})
	factory := request.NewFactory("test-client")
	key := configkey.Key{DefName: "foo", DefNamespace: "bar", ConfigID: "baz/qux"}

	s := New(t.Context(), key, nil, p, factory, a, fastTiming(), slog.Default())
	return s, updates
}

func TestSourceDeliversUpdateOnFirstPoll(t *testing.T) {
	invoke := func(addr string, req transport.Request) transport.Request {
		r := req.(*request.Request)
		r.SetReply([]byte(okJSON), nil)
		return r
	}
	s, updates := newTestSource(t, invoke)
	s.Start()
	defer s.Close()

	select {
	case u := <-updates:
		if u.Generation != 1 || !u.Changed {
			t.Fatalf("unexpected update: %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("did not receive an update in time")
	}
}

func TestSourceReschedulesOnError(t *testing.T) {
	var calls int
	invoke := func(addr string, req transport.Request) transport.Request {
		calls++
		r := req.(*request.Request)
		r.SetError(100) // ErrRPCConnection
		return r
	}
	s, _ := newTestSource(t, invoke)
	s.Start()
	defer s.Close()

	deadline := time.Now().Add(time.Second)
	for calls < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if calls < 3 {
		t.Fatalf("expected at least 3 polls after repeated errors, got %d", calls)
	}
}

func TestSourceSuspendsConnOnMalformedPayload(t *testing.T) {
	var calls int
	invoke := func(addr string, req transport.Request) transport.Request {
		calls++
		r := req.(*request.Request)
		r.SetReply([]byte("not json"), nil) // transport succeeds, payload doesn't decode
		return r
	}
	s, _ := newTestSource(t, invoke)
	s.Start()
	defer s.Close()

	deadline := time.Now().Add(time.Second)
	for calls < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if calls < 3 {
		t.Fatalf("expected at least 3 polls after repeated decode failures, got %d", calls)
	}
	if s.pool.Current().Ready() {
		t.Fatalf("expected the sole peer to be suspended after repeated malformed payloads")
	}
}

func TestClosePreventsFurtherPolls(t *testing.T) {
	var calls int
	invoke := func(addr string, req transport.Request) transport.Request {
		calls++
		r := req.(*request.Request)
		r.SetReply([]byte(okJSON), nil)
		return r
	}
	s, updates := newTestSource(t, invoke)
	s.Start()

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatalf("no update before close")
	}
	s.Close()
	after := calls
	time.Sleep(50 * time.Millisecond)
	if calls > after+1 {
		// allow at most one in-flight poll to land after Close was called
		t.Fatalf("polls continued after Close: before=%d after=%d", after, calls)
	}
}

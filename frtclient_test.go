package frtclient

import (
	"context"
	"testing"
	"time"

	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/holder"
	"github.com/lattice-config/frtclient/request"
	"github.com/lattice-config/frtclient/transport"
)

func TestClientSubscribeDeliversUpdate(t *testing.T) {
	invoke := func(addr string, req transport.Request) transport.Request {
		r := req.(*request.Request)
		r.SetReply([]byte(`{
			"configId": "a/b", "defName": "foo", "defNamespace": "bar",
			"configMD5": "abc123", "generation": 1,
			"compressionInfo": {"compressionType": "UNCOMPRESSED", "uncompressedSize": 0}
		}`), nil)
		return r
	}
	dialer := &transport.FakeDialer{Invoke: invoke}

	timing := configkey.DefaultTimingValues()
	timing.SuccessTimeout = 50 * time.Millisecond
	timing.SuccessDelay = 10 * time.Millisecond

	c := New(dialer, []string{"peer1"}, WithTimingValues(timing), WithClientHostname("test-client"))
	defer c.Close()

	updates := make(chan configkey.Update, 1)
	key := configkey.Key{DefName: "foo", DefNamespace: "bar", ConfigID: "a/b"}
	s := c.Subscribe(t.Context(), key, nil, holder.Func(func(ctx context.Context, u configkey.Update) {
		updates <- u
	}))
	defer s.Close()

	select {
	case u := <-updates:
		if u.Generation != 1 || u.Value.Fingerprint != "abc123" {
			t.Fatalf("unexpected update: %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update received")
	}
}

func TestWithHostKeyUsesHashPicker(t *testing.T) {
	dialer := &transport.FakeDialer{}
	c := New(dialer, []string{"a", "b", "c"}, WithHostKey("stable-host"))
	first := c.pool.Current().Address()
	for i := 0; i < 5; i++ {
		if got := c.pool.Current().Address(); got != first {
			t.Fatalf("expected stable selection with a host key, got %s then %s", first, got)
		}
	}
}

package response

import (
	"testing"

	"github.com/lattice-config/frtclient/internal/xerrors"
)

func validJSONTree() []byte {
	return []byte(`{
		"configId": "baz/qux",
		"defName": "foo",
		"defNamespace": "bar",
		"defMD5": "abc",
		"configMD5": "deadbeef",
		"generation": 42,
		"internalRedeploy": false,
		"compressionInfo": {"compressionType": "UNCOMPRESSED", "uncompressedSize": 0}
	}`)
}

func TestFillSuccess(t *testing.T) {
	r := New(validJSONTree(), nil, 0)
	if !r.Validate() {
		t.Fatalf("expected a valid response")
	}
	if err := r.Fill(); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if r.State().Generation != 42 {
		t.Fatalf("unexpected generation: %d", r.State().Generation)
	}
}

func TestFillTwiceIsNoop(t *testing.T) {
	r := New(validJSONTree(), nil, 0)
	if err := r.Fill(); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	state := r.State()
	if err := r.Fill(); err != nil {
		t.Fatalf("second Fill: %v", err)
	}
	if r.State() != state {
		t.Fatalf("second Fill changed state")
	}
}

func TestValidateRejectsTransportError(t *testing.T) {
	r := New(validJSONTree(), nil, 100)
	if r.Validate() {
		t.Fatalf("expected Validate to reject a transport-level error")
	}
}

func TestFillMalformedOuterJSON(t *testing.T) {
	r := New([]byte("not json"), nil, 0)
	err := r.Fill()
	if err == nil {
		t.Fatalf("expected an error for malformed outer JSON")
	}
	if !xerrors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload in the chain, got %v", err)
	}
}

func TestFillMalformedPayloadIsFatal(t *testing.T) {
	rt := []byte(`{
		"configId": "baz/qux", "defName": "foo", "defNamespace": "bar",
		"configMD5": "deadbeef", "generation": 1,
		"compressionInfo": {"compressionType": "UNCOMPRESSED", "uncompressedSize": 7}
	}`)
	r := New(rt, []byte("not-json"), 0)
	err := r.Fill()
	if err == nil {
		t.Fatalf("expected a malformed-payload error")
	}
	if !xerrors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload in the chain, got %v", err)
	}
}

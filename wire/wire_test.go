package wire

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func TestMarshalRequestProducesBody(t *testing.T) {
	req := &RequestTree{
		Version:           3,
		DefName:           "foo",
		DefNamespace:      "bar",
		ConfigID:          "baz/qux",
		CurrentGeneration: 1,
		TimeoutMillis:     5000,
		CompressionType:   "LZ4",
		VespaVersion:      "8.0.0",
	}
	data, err := MarshalRequest(req)
	if err != nil {
		t.Fatalf("MarshalRequest: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty request body")
	}
}

func TestUnmarshalResponse(t *testing.T) {
	data := []byte(`{
		"configId": "baz/qux",
		"defName": "foo",
		"defNamespace": "bar",
		"defMD5": "abc",
		"configMD5": "deadbeef",
		"generation": 42,
		"internalRedeploy": false,
		"compressionInfo": {"compressionType": "LZ4", "uncompressedSize": 128}
	}`)
	rt, err := UnmarshalResponse(data)
	if err != nil {
		t.Fatalf("UnmarshalResponse: %v", err)
	}
	want := &ResponseTree{
		ConfigID:        "baz/qux",
		DefName:         "foo",
		DefNamespace:    "bar",
		DefMD5:          "abc",
		ConfigMD5:       "deadbeef",
		Generation:      42,
		CompressionInfo: CompressionInfo{CompressionType: "LZ4", UncompressedSize: 128},
	}
	if diff := pretty.Compare(want, rt); diff != "" {
		t.Fatalf("unexpected decode (-want +got):\n%s", diff)
	}
}

func TestUnmarshalResponseMalformedIsError(t *testing.T) {
	if _, err := UnmarshalResponse([]byte("not json")); err == nil {
		t.Fatalf("expected an error decoding malformed JSON")
	}
}

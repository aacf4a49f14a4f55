package compress

import (
	"bytes"
	"testing"

	"github.com/lattice-config/frtclient/configkey"
)

func TestLZ4RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 64)
	compressed, err := Compress(configkey.LZ4, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(configkey.LZ4, compressed, uint32(len(data)))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestUncompressedPassthrough(t *testing.T) {
	data := []byte("plain")
	got, err := Compress(configkey.Uncompressed, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("expected passthrough, got %v", got)
	}
	got, err = Decompress(configkey.Uncompressed, data, uint32(len(data)))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestEmptyInputShortCircuits(t *testing.T) {
	got, err := Decompress(configkey.LZ4, nil, 100)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

// Package compress implements the payload encodings the FRT config wire
// protocol uses: a no-op passthrough for UNCOMPRESSED and an LZ4 codec for
// LZ4. Decompress honors the declared uncompressed size and is the fatal
// boundary for malformed wire payloads.
package compress

import (
	"fmt"

	"github.com/gostdlib/base/concurrency/sync"

	"github.com/lattice-config/frtclient/configkey"
)

// Compressor compresses and decompresses config payloads for one wire
// CompressionType.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	// Decompress expands data, which is known to uncompress to exactly
	// uncompressedSize bytes. Implementations must return an error,
	// never silently truncate or pad, if the actual decompressed size
	// differs enough that the buffer can't hold it.
	Decompress(data []byte, uncompressedSize uint32) ([]byte, error)
	Type() configkey.CompressionType
}

var (
	registry   = map[configkey.CompressionType]Compressor{}
	registryMu sync.RWMutex
)

// Register adds a Compressor to the registry, replacing any existing
// registration for the same type. Thread-safe.
func Register(c Compressor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Type()] = c
}

// Get returns the Compressor registered for t, or nil if none is registered.
func Get(t configkey.CompressionType) Compressor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[t]
}

// Compress encodes data per t. Uncompressed and empty inputs pass through
// unchanged.
func Compress(t configkey.CompressionType, data []byte) ([]byte, error) {
	if t == configkey.Uncompressed || len(data) == 0 {
		return data, nil
	}
	c := Get(t)
	if c == nil {
		return nil, fmt.Errorf("compress: no compressor registered for %s", t)
	}
	return c.Compress(data)
}

// Decompress decodes data per t, which is expected to expand to
// uncompressedSize bytes. Uncompressed and empty inputs pass through
// unchanged regardless of t, matching the wire protocol's rule that an
// empty return slot never carries a compressed body.
func Decompress(t configkey.CompressionType, data []byte, uncompressedSize uint32) ([]byte, error) {
	if t == configkey.Uncompressed || len(data) == 0 {
		return data, nil
	}
	c := Get(t)
	if c == nil {
		return nil, fmt.Errorf("compress: no compressor registered for %s", t)
	}
	return c.Decompress(data, uncompressedSize)
}

func init() {
	Register(&lz4Compressor{})
}

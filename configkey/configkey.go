// Package configkey defines the identity and value types shared by the
// connection pool, request/response codec and agent: the key that names a
// piece of configuration, the state (generation + fingerprint) a peer
// reports for it, and the opaque value payload itself.
package configkey

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Key identifies a single subscribable unit of configuration: a named,
// versioned definition plus the instance id the caller wants configured.
type Key struct {
	DefName      string
	DefNamespace string
	DefMD5       string
	ConfigID     string
}

// String returns a stable, log-friendly representation of the key.
func (k Key) String() string {
	return fmt.Sprintf("%s.%s,%s", k.DefNamespace, k.DefName, k.ConfigID)
}

// State is the generation/fingerprint pair a peer reports alongside a
// config payload. The zero value represents "nothing fetched yet".
type State struct {
	Generation  int64
	Fingerprint string
}

// Value is the opaque config payload plus its own fingerprint. Two values
// are the same configuration iff their fingerprints match; Generation is
// not part of the identity comparison, since a peer may bump the
// generation without changing the payload (see Agent.handleUpdatedGeneration).
type Value struct {
	Payload     []byte
	Fingerprint string
}

// Update is what an Agent delivers to a Holder after processing a response.
type Update struct {
	Value      Value
	Changed    bool
	Generation int64
}

// Fingerprint returns the lowercase hex xxhash64 digest of payload, the
// same digest algorithm the wire protocol uses for configMD5/configXxhash64.
func Fingerprint(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

// CompressionType enumerates the payload encodings the wire protocol supports.
type CompressionType uint8

const (
	Uncompressed CompressionType = iota
	LZ4
)

func (c CompressionType) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case LZ4:
		return "LZ4"
	default:
		return "UNKNOWN"
	}
}

// ParseCompressionType parses the wire string form of a CompressionType.
// Unknown values fall back to Uncompressed, matching the original's
// stringToCompressionType default behavior.
func ParseCompressionType(s string) CompressionType {
	if s == "LZ4" {
		return LZ4
	}
	return Uncompressed
}

// CompressionInfo describes how a response payload was encoded on the wire.
type CompressionInfo struct {
	Type             CompressionType
	UncompressedSize uint32
}

// TimingValues are the immutable delay/timeout policy a Source and its
// Agent apply to a single subscription. All fields are durations except
// MaxDelayMultiplier, a dimensionless cap on the failure-count multiplier.
type TimingValues struct {
	InitialTimeout       time.Duration // used before the first response
	SuccessTimeout       time.Duration
	ErrorTimeout         time.Duration
	SuccessDelay         time.Duration
	ConfiguredErrorDelay time.Duration
	UnconfiguredDelay    time.Duration
	FixedDelay           time.Duration
	TransientDelay       time.Duration
	FatalDelay           time.Duration
	MaxDelayMultiplier   int
}

// DefaultTimingValues mirrors the stock Vespa client defaults: fast enough
// for interactive bootstrap, patient enough to avoid hammering a server
// that's merely busy.
func DefaultTimingValues() TimingValues {
	return TimingValues{
		InitialTimeout:       15 * time.Second,
		SuccessTimeout:       55 * time.Second,
		ErrorTimeout:         20 * time.Second,
		SuccessDelay:         0,
		ConfiguredErrorDelay: 10 * time.Second,
		UnconfiguredDelay:    1 * time.Second,
		FixedDelay:           0,
		TransientDelay:       1 * time.Second,
		FatalDelay:           5 * time.Second,
		MaxDelayMultiplier:   6,
	}
}

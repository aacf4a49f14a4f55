// Package request builds config.v3.getConfig requests and verifies server
// responses against the state a caller already holds. The protocol
// version, trace level and compression type are read from the environment
// once, at Factory construction, and never re-read afterward.
package request

import (
	"os"
	"strconv"
	"time"

	"github.com/gostdlib/base/concurrency/sync"

	"github.com/lattice-config/frtclient/buildinfo"
	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/wire"
)

const (
	defaultProtocolVersion = 3
	defaultTraceLevel      = 0
)

var defaultCompressionType = configkey.LZ4

// envInt reads the first set of primary/legacy environment variable names
// as an int, falling back to def on absence or parse failure — the wire
// protocol's own fallback rule for malformed env overrides.
func envInt(def int, names ...string) int {
	for _, name := range names {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}
	return def
}

func envString(def string, names ...string) string {
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
	}
	return def
}

func verifyProtocolVersion(v int) int {
	switch v {
	case 1, 2, 3:
		return v
	default:
		return defaultProtocolVersion
	}
}

// Factory builds Requests for a subscriber. Construct one Factory per
// ConfigSubscriber (or equivalent long-lived caller); its environment-
// derived settings are fixed for the Factory's lifetime.
type Factory struct {
	protocolVersion int
	traceLevel      int
	compressionType configkey.CompressionType
	clientHostname  string
	vespaVersion    string
}

// NewFactory reads the protocol knobs from the environment and returns a
// ready-to-use Factory. clientHostname is reported to the server verbatim
// in every request.
func NewFactory(clientHostname string) *Factory {
	pv := verifyProtocolVersion(envInt(defaultProtocolVersion,
		"VESPA_CONFIG_PROTOCOL_VERSION", "services__config_protocol_version_override"))
	tl := envInt(defaultTraceLevel,
		"VESPA_CONFIG_PROTOCOL_TRACELEVEL", "services__config_protocol_tracelevel")
	ct := configkey.ParseCompressionType(envString(defaultCompressionType.String(),
		"VESPA_CONFIG_PROTOCOL_COMPRESSION", "services__config_protocol_compression"))

	return &Factory{
		protocolVersion: pv,
		traceLevel:      tl,
		compressionType: ct,
		clientHostname:  clientHostname,
		vespaVersion:    buildinfo.Version(),
	}
}

// ProtocolVersion returns the protocol version this Factory was constructed with.
func (f *Factory) ProtocolVersion() int { return f.protocolVersion }

// Request is a single in-flight or completed getConfig call: the wire body
// plus the state it was built against, for later verification against the
// server's response. key, state and body are fixed at Build and read-only
// afterward; errCode/aborted/replyJSON/replyBinary are written by whichever
// goroutine the transport layer completes the call on and read by the
// Source's owner goroutine (Abort, via Close), so mu guards all four.
type Request struct {
	key   configkey.Key
	state configkey.State
	body  *wire.RequestTree

	mu          sync.Mutex
	errCode     int
	aborted     bool
	replyJSON   []byte
	replyBinary []byte
}

// Method returns the RPC method name to invoke this request under.
func (r *Request) Method() string {
	if r.body.Version >= 3 {
		return wire.Method
	}
	return wire.MethodV2
}

// Body returns the marshaled JSON request body.
func (r *Request) Body() ([]byte, error) {
	return wire.MarshalRequest(r.body)
}

// Key returns the ConfigKey this request was built for.
func (r *Request) Key() configkey.Key { return r.key }

// ErrorCode returns the completion status recorded by SetError/Abort, or 0
// if the request has not completed (or completed successfully).
func (r *Request) ErrorCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errCode
}

// IsError reports whether ErrorCode indicates a failure.
func (r *Request) IsError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errCode != 0 && !r.aborted
}

// SetError records a non-success completion code from the transport layer.
func (r *Request) SetError(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errCode = code
}

// SetReply records the return-slot contents a peer sent back: the JSON
// string slot always present, and the binary blob slot present only under
// protocol v3 ("sx"). The transport layer calls this before notifying the
// Waiter.
func (r *Request) SetReply(jsonBody, binaryBody []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replyJSON = jsonBody
	r.replyBinary = binaryBody
}

// ReplyJSON returns the JSON return-slot contents, if any were recorded by SetReply.
func (r *Request) ReplyJSON() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replyJSON
}

// ReplyBinary returns the binary return-slot contents, if any were recorded by SetReply.
func (r *Request) ReplyBinary() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replyBinary
}

// Abort marks the request as locally aborted (Source.Close tearing down an
// in-flight call); RequestDone handlers must treat this as a silent no-op,
// never a peer failure.
func (r *Request) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = true
	r.errCode = abortErrorCode
}

// Aborted reports whether Abort was called on this request.
func (r *Request) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}

// abortErrorCode is the sentinel ErrorCode Abort sets; it intentionally
// doesn't classify as transient or fatal in connection.classify.
const abortErrorCode = 300

// VerifyState reports whether newState is identical to the state this
// request was built against (the server returned nothing we didn't
// already have).
func (r *Request) VerifyState(newState configkey.State) bool {
	return newState.Fingerprint == r.state.Fingerprint && newState.Generation == r.state.Generation
}

// Build constructs a Request for key/state, to be invoked with the given
// per-call timeout. defSchema, if non-empty, is attached as defContent for
// config definitions the server doesn't already know.
func (f *Factory) Build(key configkey.Key, state configkey.State, defSchema []string, timeout time.Duration) *Request {
	body := &wire.RequestTree{
		Version:           f.protocolVersion,
		DefName:           key.DefName,
		DefNamespace:      key.DefNamespace,
		DefMD5:            key.DefMD5,
		DefContent:        defSchema,
		ConfigID:          key.ConfigID,
		ClientHostname:    f.clientHostname,
		ConfigXxhash64:    state.Fingerprint,
		CurrentGeneration: state.Generation,
		TimeoutMillis:     timeout.Milliseconds(),
		Trace:             wire.Trace{Level: f.traceLevel},
		VespaVersion:      f.vespaVersion,
	}
	if f.protocolVersion >= 3 {
		body.CompressionType = f.compressionType.String()
	}
	return &Request{key: key, state: state, body: body}
}

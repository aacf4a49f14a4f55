// Package response parses the result of a getConfig call: validating the
// transport-level completion, then lazily decoding the JSON tree and
// decompressing its payload into a configkey.Value.
package response

import (
	"fmt"
	"log/slog"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/lattice-config/frtclient/compress"
	"github.com/lattice-config/frtclient/configkey"
	"github.com/lattice-config/frtclient/internal/xerrors"
	"github.com/lattice-config/frtclient/wire"
)

// ErrMalformedPayload is wrapped by the error Fill returns when the JSON
// tree doesn't decode, the payload doesn't decompress, or the decompressed
// payload isn't valid JSON at all. Callers (the Source/Agent) classify it
// the same way they classify a fatal application error code: the peer is
// suspended and the next poll waits out the error backoff.
var ErrMalformedPayload = xerrors.New("response: malformed config payload")

// Response wraps one getConfig call's raw transport outcome (JSON string +
// binary payload) and lazily decodes it into a usable configkey.Value.
type Response struct {
	jsonBody    []byte
	binaryBody  []byte
	errorCode   int

	filled bool
	key    configkey.Key
	state  configkey.State
	value  configkey.Value
}

// New wraps the raw return-slot contents of a completed call. errorCode is
// the transport-level completion status; 0 means success.
func New(jsonBody, binaryBody []byte, errorCode int) *Response {
	return &Response{jsonBody: jsonBody, binaryBody: binaryBody, errorCode: errorCode}
}

// Validate reports whether the response is well-formed enough to attempt
// Fill: it has a non-empty JSON body and no transport-level error.
func (r *Response) Validate() bool {
	return r.errorCode == 0 && len(r.jsonBody) > 0
}

// IsError reports whether the response carries a transport-level error
// code (set by the Connection/Source layer from the completed Request).
func (r *Response) IsError() bool { return r.errorCode != 0 }

// ErrorCode returns the transport-level completion status.
func (r *Response) ErrorCode() int { return r.errorCode }

// Fill decodes the JSON tree and decompresses the binary payload. Once a
// call has succeeded, calling Fill again is a no-op that logs a warning and
// returns nil without redoing any work, matching the original's "called
// twice, probably a bug" tolerance rather than erroring. A call that
// failed leaves the Response unfilled, so a later call decodes again.
func (r *Response) Fill() error {
	if r.filled {
		slog.Warn("response: Fill called more than once")
		return nil
	}

	rt, err := wire.UnmarshalResponse(r.jsonBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	r.key = configkey.Key{
		DefName:      rt.DefName,
		DefNamespace: rt.DefNamespace,
		DefMD5:       rt.DefMD5,
		ConfigID:     rt.ConfigID,
	}
	r.state = configkey.State{
		Generation:  rt.Generation,
		Fingerprint: rt.ConfigMD5,
	}

	ct := configkey.ParseCompressionType(rt.CompressionInfo.CompressionType)
	payload, err := compress.Decompress(ct, r.binaryBody, rt.CompressionInfo.UncompressedSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if len(payload) > 0 {
		// A non-empty decompressed payload that fails to parse as JSON at
		// all is the fatal case: the original aborts the process here.
		var probe jsontext.Value
		if err := jsonv2.Unmarshal(payload, &probe); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	}

	r.value = configkey.Value{Payload: payload, Fingerprint: rt.ConfigMD5}
	r.filled = true
	return nil
}

// Key returns the key reported by the server. Valid only after a
// successful Fill.
func (r *Response) Key() configkey.Key { return r.key }

// State returns the generation/fingerprint reported by the server. Valid
// only after a successful Fill.
func (r *Response) State() configkey.State { return r.state }

// Value returns the decoded, decompressed config payload. Valid only after
// a successful Fill.
func (r *Response) Value() configkey.Value { return r.value }

// Package xerrors is this module's local error wrapper around
// github.com/gostdlib/base/errors: the stdlib-shaped helpers (New, Is, As,
// Unwrap, Join) plus a Category taxonomy for classifying the error
// codes the config protocol reports, so callers log a consistent
// Transient/Fatal/Protocol category rather than a bare error string.
package xerrors

import (
	"github.com/gostdlib/base/errors"

	"github.com/lattice-config/frtclient/connection"
)

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Unwrap returns the result of calling err's Unwrap method, if any.
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join wraps a set of errors, discarding nils.
func Join(errs ...error) error { return errors.Join(errs...) }

// Category classifies why a peer interaction failed.
type Category uint32

const (
	// CatUnknown means the error code has not been classified. Treated as
	// a no-op by Connection.RecordError: no suspension is applied.
	CatUnknown Category = iota
	// CatTransient means the failure was at the transport level (RPC
	// connection failure, RPC timeout) and the peer should back off for a
	// short, transient delay.
	CatTransient
	// CatFatal means the config server itself rejected the request
	// (unknown config, illegal parameter, outdated config, internal
	// error) and the peer should back off for a longer, fatal delay.
	CatFatal
	// CatProtocol means the response could not be decoded at all — a
	// malformed wire payload. Treated the same as CatFatal for suspension
	// purposes but kept distinct for logging.
	CatProtocol
)

func (c Category) String() string {
	switch c {
	case CatTransient:
		return "Transient"
	case CatFatal:
		return "Fatal"
	case CatProtocol:
		return "Protocol"
	default:
		return "Unknown"
	}
}

// Classify maps a config protocol error code to the Category used for
// logging. This mirrors connection.classify's transient/fatal split but
// additionally distinguishes the protocol-level malformed-payload case,
// which has no wire error code and is reported under the synthetic
// connection.ErrMalformedPayload code.
func Classify(errCode int) Category {
	switch errCode {
	case connection.ErrRPCConnection, connection.ErrRPCTimeout:
		return CatTransient
	case connection.ErrMalformedPayload:
		return CatProtocol
	case connection.ErrUnknownConfig, connection.ErrUnknownDefinition, connection.ErrUnknownVersion,
		connection.ErrUnknownConfigID, connection.ErrUnknownDefMD5, connection.ErrIllegalName,
		connection.ErrIllegalVersion, connection.ErrIllegalConfigID, connection.ErrIllegalDefMD5,
		connection.ErrIllegalConfigMD5, connection.ErrIllegalTimeout, connection.ErrOutdatedConfig,
		connection.ErrInternalError:
		return CatFatal
	default:
		return CatUnknown
	}
}

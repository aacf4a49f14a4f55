// Package holder defines the contract between an Agent and whatever
// external subscriber consumes its config updates. The full subscriber
// API (multi-key waiting, generation reconciliation across keys) is out
// of scope here; this is only the handoff point.
package holder

import (
	"github.com/gostdlib/base/context"

	"github.com/lattice-config/frtclient/configkey"
)

// Holder receives config updates as an Agent processes responses.
// Handle is called synchronously from the Agent's response-handling path
// and must not block for long; it is the caller's responsibility to hand
// off to its own async machinery if needed.
type Holder interface {
	Handle(ctx context.Context, update configkey.Update)
}

// Func adapts a plain function to the Holder interface.
type Func func(ctx context.Context, update configkey.Update)

func (f Func) Handle(ctx context.Context, update configkey.Update) { f(ctx, update) }

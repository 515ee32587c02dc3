package vm

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/arcadechain/core"
)

// Guard is the reentrancy lock shared by every call frame of one executor.
type Guard struct {
	locked bool
}

// Locked reports whether a guarded handler is currently running.
func (g *Guard) Locked() bool { return g.locked }

// NonReentrant rejects the call while another guarded handler is running in
// the same executor, and rejects it while the chain is paused.
func NonReentrant(h Handler) Handler {
	return func(ctx *Context, payload json.RawMessage) error {
		if ctx.guard.locked {
			return core.ErrReentrancy
		}
		params, err := ctx.Params()
		if err != nil {
			return err
		}
		if params.Paused {
			return core.ErrPaused
		}
		ctx.guard.locked = true
		defer func() { ctx.guard.locked = false }()
		return h(ctx, payload)
	}
}

// RequireAdmin fails unless the caller holds the admin role.
func RequireAdmin(ctx *Context) (*core.Params, error) {
	params, err := ctx.Params()
	if err != nil {
		return nil, err
	}
	if !params.IsAdmin(ctx.Caller) {
		return nil, fmt.Errorf("%w: %s is not an admin", core.ErrUnauthorized, ctx.Caller)
	}
	return params, nil
}

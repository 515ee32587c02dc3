package vm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
)

// maxCallDepth bounds nested privileged calls (a proposal scheduling a
// timelock call that executes another proposal, and so on).
const maxCallDepth = 4

// PrivilegedCall is an arbitrary administrative call carried by a proposal or
// a timelock operation.
type PrivilegedCall struct {
	Target  core.TxType     `json:"target"`
	Payload json.RawMessage `json:"payload"`
	Value   uint64          `json:"value"`
}

// ValidateCall checks that call names a privileged target without running it.
func ValidateCall(call PrivilegedCall) error {
	e, err := globalRegistry.lookup(call.Target)
	if err != nil {
		return err
	}
	if !e.privileged {
		return fmt.Errorf("%w: %q is not a privileged call target", core.ErrValidation, call.Target)
	}
	if call.Value > 0 && !e.payable {
		return fmt.Errorf("%w: %q does not accept value", core.ErrValidation, call.Target)
	}
	return nil
}

// Dispatch is the single interpreter for privileged calls. It runs the
// target handler with caller as the acting address. Only handlers registered
// with Privileged() are reachable. Failures of the target are reported as
// core.ErrExternalCall.
func Dispatch(ctx *Context, caller string, call PrivilegedCall) error {
	if err := ValidateCall(call); err != nil {
		return err
	}
	if ctx.depth >= maxCallDepth {
		return fmt.Errorf("%w: call depth %d", core.ErrReentrancy, ctx.depth)
	}
	e, _ := globalRegistry.lookup(call.Target)
	child := *ctx
	child.Caller = caller
	child.Value = call.Value
	child.depth = ctx.depth + 1
	if err := e.h(&child, call.Payload); err != nil {
		if errors.Is(err, core.ErrExternalCall) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", core.ErrExternalCall, call.Target, err)
	}
	return nil
}

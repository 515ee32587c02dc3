// Package referral records the one-level, write-once referrer relation.
package referral

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

func init() {
	vm.Register(core.TxSetReferrer, handleSetReferrer)
}

func isReserved(addr string) bool {
	switch addr {
	case core.EscrowAddress, core.TreasuryAddress, core.GovernanceAddress, core.TimelockAddress:
		return true
	}
	return false
}

func handleSetReferrer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetReferrerPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Referrer == "" || isReserved(p.Referrer) {
		return fmt.Errorf("%w: invalid referrer %q", core.ErrValidation, p.Referrer)
	}
	if p.Referrer == ctx.Caller {
		return fmt.Errorf("%w: cannot refer yourself", core.ErrValidation)
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Referrer != "" {
		return fmt.Errorf("%w: referrer already set to %s", core.ErrStateConflict, acc.Referrer)
	}
	acc.Referrer = p.Referrer
	if err := ctx.State.SetAccount(acc); err != nil {
		return err
	}
	ctx.Emit(events.EventReferrerSet, map[string]any{"account": ctx.Caller, "referrer": p.Referrer})
	return nil
}

// Package treasury routes protocol fees and lets treasury managers withdraw
// them.
package treasury

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
)

func init() {
	vm.Register(core.TxTreasuryWithdraw, vm.NonReentrant(handleWithdraw))
}

// Collect moves fee of asset out of from. The referrer of payer, if any,
// receives ReferralPercent of it and the rest goes to the treasury. from is
// where the funds sit (the payer itself, or escrow when the fee was attached
// as tx value). Returns the amount credited to the treasury.
func Collect(ctx *vm.Context, asset core.Asset, from, payer string, fee uint64) (uint64, error) {
	if fee == 0 {
		return 0, nil
	}
	params, err := ctx.Params()
	if err != nil {
		return 0, err
	}
	l := ledger.New(ctx)

	var share uint64
	payerAcc, err := ctx.State.GetAccount(payer)
	if err != nil {
		return 0, err
	}
	if payerAcc.Referrer != "" {
		if share, err = core.Percent(fee, params.ReferralPercent); err != nil {
			return 0, err
		}
	}
	if share > 0 {
		if err := l.Move(asset, from, payerAcc.Referrer, share); err != nil {
			return 0, err
		}
		ref, err := ctx.State.GetAccount(payerAcc.Referrer)
		if err != nil {
			return 0, err
		}
		if ref.ReferralEarnings, err = core.AddAmounts(ref.ReferralEarnings, share); err != nil {
			return 0, err
		}
		if err := ctx.State.SetAccount(ref); err != nil {
			return 0, err
		}
		ctx.Emit(events.EventReferralPaid, map[string]any{
			"referrer": payerAcc.Referrer, "payer": payer, "asset": string(asset), "amount": share,
		})
	}

	rest := fee - share
	if err := l.Move(asset, from, core.TreasuryAddress, rest); err != nil {
		return 0, err
	}
	ctx.Emit(events.EventFeeCollected, map[string]any{"payer": payer, "asset": string(asset), "amount": rest})
	return rest, nil
}

func handleWithdraw(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TreasuryWithdrawPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	if !params.IsTreasuryManager(ctx.Caller) {
		return fmt.Errorf("%w: %s is not a treasury manager", core.ErrUnauthorized, ctx.Caller)
	}
	if !p.Asset.Valid() {
		return fmt.Errorf("%w: unknown asset %q", core.ErrValidation, p.Asset)
	}
	if p.To == "" || p.To == core.EscrowAddress || p.To == core.TreasuryAddress {
		return fmt.Errorf("%w: invalid recipient %q", core.ErrValidation, p.To)
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", core.ErrValidation)
	}
	if err := ledger.New(ctx).Move(p.Asset, core.TreasuryAddress, p.To, p.Amount); err != nil {
		return err
	}
	ctx.Emit(events.EventTreasuryWithdrawn, map[string]any{
		"asset": string(p.Asset), "to": p.To, "amount": p.Amount, "by": ctx.Caller,
	})
	return nil
}

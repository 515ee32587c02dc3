package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

func init() {
	vm.Register(core.TxTransfer, vm.NonReentrant(handleTransfer))
	vm.Register(core.TxTokenTransfer, vm.NonReentrant(handleTokenTransfer))
	vm.Register(core.TxTokenBurn, vm.NonReentrant(handleTokenBurn))
}

func checkRecipient(to string, amount uint64) error {
	if to == "" {
		return fmt.Errorf("%w: recipient required", core.ErrValidation)
	}
	if to == core.EscrowAddress {
		return fmt.Errorf("%w: cannot transfer to escrow", core.ErrValidation)
	}
	if amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", core.ErrValidation)
	}
	return nil
}

func handleTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TransferPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if err := checkRecipient(p.To, p.Amount); err != nil {
		return err
	}
	if err := New(ctx).TransferNative(ctx.Caller, p.To, p.Amount); err != nil {
		return err
	}
	ctx.Emit(events.EventNativeTransfer, map[string]any{"from": ctx.Caller, "to": p.To, "amount": p.Amount})
	return nil
}

func handleTokenTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TokenTransferPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if err := checkRecipient(p.To, p.Amount); err != nil {
		return err
	}
	if err := New(ctx).Transfer(ctx.Caller, p.To, p.Amount); err != nil {
		return err
	}
	ctx.Emit(events.EventTokenTransfer, map[string]any{"from": ctx.Caller, "to": p.To, "amount": p.Amount})
	return nil
}

func handleTokenBurn(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TokenBurnPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", core.ErrValidation)
	}
	return New(ctx).Burn(ctx.Caller, p.Amount)
}

// Package admin is the role-gated administrative surface. Every handler is a
// privileged-call target, reachable directly by admins or through governance
// and the timelock.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
)

func init() {
	vm.Register(core.TxAdminSetParams, handleSetParams, vm.Privileged())
	vm.Register(core.TxAdminSetPaused, handleSetPaused, vm.Privileged())
	vm.Register(core.TxAdminRegisterGame, handleRegisterGame, vm.Privileged())
	vm.Register(core.TxAdminSetGameStatus, handleSetGameStatus, vm.Privileged())
	vm.Register(core.TxAdminSetPayout, handleSetPayout, vm.Privileged())
	vm.Register(core.TxAdminSetTreasuryManager, handleSetTreasuryManager, vm.Privileged())
	vm.Register(core.TxAdminMint, handleMint, vm.Privileged())
}

func handleSetParams(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetParamsPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	cur, err := vm.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	next := p.Params
	next.Owner = cur.Owner
	next.Admins = cur.Admins
	next.TreasuryManagers = cur.TreasuryManagers
	next.Paused = cur.Paused
	if err := next.Validate(); err != nil {
		return err
	}
	supply, err := ledger.New(ctx).TotalSupply()
	if err != nil {
		return err
	}
	if next.MaxSupply < supply {
		return fmt.Errorf("%w: max_supply %d below current supply %d", core.ErrValidation, next.MaxSupply, supply)
	}
	if err := ctx.State.SetParams(&next); err != nil {
		return err
	}
	ctx.Emit(events.EventParamsUpdated, map[string]any{"by": ctx.Caller})
	return nil
}

func handleSetPaused(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetPausedPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	params, err := vm.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	params.Paused = p.Paused
	if err := ctx.State.SetParams(params); err != nil {
		return err
	}
	ctx.Emit(events.EventPaused, map[string]any{"paused": p.Paused, "by": ctx.Caller})
	return nil
}

func handleRegisterGame(ctx *vm.Context, payload json.RawMessage) error {
	var p core.RegisterGamePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if _, err := vm.RequireAdmin(ctx); err != nil {
		return err
	}
	if !p.GameType.Valid() {
		return fmt.Errorf("%w: unknown game type %d", core.ErrValidation, p.GameType)
	}
	if p.PayoutMultiplier == 0 {
		return fmt.Errorf("%w: payout multiplier must be > 0", core.ErrValidation)
	}
	name := p.Name
	if name == "" {
		name = p.GameType.String()
	}
	gt := &core.GameType{ID: p.GameType, Name: name, Active: true, PayoutMultiplier: p.PayoutMultiplier}
	if err := ctx.State.SetGameType(gt); err != nil {
		return err
	}
	ctx.Emit(events.EventGameUpdated, map[string]any{
		"game_type": uint8(gt.ID), "active": gt.Active, "payout_multiplier": gt.PayoutMultiplier,
	})
	return nil
}

func loadGameType(ctx *vm.Context, id core.GameTypeID) (*core.GameType, error) {
	gt, err := ctx.State.GetGameType(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: game type %d", core.ErrNotFound, id)
		}
		return nil, err
	}
	return gt, nil
}

func handleSetGameStatus(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetGameStatusPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if _, err := vm.RequireAdmin(ctx); err != nil {
		return err
	}
	gt, err := loadGameType(ctx, p.GameType)
	if err != nil {
		return err
	}
	gt.Active = p.Active
	if err := ctx.State.SetGameType(gt); err != nil {
		return err
	}
	ctx.Emit(events.EventGameUpdated, map[string]any{"game_type": uint8(gt.ID), "active": gt.Active})
	return nil
}

func handleSetPayout(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetPayoutPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if _, err := vm.RequireAdmin(ctx); err != nil {
		return err
	}
	if p.PayoutMultiplier == 0 {
		return fmt.Errorf("%w: payout multiplier must be > 0", core.ErrValidation)
	}
	gt, err := loadGameType(ctx, p.GameType)
	if err != nil {
		return err
	}
	gt.PayoutMultiplier = p.PayoutMultiplier
	if err := ctx.State.SetGameType(gt); err != nil {
		return err
	}
	ctx.Emit(events.EventGameUpdated, map[string]any{
		"game_type": uint8(gt.ID), "payout_multiplier": gt.PayoutMultiplier,
	})
	return nil
}

func handleSetTreasuryManager(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetTreasuryManagerPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	params, err := vm.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	if p.Manager == "" {
		return fmt.Errorf("%w: manager required", core.ErrValidation)
	}
	has := slices.Contains(params.TreasuryManagers, p.Manager)
	switch {
	case p.Enabled && !has:
		params.TreasuryManagers = append(params.TreasuryManagers, p.Manager)
	case !p.Enabled && has:
		params.TreasuryManagers = slices.DeleteFunc(params.TreasuryManagers, func(m string) bool { return m == p.Manager })
	default:
		return fmt.Errorf("%w: %s treasury manager role already %v", core.ErrStateConflict, p.Manager, p.Enabled)
	}
	if err := ctx.State.SetParams(params); err != nil {
		return err
	}
	ctx.Emit(events.EventRoleUpdated, map[string]any{
		"role": "treasury_manager", "account": p.Manager, "enabled": p.Enabled,
	})
	return nil
}

func handleMint(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AdminMintPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if _, err := vm.RequireAdmin(ctx); err != nil {
		return err
	}
	if p.To == "" || p.To == core.EscrowAddress {
		return fmt.Errorf("%w: invalid recipient %q", core.ErrValidation, p.To)
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", core.ErrValidation)
	}
	return ledger.New(ctx).Mint(p.To, p.Amount)
}

// Package pool is the constant-product token/native liquidity pool.
// Reserves are held by the escrow account and mirrored in Globals.Pool.
package pool

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
	"github.com/tolelom/arcadechain/vm/modules/treasury"
)

// Swap fee on the input leg, in thousandths.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)

func init() {
	vm.Register(core.TxAddLiquidity, vm.NonReentrant(handleAddLiquidity), vm.Payable())
	vm.Register(core.TxRemoveLiquidity, vm.NonReentrant(handleRemoveLiquidity))
	vm.Register(core.TxSwap, vm.NonReentrant(handleSwap), vm.Payable())
}

// AmountOut applies the constant-product formula with the 0.3% input fee:
// in*997*reserveOut / (reserveIn*1000 + in*997).
func AmountOut(in, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: pool is empty", core.ErrInsufficientLiquidity)
	}
	inWithFee := new(uint256.Int).Mul(uint256.NewInt(in), uint256.NewInt(feeNumerator))
	num := new(uint256.Int).Mul(inWithFee, uint256.NewInt(reserveOut))
	den := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(feeDenominator))
	den.Add(den, inWithFee)
	out := num.Div(num, den)
	if !out.IsUint64() || out.Uint64() >= reserveOut {
		return 0, fmt.Errorf("%w: output would drain reserve %d", core.ErrInsufficientLiquidity, reserveOut)
	}
	return out.Uint64(), nil
}

func handleAddLiquidity(ctx *vm.Context, _ json.RawMessage) error {
	if ctx.Value == 0 {
		return fmt.Errorf("%w: deposit must be > 0", core.ErrValidation)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	tokens, err := core.MulDiv(1, ctx.Value, params.TokensPerNative)
	if err != nil {
		return err
	}
	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	p := &g.Pool

	var shares uint64
	if p.TotalShares == 0 {
		shares = params.InitialPoolShares
	} else {
		if shares, err = core.MulDiv(p.NativeReserve, ctx.Value, p.TotalShares); err != nil {
			return err
		}
	}
	if shares == 0 {
		return fmt.Errorf("%w: deposit too small to mint shares", core.ErrValidation)
	}

	if err := ledger.New(ctx).Transfer(ctx.Caller, core.EscrowAddress, tokens); err != nil {
		return err
	}
	if p.NativeReserve, err = core.AddAmounts(p.NativeReserve, ctx.Value); err != nil {
		return err
	}
	if p.TokenReserve, err = core.AddAmounts(p.TokenReserve, tokens); err != nil {
		return err
	}
	if p.TotalShares, err = core.AddAmounts(p.TotalShares, shares); err != nil {
		return err
	}
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}

	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.LiquidityShares, err = core.AddAmounts(acc.LiquidityShares, shares); err != nil {
		return err
	}
	if err := ctx.State.SetAccount(acc); err != nil {
		return err
	}
	ctx.Emit(events.EventLiquidityAdded, map[string]any{
		"provider": ctx.Caller, "native": ctx.Value, "tokens": tokens, "shares": shares,
	})
	return nil
}

func handleRemoveLiquidity(ctx *vm.Context, payload json.RawMessage) error {
	var req core.RemoveLiquidityPayload
	if err := vm.Decode(payload, &req); err != nil {
		return err
	}
	if req.Shares == 0 {
		return fmt.Errorf("%w: shares must be > 0", core.ErrValidation)
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.LiquidityShares < req.Shares {
		return fmt.Errorf("%w: have %d shares need %d", core.ErrInsufficientFunds, acc.LiquidityShares, req.Shares)
	}
	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	p := &g.Pool
	if p.TotalShares < req.Shares {
		return fmt.Errorf("%w: pool has %d shares", core.ErrInsufficientLiquidity, p.TotalShares)
	}
	tokenOut, err := core.MulDiv(p.TotalShares, req.Shares, p.TokenReserve)
	if err != nil {
		return err
	}
	nativeOut, err := core.MulDiv(p.TotalShares, req.Shares, p.NativeReserve)
	if err != nil {
		return err
	}

	p.TokenReserve -= tokenOut
	p.NativeReserve -= nativeOut
	p.TotalShares -= req.Shares
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	acc.LiquidityShares -= req.Shares
	if err := ctx.State.SetAccount(acc); err != nil {
		return err
	}

	l := ledger.New(ctx)
	if err := l.Transfer(core.EscrowAddress, ctx.Caller, tokenOut); err != nil {
		return err
	}
	if err := l.TransferNative(core.EscrowAddress, ctx.Caller, nativeOut); err != nil {
		return err
	}
	ctx.Emit(events.EventLiquidityRemoved, map[string]any{
		"provider": ctx.Caller, "native": nativeOut, "tokens": tokenOut, "shares": req.Shares,
	})
	return nil
}

func handleSwap(ctx *vm.Context, payload json.RawMessage) error {
	var req core.SwapPayload
	if err := vm.Decode(payload, &req); err != nil {
		return err
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	if req.Amount <= params.SwapFlatFee {
		return fmt.Errorf("%w: amount %d must exceed flat fee %d", core.ErrValidation, req.Amount, params.SwapFlatFee)
	}

	var inAsset core.Asset
	var from string
	switch req.Direction {
	case core.SwapNativeForToken:
		if ctx.Value < req.Amount {
			return fmt.Errorf("%w: attached %d, swap amount %d", core.ErrInsufficientFunds, ctx.Value, req.Amount)
		}
		inAsset, from = core.AssetNative, core.EscrowAddress
	case core.SwapTokenForNative:
		if ctx.Value > 0 {
			return fmt.Errorf("%w: token swaps take no value", core.ErrValidation)
		}
		inAsset, from = core.AssetToken, ctx.Caller
	default:
		return fmt.Errorf("%w: unknown swap direction %q", core.ErrValidation, req.Direction)
	}

	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	p := &g.Pool
	in := req.Amount - params.SwapFlatFee

	reserveIn, reserveOut := p.NativeReserve, p.TokenReserve
	if inAsset == core.AssetToken {
		reserveIn, reserveOut = p.TokenReserve, p.NativeReserve
	}
	out, err := AmountOut(in, reserveIn, reserveOut)
	if err != nil {
		return err
	}
	if out == 0 {
		return fmt.Errorf("%w: swap of %d yields nothing", core.ErrValidation, req.Amount)
	}

	if _, err := treasury.Collect(ctx, inAsset, from, ctx.Caller, params.SwapFlatFee); err != nil {
		return err
	}
	l := ledger.New(ctx)
	if inAsset == core.AssetNative {
		if p.NativeReserve, err = core.AddAmounts(p.NativeReserve, in); err != nil {
			return err
		}
		p.TokenReserve -= out
		if err := l.Transfer(core.EscrowAddress, ctx.Caller, out); err != nil {
			return err
		}
		if excess := ctx.Value - req.Amount; excess > 0 {
			if err := l.TransferNative(core.EscrowAddress, ctx.Caller, excess); err != nil {
				return err
			}
		}
	} else {
		if err := l.Transfer(ctx.Caller, core.EscrowAddress, in); err != nil {
			return err
		}
		if p.TokenReserve, err = core.AddAmounts(p.TokenReserve, in); err != nil {
			return err
		}
		p.NativeReserve -= out
		if err := l.TransferNative(core.EscrowAddress, ctx.Caller, out); err != nil {
			return err
		}
	}
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	ctx.Emit(events.EventSwap, map[string]any{
		"trader": ctx.Caller, "direction": string(req.Direction), "in": in, "out": out,
		"fee": params.SwapFlatFee, "token_reserve": p.TokenReserve, "native_reserve": p.NativeReserve,
	})
	return nil
}

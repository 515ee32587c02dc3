// Package ledger owns every balance movement. Other modules never touch
// Account.Tokens or Account.Balance directly; they go through a Ledger so the
// supply cap and overflow checks live in one place.
package ledger

import (
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

// Ledger is a view of the token and native balance tables bound to one call.
type Ledger struct {
	ctx *vm.Context
}

// New returns a Ledger operating on ctx's state.
func New(ctx *vm.Context) *Ledger {
	return &Ledger{ctx: ctx}
}

// BalanceOf returns the token balance of addr.
func (l *Ledger) BalanceOf(addr string) (uint64, error) {
	acc, err := l.ctx.State.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Tokens, nil
}

// NativeBalanceOf returns the native currency balance of addr.
func (l *Ledger) NativeBalanceOf(addr string) (uint64, error) {
	acc, err := l.ctx.State.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// TotalSupply returns the number of tokens in existence.
func (l *Ledger) TotalSupply() (uint64, error) {
	g, err := l.ctx.State.GetGlobals()
	if err != nil {
		return 0, err
	}
	return g.TotalSupply, nil
}

// Mint creates amount tokens for to. Fails with ErrOverflow past MaxSupply.
func (l *Ledger) Mint(to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	params, err := l.ctx.Params()
	if err != nil {
		return err
	}
	g, err := l.ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	supply, err := core.AddAmounts(g.TotalSupply, amount)
	if err != nil {
		return err
	}
	if supply > params.MaxSupply {
		return fmt.Errorf("%w: mint %d exceeds supply cap %d (supply %d)",
			core.ErrOverflow, amount, params.MaxSupply, g.TotalSupply)
	}
	acc, err := l.ctx.State.GetAccount(to)
	if err != nil {
		return err
	}
	if acc.Tokens, err = core.AddAmounts(acc.Tokens, amount); err != nil {
		return err
	}
	g.TotalSupply = supply
	if err := l.ctx.State.SetGlobals(g); err != nil {
		return err
	}
	if err := l.ctx.State.SetAccount(acc); err != nil {
		return err
	}
	l.ctx.Emit(events.EventTokenMinted, map[string]any{"to": to, "amount": amount})
	return nil
}

// Burn destroys amount tokens held by from.
func (l *Ledger) Burn(from string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acc, err := l.ctx.State.GetAccount(from)
	if err != nil {
		return err
	}
	if acc.Tokens, err = core.SubAmounts(acc.Tokens, amount); err != nil {
		return err
	}
	g, err := l.ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	if g.TotalSupply, err = core.SubAmounts(g.TotalSupply, amount); err != nil {
		return err
	}
	if err := l.ctx.State.SetGlobals(g); err != nil {
		return err
	}
	if err := l.ctx.State.SetAccount(acc); err != nil {
		return err
	}
	l.ctx.Emit(events.EventTokenBurned, map[string]any{"from": from, "amount": amount})
	return nil
}

// Transfer moves tokens between accounts.
func (l *Ledger) Transfer(from, to string, amount uint64) error {
	return l.Move(core.AssetToken, from, to, amount)
}

// TransferNative moves native currency between accounts.
func (l *Ledger) TransferNative(from, to string, amount uint64) error {
	return l.Move(core.AssetNative, from, to, amount)
}

// Move transfers amount of asset from one account to another. Both balances
// are checked before either is written.
func (l *Ledger) Move(asset core.Asset, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, err := l.ctx.State.GetAccount(from)
	if err != nil {
		return err
	}
	if from == to {
		if have := balance(src, asset); have < amount {
			return fmt.Errorf("%w: %s %s: have %d need %d", core.ErrInsufficientFunds, from, asset, have, amount)
		}
		return nil
	}
	dst, err := l.ctx.State.GetAccount(to)
	if err != nil {
		return err
	}
	srcBal, err := core.SubAmounts(balance(src, asset), amount)
	if err != nil {
		return fmt.Errorf("%s %s: %w", from, asset, err)
	}
	dstBal, err := core.AddAmounts(balance(dst, asset), amount)
	if err != nil {
		return err
	}
	setBalance(src, asset, srcBal)
	setBalance(dst, asset, dstBal)
	if err := l.ctx.State.SetAccount(src); err != nil {
		return err
	}
	return l.ctx.State.SetAccount(dst)
}

func balance(acc *core.Account, asset core.Asset) uint64 {
	if asset == core.AssetNative {
		return acc.Balance
	}
	return acc.Tokens
}

func setBalance(acc *core.Account, asset core.Asset, v uint64) {
	if asset == core.AssetNative {
		acc.Balance = v
		return
	}
	acc.Tokens = v
}

// Package staking implements token staking with linear, time-weighted
// rewards. Every principal change settles the pending reward first.
package staking

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
)

// AchievementTokenEnthusiast unlocks once an account has staked
// Params.AchievementStakeThreshold tokens.
const AchievementTokenEnthusiast = "token_enthusiast"

func init() {
	vm.Register(core.TxStake, vm.NonReentrant(handleStake))
	vm.Register(core.TxUnstake, vm.NonReentrant(handleUnstake))
	vm.Register(core.TxClaimStakingReward, vm.NonReentrant(handleClaim))
}

// Reward returns the gross reward accrued by principal over elapsed seconds:
// principal * apr/100 * elapsed / secondsPerYear, truncated once.
func Reward(principal, apr uint64, elapsed int64, secondsPerYear uint64) (uint64, error) {
	if principal == 0 || elapsed <= 0 {
		return 0, nil
	}
	denom, err := core.MulDiv(1, 100, secondsPerYear)
	if err != nil {
		return 0, err
	}
	return core.MulDiv(denom, principal, apr, uint64(elapsed))
}

// NetReward returns the staker's share of the reward after feePct:
// principal * apr/100 * elapsed/secondsPerYear * (100-feePct)/100, with a
// single truncating division. The fee is Reward minus NetReward.
func NetReward(principal, apr uint64, elapsed int64, secondsPerYear, feePct uint64) (uint64, error) {
	if principal == 0 || elapsed <= 0 {
		return 0, nil
	}
	if feePct > 100 {
		return 0, fmt.Errorf("%w: fee %d%% over 100", core.ErrValidation, feePct)
	}
	denom, err := core.MulDiv(1, 100, 100, secondsPerYear)
	if err != nil {
		return 0, err
	}
	return core.MulDiv(denom, principal, apr, uint64(elapsed), 100-feePct)
}

// UnlockAchievement records id for addr. A second unlock of the same id is a
// state conflict.
func UnlockAchievement(ctx *vm.Context, addr, id string) error {
	acc, err := ctx.State.GetAccount(addr)
	if err != nil {
		return err
	}
	if _, ok := acc.Achievements[id]; ok {
		return fmt.Errorf("%w: achievement %q already unlocked", core.ErrStateConflict, id)
	}
	if acc.Achievements == nil {
		acc.Achievements = make(map[string]int64)
	}
	acc.Achievements[id] = ctx.Now()
	if err := ctx.State.SetAccount(acc); err != nil {
		return err
	}
	ctx.Emit(events.EventAchievementUnlocked, map[string]any{"account": addr, "achievement": id})
	return nil
}

// settle pays out the reward accrued since LastClaim and advances LastClaim.
// It returns the net amount paid to the staker.
func settle(ctx *vm.Context, params *core.Params, addr string) (uint64, error) {
	acc, err := ctx.State.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	now := ctx.Now()
	reward, err := Reward(acc.Staked, params.StakingAPR, now-acc.LastClaim, params.SecondsPerYear)
	if err != nil {
		return 0, err
	}
	net, err := NetReward(acc.Staked, params.StakingAPR, now-acc.LastClaim, params.SecondsPerYear, params.StakingFeePercent)
	if err != nil {
		return 0, err
	}
	acc.LastClaim = now
	if err := ctx.State.SetAccount(acc); err != nil {
		return 0, err
	}
	if reward == 0 {
		return 0, nil
	}
	fee := reward - net
	l := ledger.New(ctx)
	if err := l.Mint(core.TreasuryAddress, fee); err != nil {
		return 0, err
	}
	if err := l.Mint(addr, net); err != nil {
		return 0, err
	}
	ctx.Emit(events.EventStakingRewardClaim, map[string]any{"account": addr, "reward": net, "fee": fee})
	return net, nil
}

func handleStake(ctx *vm.Context, payload json.RawMessage) error {
	var p core.StakePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", core.ErrValidation)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Tokens < p.Amount {
		return fmt.Errorf("%w: have %d tokens need %d", core.ErrInsufficientFunds, acc.Tokens, p.Amount)
	}

	if acc.Staked > 0 {
		if _, err := settle(ctx, params, ctx.Caller); err != nil {
			return err
		}
	}
	if err := ledger.New(ctx).Transfer(ctx.Caller, core.EscrowAddress, p.Amount); err != nil {
		return err
	}

	acc, err = ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Staked == 0 {
		acc.StakeStart = ctx.Now()
	}
	if acc.Staked, err = core.AddAmounts(acc.Staked, p.Amount); err != nil {
		return err
	}
	acc.LastClaim = ctx.Now()
	if err := ctx.State.SetAccount(acc); err != nil {
		return err
	}
	ctx.Emit(events.EventStaked, map[string]any{"account": ctx.Caller, "amount": p.Amount, "total": acc.Staked})

	if _, done := acc.Achievements[AchievementTokenEnthusiast]; !done && acc.Staked >= params.AchievementStakeThreshold {
		return UnlockAchievement(ctx, ctx.Caller, AchievementTokenEnthusiast)
	}
	return nil
}

func handleUnstake(ctx *vm.Context, payload json.RawMessage) error {
	var p core.StakePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", core.ErrValidation)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Staked == 0 {
		return core.ErrNoStake
	}
	if acc.Staked < p.Amount {
		return fmt.Errorf("%w: staked %d, unstake %d", core.ErrInsufficientFunds, acc.Staked, p.Amount)
	}
	if _, err := settle(ctx, params, ctx.Caller); err != nil {
		return err
	}

	acc, err = ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	acc.Staked -= p.Amount
	if acc.Staked == 0 {
		acc.StakeStart = 0
	}
	if err := ctx.State.SetAccount(acc); err != nil {
		return err
	}
	if err := ledger.New(ctx).Transfer(core.EscrowAddress, ctx.Caller, p.Amount); err != nil {
		return err
	}
	ctx.Emit(events.EventUnstaked, map[string]any{"account": ctx.Caller, "amount": p.Amount, "total": acc.Staked})
	return nil
}

func handleClaim(ctx *vm.Context, _ json.RawMessage) error {
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Staked == 0 {
		return core.ErrNoStake
	}
	reward, err := Reward(acc.Staked, params.StakingAPR, ctx.Now()-acc.LastClaim, params.SecondsPerYear)
	if err != nil {
		return err
	}
	if reward == 0 {
		return core.ErrNoReward
	}
	_, err = settle(ctx, params, ctx.Caller)
	return err
}

package nft

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
)

func init() {
	vm.Register(core.TxStakeNFT, vm.NonReentrant(handleStakeNFT))
	vm.Register(core.TxClaimNFTReward, vm.NonReentrant(handleClaimNFTReward))
	vm.Register(core.TxUnstakeNFT, vm.NonReentrant(handleUnstakeNFT))
}

// accrued returns elapsed * rate since the last claim.
func accrued(s *core.NFTStake, now int64) (uint64, error) {
	if now <= s.LastClaim {
		return 0, nil
	}
	return core.MulDiv(1, uint64(now-s.LastClaim), s.RatePerSecond)
}

func loadStake(ctx *vm.Context, id uint64) (*core.NFTStake, error) {
	s, err := ctx.State.GetNFTStake(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: nft stake %d", core.ErrNotFound, id)
		}
		return nil, err
	}
	if s.Owner != ctx.Caller {
		return nil, fmt.Errorf("%w: stake %d belongs to %s", core.ErrUnauthorized, id, s.Owner)
	}
	return s, nil
}

func handleStakeNFT(ctx *vm.Context, payload json.RawMessage) error {
	var p core.NFTRef
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	n, err := requireOwner(ctx, p, ctx.Caller)
	if err != nil {
		return err
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	if err := moveNFT(ctx, n, core.EscrowAddress); err != nil {
		return err
	}

	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	g.NextStakeID++
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	now := ctx.Now()
	s := &core.NFTStake{
		ID:            g.NextStakeID,
		Owner:         ctx.Caller,
		CollectionID:  n.CollectionID,
		TokenID:       n.TokenID,
		StakedAt:      now,
		LastClaim:     now,
		RatePerSecond: params.NFTStakeRatePerSecond,
	}
	if err := ctx.State.SetNFTStake(s); err != nil {
		return err
	}
	ids, err := ctx.State.GetStakeList(ctx.Caller)
	if err != nil {
		return err
	}
	if err := ctx.State.SetStakeList(ctx.Caller, append(ids, s.ID)); err != nil {
		return err
	}
	ctx.Emit(events.EventNFTStaked, map[string]any{
		"stake_id": s.ID, "owner": s.Owner, "collection_id": s.CollectionID, "token_id": s.TokenID,
	})
	return nil
}

func handleClaimNFTReward(ctx *vm.Context, payload json.RawMessage) error {
	var p core.NFTStakePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	s, err := loadStake(ctx, p.StakeID)
	if err != nil {
		return err
	}
	reward, err := accrued(s, ctx.Now())
	if err != nil {
		return err
	}
	if reward == 0 {
		return core.ErrNoReward
	}
	s.LastClaim = ctx.Now()
	if err := ctx.State.SetNFTStake(s); err != nil {
		return err
	}
	if err := ledger.New(ctx).Mint(s.Owner, reward); err != nil {
		return err
	}
	ctx.Emit(events.EventNFTRewardClaimed, map[string]any{"stake_id": s.ID, "owner": s.Owner, "reward": reward})
	return nil
}

func handleUnstakeNFT(ctx *vm.Context, payload json.RawMessage) error {
	var p core.NFTStakePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	s, err := loadStake(ctx, p.StakeID)
	if err != nil {
		return err
	}
	reward, err := accrued(s, ctx.Now())
	if err != nil {
		return err
	}
	if err := ledger.New(ctx).Mint(s.Owner, reward); err != nil {
		return err
	}

	n, err := loadNFT(ctx, core.NFTRef{CollectionID: s.CollectionID, TokenID: s.TokenID})
	if err != nil {
		return err
	}
	if err := moveNFT(ctx, n, s.Owner); err != nil {
		return err
	}

	ids, err := ctx.State.GetStakeList(s.Owner)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == s.ID {
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			break
		}
	}
	if err := ctx.State.SetStakeList(s.Owner, ids); err != nil {
		return err
	}
	if err := ctx.State.DeleteNFTStake(s.ID); err != nil {
		return err
	}
	ctx.Emit(events.EventNFTUnstaked, map[string]any{"stake_id": s.ID, "owner": s.Owner, "reward": reward})
	return nil
}

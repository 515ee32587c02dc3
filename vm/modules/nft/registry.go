// Package nft implements NFT collections and ownership, the fixed-price
// marketplace, English auctions and NFT yield staking.
package nft

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

// MaxRarity is the highest rarity tier an NFT can be minted with.
const MaxRarity = 5

func init() {
	vm.Register(core.TxCreateCollection, handleCreateCollection)
	vm.Register(core.TxMintNFT, vm.NonReentrant(handleMint))
	vm.Register(core.TxTransferNFT, vm.NonReentrant(handleTransfer))
}

func isReserved(addr string) bool {
	switch addr {
	case core.EscrowAddress, core.TreasuryAddress, core.GovernanceAddress, core.TimelockAddress:
		return true
	}
	return false
}

func loadNFT(ctx *vm.Context, ref core.NFTRef) (*core.NFT, error) {
	n, err := ctx.State.GetNFT(ref.CollectionID, ref.TokenID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: nft %s/%d", core.ErrNotFound, ref.CollectionID, ref.TokenID)
		}
		return nil, err
	}
	return n, nil
}

// requireOwner loads the NFT and checks that addr owns it.
func requireOwner(ctx *vm.Context, ref core.NFTRef, addr string) (*core.NFT, error) {
	n, err := loadNFT(ctx, ref)
	if err != nil {
		return nil, err
	}
	if n.Owner != addr {
		return nil, fmt.Errorf("%w: %s does not own nft %s/%d", core.ErrUnauthorized, addr, ref.CollectionID, ref.TokenID)
	}
	return n, nil
}

// moveNFT reassigns ownership, removing the token from the previous owner's
// list by swap-and-pop and appending it to the new owner's list.
func moveNFT(ctx *vm.Context, n *core.NFT, to string) error {
	from := n.Owner
	ids, err := ctx.State.GetOwnedList(from, n.CollectionID)
	if err != nil {
		return err
	}
	i := n.OwnedIndex
	if i < 0 || i >= len(ids) || ids[i] != n.TokenID {
		return fmt.Errorf("owned list of %s out of sync for %s/%d", from, n.CollectionID, n.TokenID)
	}
	last := len(ids) - 1
	if i != last {
		moved, err := ctx.State.GetNFT(n.CollectionID, ids[last])
		if err != nil {
			return err
		}
		ids[i] = moved.TokenID
		moved.OwnedIndex = i
		if err := ctx.State.SetNFT(moved); err != nil {
			return err
		}
	}
	if err := ctx.State.SetOwnedList(from, n.CollectionID, ids[:last]); err != nil {
		return err
	}
	if err := assign(ctx, n, to); err != nil {
		return err
	}
	ctx.Emit(events.EventNFTTransfer, map[string]any{
		"collection_id": n.CollectionID, "token_id": n.TokenID, "from": from, "to": to,
	})
	return nil
}

// assign appends n to to's owned list and stores it.
func assign(ctx *vm.Context, n *core.NFT, to string) error {
	ids, err := ctx.State.GetOwnedList(to, n.CollectionID)
	if err != nil {
		return err
	}
	n.Owner = to
	n.OwnedIndex = len(ids)
	n.Attributes.LastTransferTime = ctx.Now()
	if err := ctx.State.SetOwnedList(to, n.CollectionID, append(ids, n.TokenID)); err != nil {
		return err
	}
	return ctx.State.SetNFT(n)
}

func handleCreateCollection(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateCollectionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("%w: collection id and name required", core.ErrValidation)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	if p.RoyaltyPercent > params.MaxRoyaltyPercent {
		return fmt.Errorf("%w: royalty %d%% above %d%%", core.ErrValidation, p.RoyaltyPercent, params.MaxRoyaltyPercent)
	}
	if _, err := ctx.State.GetCollection(p.ID); err == nil {
		return fmt.Errorf("%w: collection %q already exists", core.ErrStateConflict, p.ID)
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("checking collection %q: %w", p.ID, err)
	}
	c := &core.Collection{
		ID:             p.ID,
		Name:           p.Name,
		Creator:        ctx.Caller,
		RoyaltyPercent: p.RoyaltyPercent,
	}
	if err := ctx.State.SetCollection(c); err != nil {
		return err
	}
	ctx.Emit(events.EventCollectionCreated, map[string]any{
		"collection_id": c.ID, "creator": c.Creator, "royalty_percent": c.RoyaltyPercent,
	})
	return nil
}

func handleMint(ctx *vm.Context, payload json.RawMessage) error {
	var p core.MintNFTPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	c, err := ctx.State.GetCollection(p.CollectionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: collection %q", core.ErrNotFound, p.CollectionID)
		}
		return err
	}
	if c.Creator != ctx.Caller {
		return fmt.Errorf("%w: only the creator mints in %q", core.ErrUnauthorized, c.ID)
	}
	if p.Rarity == 0 || p.Rarity > MaxRarity {
		return fmt.Errorf("%w: rarity %d outside [1, %d]", core.ErrValidation, p.Rarity, MaxRarity)
	}
	to := p.To
	if to == "" {
		to = ctx.Caller
	}
	if isReserved(to) {
		return fmt.Errorf("%w: cannot mint to %s", core.ErrValidation, to)
	}

	c.NextTokenID++
	if err := ctx.State.SetCollection(c); err != nil {
		return err
	}
	n := &core.NFT{
		CollectionID: c.ID,
		TokenID:      c.NextTokenID,
		Attributes: core.NFTAttributes{
			Rarity:       p.Rarity,
			Power:        p.Power,
			Level:        1,
			Traits:       p.Traits,
			CreationTime: ctx.Now(),
		},
	}
	if err := assign(ctx, n, to); err != nil {
		return err
	}
	ctx.Emit(events.EventNFTMinted, map[string]any{
		"collection_id": n.CollectionID, "token_id": n.TokenID, "owner": to, "rarity": p.Rarity,
	})
	return nil
}

func handleTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TransferNFTPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.To == "" || isReserved(p.To) || p.To == ctx.Caller {
		return fmt.Errorf("%w: invalid recipient %q", core.ErrValidation, p.To)
	}
	n, err := requireOwner(ctx, p.NFTRef, ctx.Caller)
	if err != nil {
		return err
	}
	return moveNFT(ctx, n, p.To)
}

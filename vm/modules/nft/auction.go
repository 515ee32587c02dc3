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
	vm.Register(core.TxCreateAuction, vm.NonReentrant(handleCreateAuction))
	vm.Register(core.TxBidAuction, vm.NonReentrant(handleBid), vm.Payable())
	vm.Register(core.TxSettleAuction, vm.NonReentrant(handleSettle))
	vm.Register(core.TxCancelAuction, vm.NonReentrant(handleCancelAuction))
}

// MinBid returns the lowest acceptable next bid: the start price for the
// first bid, otherwise the current bid raised by incrementPercent (and by at
// least one unit).
func MinBid(a *core.Auction, incrementPercent uint64) (uint64, error) {
	if a.CurrentBid == 0 {
		return a.StartPrice, nil
	}
	raised, err := core.MulDiv(100, a.CurrentBid, 100+incrementPercent)
	if err != nil {
		return 0, err
	}
	return max(raised, a.CurrentBid+1), nil
}

func loadOpenAuction(ctx *vm.Context, id uint64) (*core.Auction, error) {
	a, err := ctx.State.GetAuction(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: auction %d", core.ErrNotFound, id)
		}
		return nil, err
	}
	if a.Settled || a.Cancelled {
		return nil, fmt.Errorf("%w: auction %d is closed", core.ErrStateConflict, id)
	}
	return a, nil
}

func handleCreateAuction(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateAuctionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.StartPrice == 0 || p.Duration <= 0 {
		return fmt.Errorf("%w: start price and duration must be > 0", core.ErrValidation)
	}
	if _, err := requireOwner(ctx, p.NFTRef, ctx.Caller); err != nil {
		return err
	}
	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	g.NextAuctionID++
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	a := &core.Auction{
		ID:           g.NextAuctionID,
		CollectionID: p.CollectionID,
		TokenID:      p.TokenID,
		Seller:       ctx.Caller,
		StartPrice:   p.StartPrice,
		EndTime:      ctx.Now() + p.Duration,
	}
	if err := ctx.State.SetAuction(a); err != nil {
		return err
	}
	ctx.Emit(events.EventAuctionCreated, map[string]any{
		"auction_id": a.ID, "collection_id": a.CollectionID, "token_id": a.TokenID,
		"seller": a.Seller, "start_price": a.StartPrice, "end_time": a.EndTime,
	})
	return nil
}

// handleBid places the attached value as a bid, refunding the previous
// bidder and extending the auction when the bid lands inside the trailing
// window.
func handleBid(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AuctionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	a, err := loadOpenAuction(ctx, p.AuctionID)
	if err != nil {
		return err
	}
	now := ctx.Now()
	if now >= a.EndTime {
		return fmt.Errorf("%w: auction %d ended at %d", core.ErrTiming, a.ID, a.EndTime)
	}
	if ctx.Caller == a.Seller {
		return fmt.Errorf("%w: seller cannot bid", core.ErrValidation)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	minBid, err := MinBid(a, params.AuctionMinIncrementPercent)
	if err != nil {
		return err
	}
	if ctx.Value < minBid {
		return fmt.Errorf("%w: bid %d below minimum %d", core.ErrValidation, ctx.Value, minBid)
	}

	if a.CurrentBid > 0 {
		if err := ledger.New(ctx).TransferNative(core.EscrowAddress, a.CurrentBidder, a.CurrentBid); err != nil {
			return err
		}
	}
	a.CurrentBid = ctx.Value
	a.CurrentBidder = ctx.Caller
	extended := false
	if a.EndTime-now < params.AuctionExtensionWindow {
		a.EndTime += params.AuctionExtensionWindow
		extended = true
	}
	if err := ctx.State.SetAuction(a); err != nil {
		return err
	}
	ctx.Emit(events.EventAuctionBid, map[string]any{
		"auction_id": a.ID, "bidder": ctx.Caller, "amount": ctx.Value,
		"end_time": a.EndTime, "extended": extended,
	})
	return nil
}

// handleSettle closes an ended auction. If the seller no longer owns the NFT
// the winning bid is refunded and nothing changes hands.
func handleSettle(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AuctionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	a, err := loadOpenAuction(ctx, p.AuctionID)
	if err != nil {
		return err
	}
	if ctx.Now() < a.EndTime {
		return fmt.Errorf("%w: auction %d ends at %d", core.ErrTiming, a.ID, a.EndTime)
	}
	a.Settled = true
	if err := ctx.State.SetAuction(a); err != nil {
		return err
	}

	data := map[string]any{"auction_id": a.ID, "winner": a.CurrentBidder, "amount": a.CurrentBid, "sold": false}
	if a.CurrentBid > 0 {
		n, err := loadNFT(ctx, core.NFTRef{CollectionID: a.CollectionID, TokenID: a.TokenID})
		if err != nil {
			return err
		}
		if n.Owner == a.Seller {
			s, err := settleSale(ctx, n, a.Seller, a.CurrentBidder, a.CurrentBid)
			if err != nil {
				return err
			}
			data["sold"] = true
			data["fee"] = s.Fee
			data["royalty"] = s.Royalty
		} else if err := ledger.New(ctx).TransferNative(core.EscrowAddress, a.CurrentBidder, a.CurrentBid); err != nil {
			return err
		}
	}
	ctx.Emit(events.EventAuctionSettled, data)
	return nil
}

func handleCancelAuction(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AuctionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	a, err := loadOpenAuction(ctx, p.AuctionID)
	if err != nil {
		return err
	}
	if a.Seller != ctx.Caller {
		return fmt.Errorf("%w: only the seller can cancel auction %d", core.ErrUnauthorized, a.ID)
	}
	if a.CurrentBid > 0 {
		return fmt.Errorf("%w: auction %d already has bids", core.ErrStateConflict, a.ID)
	}
	a.Cancelled = true
	if err := ctx.State.SetAuction(a); err != nil {
		return err
	}
	ctx.Emit(events.EventAuctionCancelled, map[string]any{"auction_id": a.ID})
	return nil
}

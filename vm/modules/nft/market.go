package nft

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
	"github.com/tolelom/arcadechain/vm/modules/treasury"
)

func init() {
	vm.Register(core.TxListNFT, vm.NonReentrant(handleList))
	vm.Register(core.TxCancelListing, vm.NonReentrant(handleCancelListing))
	vm.Register(core.TxBuyNFT, vm.NonReentrant(handleBuy), vm.Payable())
}

// sale is the split of a sale price held in escrow.
type sale struct {
	Fee      uint64
	Royalty  uint64
	Proceeds uint64
}

// settleSale pays the marketplace fee, the creator royalty and the seller
// out of price native currency held in escrow, then hands the NFT to buyer.
func settleSale(ctx *vm.Context, n *core.NFT, seller, buyer string, price uint64) (sale, error) {
	params, err := ctx.Params()
	if err != nil {
		return sale{}, err
	}
	c, err := ctx.State.GetCollection(n.CollectionID)
	if err != nil {
		return sale{}, err
	}
	var s sale
	if s.Fee, err = core.Percent(price, params.MarketFeePercent); err != nil {
		return sale{}, err
	}
	if s.Royalty, err = core.Percent(price, c.RoyaltyPercent); err != nil {
		return sale{}, err
	}
	if s.Proceeds, err = core.SubAmounts(price, s.Fee+s.Royalty); err != nil {
		return sale{}, err
	}

	if _, err := treasury.Collect(ctx, core.AssetNative, core.EscrowAddress, buyer, s.Fee); err != nil {
		return sale{}, err
	}
	l := ledger.New(ctx)
	if err := l.TransferNative(core.EscrowAddress, c.Creator, s.Royalty); err != nil {
		return sale{}, err
	}
	if err := l.TransferNative(core.EscrowAddress, seller, s.Proceeds); err != nil {
		return sale{}, err
	}
	if err := moveNFT(ctx, n, buyer); err != nil {
		return sale{}, err
	}
	return s, nil
}

func loadListing(ctx *vm.Context, id uint64) (*core.MarketListing, error) {
	l, err := ctx.State.GetListing(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %d", core.ErrNotFound, id)
		}
		return nil, err
	}
	if !l.Active {
		return nil, fmt.Errorf("%w: listing %d is no longer active", core.ErrStateConflict, id)
	}
	return l, nil
}

func handleList(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ListNFTPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Price == 0 {
		return fmt.Errorf("%w: price must be > 0", core.ErrValidation)
	}
	if _, err := requireOwner(ctx, p.NFTRef, ctx.Caller); err != nil {
		return err
	}

	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	g.NextListingID++
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	listing := &core.MarketListing{
		ID:           g.NextListingID,
		CollectionID: p.CollectionID,
		TokenID:      p.TokenID,
		Seller:       ctx.Caller,
		Price:        p.Price,
		Active:       true,
		CreatedAt:    ctx.Now(),
	}
	if err := ctx.State.SetListing(listing); err != nil {
		return err
	}
	ctx.Emit(events.EventMarketList, map[string]any{
		"listing_id": listing.ID, "collection_id": p.CollectionID, "token_id": p.TokenID,
		"seller": ctx.Caller, "price": p.Price,
	})
	return nil
}

func handleCancelListing(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ListingPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	listing, err := loadListing(ctx, p.ListingID)
	if err != nil {
		return err
	}
	if listing.Seller != ctx.Caller {
		return fmt.Errorf("%w: only the seller can cancel listing %d", core.ErrUnauthorized, listing.ID)
	}
	listing.Active = false
	if err := ctx.State.SetListing(listing); err != nil {
		return err
	}
	ctx.Emit(events.EventMarketCancel, map[string]any{"listing_id": listing.ID})
	return nil
}

// handleBuy purchases a listing with the attached value. Ownership is checked
// now, since listing does not lock the NFT.
func handleBuy(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ListingPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	listing, err := loadListing(ctx, p.ListingID)
	if err != nil {
		return err
	}
	if listing.Seller == ctx.Caller {
		return fmt.Errorf("%w: seller cannot buy their own listing", core.ErrValidation)
	}
	if ctx.Value < listing.Price {
		return fmt.Errorf("%w: attached %d, price %d", core.ErrInsufficientFunds, ctx.Value, listing.Price)
	}
	n, err := loadNFT(ctx, core.NFTRef{CollectionID: listing.CollectionID, TokenID: listing.TokenID})
	if err != nil {
		return err
	}
	if n.Owner != listing.Seller {
		return fmt.Errorf("%w: seller no longer owns nft %s/%d", core.ErrStateConflict, n.CollectionID, n.TokenID)
	}

	listing.Active = false
	if err := ctx.State.SetListing(listing); err != nil {
		return err
	}
	s, err := settleSale(ctx, n, listing.Seller, ctx.Caller, listing.Price)
	if err != nil {
		return err
	}
	if refund := ctx.Value - listing.Price; refund > 0 {
		if err := ledger.New(ctx).TransferNative(core.EscrowAddress, ctx.Caller, refund); err != nil {
			return err
		}
	}
	ctx.Emit(events.EventMarketBuy, map[string]any{
		"listing_id": listing.ID,
		"buyer":      ctx.Caller,
		"seller":     listing.Seller,
		"price":      listing.Price,
		"fee":        s.Fee,
		"royalty":    s.Royalty,
	})
	return nil
}

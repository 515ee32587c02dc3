package nft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/internal/testutil"
	"github.com/tolelom/arcadechain/vm/modules/nft"
	"github.com/tolelom/arcadechain/wallet"
)

const coll = "heroes"

func ref(id uint64) core.NFTRef { return core.NFTRef{CollectionID: coll, TokenID: id} }

// setup creates a 5% royalty collection and mints n tokens to the creator.
func setup(t *testing.T, c *testutil.Chain, n int) *wallet.Wallet {
	t.Helper()
	creator := c.NewAccount(0, 0)
	c.MustSend(creator, core.TxCreateCollection, 0, core.CreateCollectionPayload{ID: coll, Name: "Heroes", RoyaltyPercent: 5})
	for i := 0; i < n; i++ {
		c.MustSend(creator, core.TxMintNFT, 0, core.MintNFTPayload{CollectionID: coll, Rarity: 3, Power: 10})
	}
	return creator
}

func owned(t *testing.T, c *testutil.Chain, owner string) []uint64 {
	t.Helper()
	ids, err := c.State.GetOwnedList(owner, coll)
	require.NoError(t, err)
	return ids
}

func getNFT(t *testing.T, c *testutil.Chain, id uint64) *core.NFT {
	t.Helper()
	n, err := c.State.GetNFT(coll, id)
	require.NoError(t, err)
	return n
}

func TestCollectionAndMint(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 2)
	other := c.NewAccount(0, 0)

	err := c.Send(other, core.TxCreateCollection, 0, core.CreateCollectionPayload{ID: coll, Name: "x"})
	assert.ErrorIs(t, err, core.ErrStateConflict)
	err = c.Send(other, core.TxCreateCollection, 0, core.CreateCollectionPayload{ID: "greedy", Name: "x", RoyaltyPercent: 11})
	assert.ErrorIs(t, err, core.ErrValidation)
	err = c.Send(other, core.TxMintNFT, 0, core.MintNFTPayload{CollectionID: coll, Rarity: 1})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	err = c.Send(creator, core.TxMintNFT, 0, core.MintNFTPayload{CollectionID: coll, Rarity: nft.MaxRarity + 1})
	assert.ErrorIs(t, err, core.ErrValidation)

	n := getNFT(t, c, 2)
	assert.Equal(t, creator.PubKey(), n.Owner)
	assert.Equal(t, uint64(1), n.Attributes.Level)
	assert.Equal(t, []uint64{1, 2}, owned(t, c, creator.PubKey()))
	assert.Len(t, c.Events(events.EventNFTMinted), 2)
}

func TestTransferSwapAndPop(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 3)
	to := c.NewAccount(0, 0)

	c.MustSend(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(1), To: to.PubKey()})

	assert.Equal(t, []uint64{3, 2}, owned(t, c, creator.PubKey()))
	assert.Equal(t, []uint64{1}, owned(t, c, to.PubKey()))
	assert.Equal(t, 0, getNFT(t, c, 3).OwnedIndex)
	assert.Equal(t, to.PubKey(), getNFT(t, c, 1).Owner)

	err := c.Send(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(1), To: to.PubKey()})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	err = c.Send(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(2), To: core.EscrowAddress})
	assert.ErrorIs(t, err, core.ErrValidation)
	err = c.Send(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(9), To: to.PubKey()})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBuySplitsPrice(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 1)
	seller := c.NewAccount(0, 0)
	buyer := c.NewAccount(0, 1200)
	c.MustSend(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(1), To: seller.PubKey()})

	c.MustSend(seller, core.TxListNFT, 0, core.ListNFTPayload{NFTRef: ref(1), Price: 1000})
	c.MustSend(buyer, core.TxBuyNFT, 1200, core.ListingPayload{ListingID: 1})

	assert.Equal(t, buyer.PubKey(), getNFT(t, c, 1).Owner)
	assert.Equal(t, uint64(200), c.Account(buyer.PubKey()).Balance)
	assert.Equal(t, uint64(30), c.Account(core.TreasuryAddress).Balance)
	assert.Equal(t, uint64(50), c.Account(creator.PubKey()).Balance)
	assert.Equal(t, uint64(920), c.Account(seller.PubKey()).Balance)
	assert.Zero(t, c.Account(core.EscrowAddress).Balance)

	l, err := c.State.GetListing(1)
	require.NoError(t, err)
	assert.False(t, l.Active)
	assert.ErrorIs(t, c.Send(buyer, core.TxBuyNFT, 0, core.ListingPayload{ListingID: 1}), core.ErrStateConflict)
}

func TestBuyAfterOwnerMovedNFT(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 1)
	elsewhere := c.NewAccount(0, 0)
	buyer := c.NewAccount(0, 1000)

	c.MustSend(creator, core.TxListNFT, 0, core.ListNFTPayload{NFTRef: ref(1), Price: 500})
	c.MustSend(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(1), To: elsewhere.PubKey()})

	err := c.Send(buyer, core.TxBuyNFT, 500, core.ListingPayload{ListingID: 1})
	require.ErrorIs(t, err, core.ErrStateConflict)
	assert.Equal(t, uint64(1000), c.Account(buyer.PubKey()).Balance)
	assert.Equal(t, elsewhere.PubKey(), getNFT(t, c, 1).Owner)
}

func TestListingRules(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 1)
	buyer := c.NewAccount(0, 1000)

	assert.ErrorIs(t, c.Send(buyer, core.TxListNFT, 0, core.ListNFTPayload{NFTRef: ref(1), Price: 10}), core.ErrUnauthorized)
	assert.ErrorIs(t, c.Send(creator, core.TxListNFT, 0, core.ListNFTPayload{NFTRef: ref(1)}), core.ErrValidation)

	c.MustSend(creator, core.TxListNFT, 0, core.ListNFTPayload{NFTRef: ref(1), Price: 500})
	assert.ErrorIs(t, c.Send(buyer, core.TxBuyNFT, 499, core.ListingPayload{ListingID: 1}), core.ErrInsufficientFunds)
	assert.ErrorIs(t, c.Send(creator, core.TxBuyNFT, 0, core.ListingPayload{ListingID: 1}), core.ErrValidation)
	assert.ErrorIs(t, c.Send(buyer, core.TxCancelListing, 0, core.ListingPayload{ListingID: 1}), core.ErrUnauthorized)

	c.MustSend(creator, core.TxCancelListing, 0, core.ListingPayload{ListingID: 1})
	assert.ErrorIs(t, c.Send(buyer, core.TxBuyNFT, 500, core.ListingPayload{ListingID: 1}), core.ErrStateConflict)
	assert.Equal(t, uint64(1000), c.Account(buyer.PubKey()).Balance)
}

func TestMinBid(t *testing.T) {
	a := &core.Auction{StartPrice: 100}
	v, err := nft.MinBid(a, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v)

	a.CurrentBid = 100
	v, err = nft.MinBid(a, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(105), v)

	a.CurrentBid = 10
	v, err = nft.MinBid(a, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), v)
}

func TestAuctionAntiSnipeAndSettle(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 1)
	alice := c.NewAccount(0, 1000)
	bob := c.NewAccount(0, 1000)

	c.MustSend(creator, core.TxCreateAuction, 0, core.CreateAuctionPayload{NFTRef: ref(1), StartPrice: 100, Duration: 3600})
	end := c.Now() + 3600

	assert.ErrorIs(t, c.Send(alice, core.TxBidAuction, 99, core.AuctionPayload{AuctionID: 1}), core.ErrValidation)
	c.MustSend(alice, core.TxBidAuction, 100, core.AuctionPayload{AuctionID: 1})
	assert.ErrorIs(t, c.Send(bob, core.TxBidAuction, 104, core.AuctionPayload{AuctionID: 1}), core.ErrValidation)
	assert.Equal(t, uint64(1000), c.Account(bob.PubKey()).Balance)

	// Bidding inside the last 600 seconds pushes the end out.
	c.Advance(3500)
	c.MustSend(bob, core.TxBidAuction, 105, core.AuctionPayload{AuctionID: 1})
	a, err := c.State.GetAuction(1)
	require.NoError(t, err)
	assert.Equal(t, end+600, a.EndTime)
	assert.Equal(t, bob.PubKey(), a.CurrentBidder)
	assert.Equal(t, uint64(1000), c.Account(alice.PubKey()).Balance)

	assert.ErrorIs(t, c.Send(creator, core.TxCancelAuction, 0, core.AuctionPayload{AuctionID: 1}), core.ErrStateConflict)

	c.Advance(100)
	assert.ErrorIs(t, c.Send(bob, core.TxSettleAuction, 0, core.AuctionPayload{AuctionID: 1}), core.ErrTiming)

	c.Advance(600)
	assert.ErrorIs(t, c.Send(alice, core.TxBidAuction, 200, core.AuctionPayload{AuctionID: 1}), core.ErrTiming)
	c.MustSend(alice, core.TxSettleAuction, 0, core.AuctionPayload{AuctionID: 1})

	assert.Equal(t, bob.PubKey(), getNFT(t, c, 1).Owner)
	assert.Equal(t, uint64(895), c.Account(bob.PubKey()).Balance)
	// Seller is the creator: proceeds plus royalty, minus the 3% fee.
	assert.Equal(t, uint64(105-3), c.Account(creator.PubKey()).Balance)
	assert.ErrorIs(t, c.Send(alice, core.TxSettleAuction, 0, core.AuctionPayload{AuctionID: 1}), core.ErrStateConflict)
}

func TestAuctionSettleRefundsWhenSellerMovedNFT(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 1)
	bidder := c.NewAccount(0, 500)
	elsewhere := c.NewAccount(0, 0)

	c.MustSend(creator, core.TxCreateAuction, 0, core.CreateAuctionPayload{NFTRef: ref(1), StartPrice: 100, Duration: 10_000})
	c.MustSend(bidder, core.TxBidAuction, 300, core.AuctionPayload{AuctionID: 1})
	c.MustSend(creator, core.TxTransferNFT, 0, core.TransferNFTPayload{NFTRef: ref(1), To: elsewhere.PubKey()})

	c.Advance(10_000)
	c.MustSend(bidder, core.TxSettleAuction, 0, core.AuctionPayload{AuctionID: 1})
	assert.Equal(t, uint64(500), c.Account(bidder.PubKey()).Balance)
	assert.Equal(t, elsewhere.PubKey(), getNFT(t, c, 1).Owner)
}

func TestAuctionCancel(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 1)
	other := c.NewAccount(0, 0)

	c.MustSend(creator, core.TxCreateAuction, 0, core.CreateAuctionPayload{NFTRef: ref(1), StartPrice: 100, Duration: 60})
	assert.ErrorIs(t, c.Send(other, core.TxCancelAuction, 0, core.AuctionPayload{AuctionID: 1}), core.ErrUnauthorized)
	c.MustSend(creator, core.TxCancelAuction, 0, core.AuctionPayload{AuctionID: 1})
	assert.ErrorIs(t, c.Send(creator, core.TxCancelAuction, 0, core.AuctionPayload{AuctionID: 1}), core.ErrStateConflict)
}

func TestNFTStaking(t *testing.T) {
	c := testutil.NewChain(t)
	creator := setup(t, c, 2)
	other := c.NewAccount(0, 0)

	c.MustSend(creator, core.TxStakeNFT, 0, ref(1))
	assert.Equal(t, core.EscrowAddress, getNFT(t, c, 1).Owner)
	assert.Equal(t, []uint64{2}, owned(t, c, creator.PubKey()))

	assert.ErrorIs(t, c.Send(creator, core.TxClaimNFTReward, 0, core.NFTStakePayload{StakeID: 1}), core.ErrNoReward)
	assert.ErrorIs(t, c.Send(other, core.TxClaimNFTReward, 0, core.NFTStakePayload{StakeID: 1}), core.ErrUnauthorized)
	// Staked NFTs cannot be listed by the former owner.
	assert.ErrorIs(t, c.Send(creator, core.TxListNFT, 0, core.ListNFTPayload{NFTRef: ref(1), Price: 1}), core.ErrUnauthorized)

	c.Advance(100)
	c.MustSend(creator, core.TxClaimNFTReward, 0, core.NFTStakePayload{StakeID: 1})
	assert.Equal(t, uint64(100), c.Account(creator.PubKey()).Tokens)

	c.Advance(50)
	c.MustSend(creator, core.TxUnstakeNFT, 0, core.NFTStakePayload{StakeID: 1})
	assert.Equal(t, uint64(150), c.Account(creator.PubKey()).Tokens)
	assert.Equal(t, creator.PubKey(), getNFT(t, c, 1).Owner)
	assert.ElementsMatch(t, []uint64{1, 2}, owned(t, c, creator.PubKey()))

	ids, err := c.State.GetStakeList(creator.PubKey())
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = c.State.GetNFTStake(1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, c.Send(creator, core.TxUnstakeNFT, 0, core.NFTStakePayload{StakeID: 1}), core.ErrNotFound)
}

package core

// Collection groups NFTs minted by one creator.
type Collection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Creator        string `json:"creator"`
	RoyaltyPercent uint64 `json:"royalty_percent"`
	NextTokenID    uint64 `json:"next_token_id"`
}

// NFTAttributes are the game attributes of an NFT.
type NFTAttributes struct {
	Rarity           uint8    `json:"rarity"`
	Power            uint64   `json:"power"`
	Level            uint64   `json:"level"`
	Experience       uint64   `json:"experience"`
	Traits           []string `json:"traits,omitempty"`
	CreationTime     int64    `json:"creation_time"`
	LastTransferTime int64    `json:"last_transfer_time"`
	UpgradeCount     uint64   `json:"upgrade_count"`
}

// NFT is identified by (CollectionID, TokenID). OwnedIndex is the position of
// TokenID in the owner's owned list for that collection.
type NFT struct {
	CollectionID string        `json:"collection_id"`
	TokenID      uint64        `json:"token_id"`
	Owner        string        `json:"owner"`
	OwnedIndex   int           `json:"owned_index"`
	Attributes   NFTAttributes `json:"attributes"`
}

// MarketListing is a fixed-price sale offer. It does not lock the NFT.
type MarketListing struct {
	ID           uint64 `json:"id"`
	CollectionID string `json:"collection_id"`
	TokenID      uint64 `json:"token_id"`
	Seller       string `json:"seller"`
	Price        uint64 `json:"price"` // native currency
	Active       bool   `json:"active"`
	CreatedAt    int64  `json:"created_at"`
}

// Auction is an English auction. Only bids are escrowed; the NFT is not locked.
type Auction struct {
	ID            uint64 `json:"id"`
	CollectionID  string `json:"collection_id"`
	TokenID       uint64 `json:"token_id"`
	Seller        string `json:"seller"`
	StartPrice    uint64 `json:"start_price"`
	CurrentBid    uint64 `json:"current_bid"`
	CurrentBidder string `json:"current_bidder,omitempty"`
	EndTime       int64  `json:"end_time"`
	Settled       bool   `json:"settled"`
	Cancelled     bool   `json:"cancelled"`
}

// NFTStake records an NFT held in escrow custody for yield.
type NFTStake struct {
	ID            uint64 `json:"id"`
	Owner         string `json:"owner"`
	CollectionID  string `json:"collection_id"`
	TokenID       uint64 `json:"token_id"`
	StakedAt      int64  `json:"staked_at"`
	LastClaim     int64  `json:"last_claim"`
	RatePerSecond uint64 `json:"rate_per_second"`
}

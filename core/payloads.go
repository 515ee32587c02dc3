package core

import "encoding/json"

// Asset selects which balance a treasury or swap operation moves.
type Asset string

const (
	AssetToken  Asset = "token"
	AssetNative Asset = "native"
)

// Valid reports whether a is a known asset.
func (a Asset) Valid() bool {
	return a == AssetToken || a == AssetNative
}

// ---- Ledger ----

// TransferPayload transfers native currency.
type TransferPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// TokenTransferPayload transfers tokens.
type TokenTransferPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// TokenBurnPayload destroys tokens held by the caller.
type TokenBurnPayload struct {
	Amount uint64 `json:"amount"`
}

// ---- Treasury & referral ----

// TreasuryWithdrawPayload moves treasury funds to an account.
type TreasuryWithdrawPayload struct {
	Asset  Asset  `json:"asset"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// SetReferrerPayload assigns the caller's referrer once.
type SetReferrerPayload struct {
	Referrer string `json:"referrer"`
}

// ---- Staking ----

// StakePayload stakes or unstakes tokens.
type StakePayload struct {
	Amount uint64 `json:"amount"`
}

// ---- Pool ----

// RemoveLiquidityPayload burns pool shares.
type RemoveLiquidityPayload struct {
	Shares uint64 `json:"shares"`
}

// SwapDirection selects the input leg of a swap.
type SwapDirection string

const (
	SwapNativeForToken SwapDirection = "native_to_token"
	SwapTokenForNative SwapDirection = "token_to_native"
)

// SwapPayload trades Amount of the input asset against the pool.
type SwapPayload struct {
	Direction SwapDirection `json:"direction"`
	Amount    uint64        `json:"amount"`
}

// ---- Games ----

// CreateSessionPayload opens a bet-escrowed game session.
type CreateSessionPayload struct {
	GameType  GameTypeID `json:"game_type"`
	BetAmount uint64     `json:"bet_amount"`
}

// SubmitMovePayload submits one move to a pending session.
type SubmitMovePayload struct {
	SessionID string `json:"session_id"`
	MoveType  uint8  `json:"move_type"`
	MoveValue uint64 `json:"move_value"`
}

// SessionPayload references a session.
type SessionPayload struct {
	SessionID string `json:"session_id"`
}

// ---- NFTs ----

// CreateCollectionPayload registers an NFT collection owned by the caller.
type CreateCollectionPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RoyaltyPercent uint64 `json:"royalty_percent"`
}

// MintNFTPayload mints the next token of a collection.
type MintNFTPayload struct {
	CollectionID string   `json:"collection_id"`
	To           string   `json:"to"`
	Rarity       uint8    `json:"rarity"`
	Power        uint64   `json:"power"`
	Traits       []string `json:"traits"`
}

// NFTRef identifies one NFT.
type NFTRef struct {
	CollectionID string `json:"collection_id"`
	TokenID      uint64 `json:"token_id"`
}

// TransferNFTPayload moves an NFT the caller owns.
type TransferNFTPayload struct {
	NFTRef
	To string `json:"to"`
}

// ListNFTPayload offers an NFT at a fixed price.
type ListNFTPayload struct {
	NFTRef
	Price uint64 `json:"price"`
}

// ListingPayload references a listing.
type ListingPayload struct {
	ListingID uint64 `json:"listing_id"`
}

// CreateAuctionPayload starts an English auction.
type CreateAuctionPayload struct {
	NFTRef
	StartPrice uint64 `json:"start_price"`
	Duration   int64  `json:"duration"` // seconds
}

// AuctionPayload references an auction. Bids carry their amount as tx Value.
type AuctionPayload struct {
	AuctionID uint64 `json:"auction_id"`
}

// NFTStakePayload references an NFT stake record.
type NFTStakePayload struct {
	StakeID uint64 `json:"stake_id"`
}

// ---- Governance & timelock ----

// CreateProposalPayload proposes one privileged call.
type CreateProposalPayload struct {
	Title   string          `json:"title"`
	Target  TxType          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// VotePayload casts the caller's single vote.
type VotePayload struct {
	ProposalID uint64 `json:"proposal_id"`
	Support    bool   `json:"support"`
}

// ProposalPayload references a proposal.
type ProposalPayload struct {
	ProposalID uint64 `json:"proposal_id"`
}

// TimelockCall is the identity of a timelock operation.
type TimelockCall struct {
	Target      TxType          `json:"target"`
	Value       uint64          `json:"value"`
	Payload     json.RawMessage `json:"payload"`
	Predecessor string          `json:"predecessor"`
	Salt        string          `json:"salt"`
}

// TimelockSchedulePayload schedules a call after Delay seconds.
type TimelockSchedulePayload struct {
	TimelockCall
	Delay int64 `json:"delay"`
}

// TimelockOpPayload references an operation by id.
type TimelockOpPayload struct {
	ID string `json:"id"`
}

// ---- Administration ----

// SetParamsPayload replaces the economic parameters. Role fields are ignored;
// roles change only through their dedicated calls.
type SetParamsPayload struct {
	Params Params `json:"params"`
}

// SetPausedPayload toggles the emergency pause flag.
type SetPausedPayload struct {
	Paused bool `json:"paused"`
}

// RegisterGamePayload registers or replaces a game type configuration.
type RegisterGamePayload struct {
	GameType         GameTypeID `json:"game_type"`
	Name             string     `json:"name"`
	PayoutMultiplier uint64     `json:"payout_multiplier"`
}

// SetGameStatusPayload activates or deactivates a game type.
type SetGameStatusPayload struct {
	GameType GameTypeID `json:"game_type"`
	Active   bool       `json:"active"`
}

// SetPayoutPayload overrides a game type's payout multiplier (percent).
type SetPayoutPayload struct {
	GameType         GameTypeID `json:"game_type"`
	PayoutMultiplier uint64     `json:"payout_multiplier"`
}

// SetTreasuryManagerPayload grants or revokes the treasury manager role.
type SetTreasuryManagerPayload struct {
	Manager string `json:"manager"`
	Enabled bool   `json:"enabled"`
}

// AdminMintPayload mints tokens within the supply cap.
type AdminMintPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

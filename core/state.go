package core

// Reserved addresses. None of them is a valid ed25519 public key, so no
// transaction can ever be signed from them.
const (
	EscrowAddress     = "escrow"     // contract-held balance: stakes, bets, bids, pool reserves, custodied NFTs
	TreasuryAddress   = "treasury"   // protocol-owned balance funded by fee skims
	GovernanceAddress = "governance" // caller of calls executed by a passed proposal
	TimelockAddress   = "timelock"   // caller of calls executed by the timelock
)

// Account holds a participant's balances and replay-protection nonce.
// Address is the hex-encoded ed25519 public key.
type Account struct {
	Address string `json:"address"` // pubkey hex
	Balance uint64 `json:"balance"` // native currency
	Nonce   uint64 `json:"nonce"`

	Tokens           uint64           `json:"tokens"`
	Staked           uint64           `json:"staked"`
	StakeStart       int64            `json:"stake_start"`
	LastClaim        int64            `json:"last_claim"`
	Referrer         string           `json:"referrer,omitempty"`
	ReferralEarnings uint64           `json:"referral_earnings"`
	LiquidityShares  uint64           `json:"liquidity_shares"`
	Achievements     map[string]int64 `json:"achievements,omitempty"` // id → unlock time
}

// Pool is the constant-product token/native reserve pair.
type Pool struct {
	TokenReserve  uint64 `json:"token_reserve"`
	NativeReserve uint64 `json:"native_reserve"`
	TotalShares   uint64 `json:"total_shares"`
}

// Globals holds chain-wide counters and the token supply.
type Globals struct {
	TotalSupply    uint64 `json:"total_supply"`
	Pool           Pool   `json:"pool"`
	RandNonce      uint64 `json:"rand_nonce"`
	SessionNonce   uint64 `json:"session_nonce"`
	NextListingID  uint64 `json:"next_listing_id"`
	NextAuctionID  uint64 `json:"next_auction_id"`
	NextStakeID    uint64 `json:"next_stake_id"`
	NextProposalID uint64 `json:"next_proposal_id"`
}

// State is the full blockchain state interface. Implementations must be
// snapshot-able so the executor can roll back failed transactions.
type State interface {
	// Accounts
	GetAccount(address string) (*Account, error)
	SetAccount(account *Account) error

	// Chain-wide records
	GetParams() (*Params, error)
	SetParams(p *Params) error
	GetGlobals() (*Globals, error)
	SetGlobals(g *Globals) error

	// Games
	GetGameType(id GameTypeID) (*GameType, error)
	SetGameType(g *GameType) error
	GetSession(id string) (*Session, error)
	SetSession(s *Session) error
	GetLeaderboard(id GameTypeID) (*Leaderboard, error)
	SetLeaderboard(l *Leaderboard) error
	GetGameStats(id GameTypeID) (*GameStats, error)
	SetGameStats(s *GameStats) error

	// NFTs
	GetCollection(id string) (*Collection, error)
	SetCollection(c *Collection) error
	GetNFT(collectionID string, tokenID uint64) (*NFT, error)
	SetNFT(n *NFT) error
	GetOwnedList(owner, collectionID string) ([]uint64, error)
	SetOwnedList(owner, collectionID string, ids []uint64) error

	// Market
	GetListing(id uint64) (*MarketListing, error)
	SetListing(l *MarketListing) error
	GetAuction(id uint64) (*Auction, error)
	SetAuction(a *Auction) error
	GetNFTStake(id uint64) (*NFTStake, error)
	SetNFTStake(s *NFTStake) error
	DeleteNFTStake(id uint64) error
	GetStakeList(owner string) ([]uint64, error)
	SetStakeList(owner string, ids []uint64) error

	// Governance
	GetProposal(id uint64) (*Proposal, error)
	SetProposal(p *Proposal) error
	GetVote(proposalID uint64, voter string) (*Vote, error)
	SetVote(v *Vote) error
	GetTimelockOp(id string) (*TimelockOperation, error)
	SetTimelockOp(op *TimelockOperation) error

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root from the current write
	// buffer without flushing. Call this before signing a block.
	ComputeRoot() string
	// Commit flushes the write buffer to the underlying DB and clears it.
	// Always call ComputeRoot() first to obtain the root for the block header.
	Commit() error
}

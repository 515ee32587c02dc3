package core

import (
	"fmt"
	"slices"
)

// Params are the admin-settable economic parameters and role assignments.
// Percentages are whole percents.
type Params struct {
	Owner            string   `json:"owner" toml:"owner"`
	Admins           []string `json:"admins" toml:"admins"`
	TreasuryManagers []string `json:"treasury_managers" toml:"treasury_managers"`
	Paused           bool     `json:"paused" toml:"paused"`

	MaxSupply uint64 `json:"max_supply" toml:"max_supply"`

	StakingAPR                uint64 `json:"staking_apr" toml:"staking_apr"`
	StakingFeePercent         uint64 `json:"staking_fee_percent" toml:"staking_fee_percent"`
	SecondsPerYear            uint64 `json:"seconds_per_year" toml:"seconds_per_year"`
	AchievementStakeThreshold uint64 `json:"achievement_stake_threshold" toml:"achievement_stake_threshold"`

	ReferralPercent uint64 `json:"referral_percent" toml:"referral_percent"`

	SwapFlatFee       uint64 `json:"swap_flat_fee" toml:"swap_flat_fee"`
	TokensPerNative   uint64 `json:"tokens_per_native" toml:"tokens_per_native"`
	InitialPoolShares uint64 `json:"initial_pool_shares" toml:"initial_pool_shares"`

	GameFeePercent  uint64 `json:"game_fee_percent" toml:"game_fee_percent"`
	MinBet          uint64 `json:"min_bet" toml:"min_bet"`
	MaxBet          uint64 `json:"max_bet" toml:"max_bet"`
	SessionTimeout  int64  `json:"session_timeout" toml:"session_timeout"` // seconds
	LeaderboardSize int    `json:"leaderboard_size" toml:"leaderboard_size"`

	MarketFeePercent           uint64 `json:"market_fee_percent" toml:"market_fee_percent"`
	MaxRoyaltyPercent          uint64 `json:"max_royalty_percent" toml:"max_royalty_percent"`
	AuctionMinIncrementPercent uint64 `json:"auction_min_increment_percent" toml:"auction_min_increment_percent"`
	AuctionExtensionWindow     int64  `json:"auction_extension_window" toml:"auction_extension_window"` // seconds
	NFTStakeRatePerSecond      uint64 `json:"nft_stake_rate_per_second" toml:"nft_stake_rate_per_second"`

	MinProposalStake uint64 `json:"min_proposal_stake" toml:"min_proposal_stake"`
	VotingPeriod     int64  `json:"voting_period" toml:"voting_period"`           // seconds
	TimelockMinDelay int64  `json:"timelock_min_delay" toml:"timelock_min_delay"` // seconds
	TimelockMaxDelay int64  `json:"timelock_max_delay" toml:"timelock_max_delay"` // seconds
}

// DefaultParams returns the parameter set used when genesis does not override it.
func DefaultParams() *Params {
	return &Params{
		MaxSupply:                  1_000_000_000,
		StakingAPR:                 5,
		StakingFeePercent:          10,
		SecondsPerYear:             31_536_000,
		AchievementStakeThreshold:  1000,
		ReferralPercent:            10,
		SwapFlatFee:                1,
		TokensPerNative:            100,
		InitialPoolShares:          1_000_000,
		GameFeePercent:             2,
		MinBet:                     10,
		MaxBet:                     1_000_000,
		SessionTimeout:             3600,
		LeaderboardSize:            10,
		MarketFeePercent:           3,
		MaxRoyaltyPercent:          10,
		AuctionMinIncrementPercent: 5,
		AuctionExtensionWindow:     600,
		NFTStakeRatePerSecond:      1,
		MinProposalStake:           100,
		VotingPeriod:               3 * 24 * 3600,
		TimelockMinDelay:           3600,
		TimelockMaxDelay:           30 * 24 * 3600,
	}
}

// IsAdmin reports whether addr may use the administrative surface. The owner
// and the two system callers are always admins.
func (p *Params) IsAdmin(addr string) bool {
	if addr == "" {
		return false
	}
	if addr == p.Owner || addr == GovernanceAddress || addr == TimelockAddress {
		return true
	}
	return slices.Contains(p.Admins, addr)
}

// IsTreasuryManager reports whether addr may withdraw from the treasury.
func (p *Params) IsTreasuryManager(addr string) bool {
	if addr == "" {
		return false
	}
	if addr == p.Owner || addr == GovernanceAddress || addr == TimelockAddress {
		return true
	}
	return slices.Contains(p.TreasuryManagers, addr)
}

// Validate checks the economic parameters for internal consistency.
func (p *Params) Validate() error {
	percents := []struct {
		name string
		v    uint64
	}{
		{"staking_fee_percent", p.StakingFeePercent},
		{"referral_percent", p.ReferralPercent},
		{"game_fee_percent", p.GameFeePercent},
		{"market_fee_percent", p.MarketFeePercent},
		{"max_royalty_percent", p.MaxRoyaltyPercent},
	}
	for _, pc := range percents {
		if pc.v > 100 {
			return fmt.Errorf("%w: %s %d above 100", ErrValidation, pc.name, pc.v)
		}
	}
	if p.MarketFeePercent+p.MaxRoyaltyPercent > 100 {
		return fmt.Errorf("%w: market fee plus royalty above 100%%", ErrValidation)
	}
	switch {
	case p.MaxSupply == 0:
		return fmt.Errorf("%w: max_supply must be > 0", ErrValidation)
	case p.SecondsPerYear == 0:
		return fmt.Errorf("%w: seconds_per_year must be > 0", ErrValidation)
	case p.TokensPerNative == 0:
		return fmt.Errorf("%w: tokens_per_native must be > 0", ErrValidation)
	case p.InitialPoolShares == 0:
		return fmt.Errorf("%w: initial_pool_shares must be > 0", ErrValidation)
	case p.MinBet == 0 || p.MinBet > p.MaxBet:
		return fmt.Errorf("%w: bet limits [%d, %d]", ErrValidation, p.MinBet, p.MaxBet)
	case p.SessionTimeout <= 0:
		return fmt.Errorf("%w: session_timeout must be > 0", ErrValidation)
	case p.LeaderboardSize <= 0:
		return fmt.Errorf("%w: leaderboard_size must be > 0", ErrValidation)
	case p.AuctionExtensionWindow < 0:
		return fmt.Errorf("%w: auction_extension_window must be >= 0", ErrValidation)
	case p.VotingPeriod <= 0:
		return fmt.Errorf("%w: voting_period must be > 0", ErrValidation)
	case p.TimelockMinDelay < 0 || p.TimelockMinDelay > p.TimelockMaxDelay:
		return fmt.Errorf("%w: timelock delays [%d, %d]", ErrValidation, p.TimelockMinDelay, p.TimelockMaxDelay)
	}
	return nil
}

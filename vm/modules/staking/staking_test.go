package staking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/internal/testutil"
	"github.com/tolelom/arcadechain/vm/modules/staking"
)

func TestReward(t *testing.T) {
	year := int64(31_536_000)
	cases := []struct {
		principal, apr uint64
		elapsed        int64
		want           uint64
	}{
		{1000, 5, year, 50},
		{1000, 5, year / 2, 25},
		{1000, 5, 0, 0},
		{0, 5, year, 0},
		{999, 5, 1, 0},
	}
	for _, tc := range cases {
		got, err := staking.Reward(tc.principal, tc.apr, tc.elapsed, uint64(year))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestNetRewardTruncatesOnce(t *testing.T) {
	year := uint64(31_536_000)
	cases := []struct {
		elapsed    int64
		gross, net uint64
	}{
		{int64(year), 50, 45},
		{12_607_000, 19, 17},
		{int64(year) / 3, 16, 15},
		{1, 0, 0},
	}
	for _, tc := range cases {
		gross, err := staking.Reward(1000, 5, tc.elapsed, year)
		require.NoError(t, err)
		net, err := staking.NetReward(1000, 5, tc.elapsed, year, 10)
		require.NoError(t, err)
		assert.Equal(t, tc.gross, gross, "gross at %d", tc.elapsed)
		assert.Equal(t, tc.net, net, "net at %d", tc.elapsed)
	}

	_, err := staking.NetReward(1000, 5, 1, year, 101)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestStakeClaimPartialYear(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)

	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 1000})
	c.Advance(12_607_000)
	c.MustSend(w, core.TxClaimStakingReward, 0, struct{}{})

	assert.Equal(t, uint64(17), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, uint64(2), c.Account(core.TreasuryAddress).Tokens)
	assert.Equal(t, uint64(1019), c.Globals().TotalSupply)
}

func TestStakeClaimAfterOneYear(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)

	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 1000})
	acc := c.Account(w.PubKey())
	assert.Equal(t, uint64(1000), acc.Staked)
	assert.Zero(t, acc.Tokens)
	assert.Contains(t, acc.Achievements, staking.AchievementTokenEnthusiast)

	c.Advance(int64(c.Params().SecondsPerYear))
	c.MustSend(w, core.TxClaimStakingReward, 0, struct{}{})

	assert.Equal(t, uint64(45), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, uint64(5), c.Account(core.TreasuryAddress).Tokens)
	assert.Equal(t, uint64(1050), c.Globals().TotalSupply)

	// Nothing accrues within the same second.
	assert.ErrorIs(t, c.Send(w, core.TxClaimStakingReward, 0, struct{}{}), core.ErrNoReward)
}

func TestAchievementUnlocksOnce(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(3000, 0)

	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 500})
	assert.Empty(t, c.Account(w.PubKey()).Achievements)
	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 500})
	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 500})

	assert.Len(t, c.Events(events.EventAchievementUnlocked), 1)
	assert.Equal(t, uint64(1500), c.Account(w.PubKey()).Staked)
}

func TestUnstake(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)

	assert.ErrorIs(t, c.Send(w, core.TxUnstake, 0, core.StakePayload{Amount: 1}), core.ErrNoStake)
	assert.ErrorIs(t, c.Send(w, core.TxClaimStakingReward, 0, struct{}{}), core.ErrNoStake)

	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 1000})
	assert.ErrorIs(t, c.Send(w, core.TxUnstake, 0, core.StakePayload{Amount: 1001}), core.ErrInsufficientFunds)

	c.Advance(int64(c.Params().SecondsPerYear))
	c.MustSend(w, core.TxUnstake, 0, core.StakePayload{Amount: 1000})

	acc := c.Account(w.PubKey())
	assert.Zero(t, acc.Staked)
	assert.Zero(t, acc.StakeStart)
	assert.Equal(t, uint64(1045), acc.Tokens)
	assert.Zero(t, c.Account(core.EscrowAddress).Tokens)
}

func TestStakeSettlesBeforeTopUp(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(2000, 0)

	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 1000})
	c.Advance(int64(c.Params().SecondsPerYear))
	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: 1000})

	acc := c.Account(w.PubKey())
	assert.Equal(t, uint64(2000), acc.Staked)
	assert.Equal(t, uint64(45), acc.Tokens)
	assert.Equal(t, c.Now(), acc.LastClaim)
}

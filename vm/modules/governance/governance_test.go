package governance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/internal/testutil"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/wallet"
)

func staker(t *testing.T, c *testutil.Chain, amount uint64) *wallet.Wallet {
	t.Helper()
	w := c.NewAccount(amount, 0)
	c.MustSend(w, core.TxStake, 0, core.StakePayload{Amount: amount})
	return w
}

func proposal(t *testing.T, c *testutil.Chain, id uint64) *core.Proposal {
	t.Helper()
	p, err := c.State.GetProposal(id)
	require.NoError(t, err)
	return p
}

func TestCreateProposalRules(t *testing.T) {
	c := testutil.NewChain(t)
	small := staker(t, c, 99)
	big := staker(t, c, 100)
	pause := testutil.Payload(t, core.SetPausedPayload{Paused: true})

	err := c.Send(small, core.TxCreateProposal, 0, core.CreateProposalPayload{Title: "pause", Target: core.TxAdminSetPaused, Payload: pause})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	err = c.Send(big, core.TxCreateProposal, 0, core.CreateProposalPayload{Title: "steal", Target: core.TxTransfer, Payload: pause})
	assert.ErrorIs(t, err, core.ErrValidation)
	err = c.Send(big, core.TxCreateProposal, 0, core.CreateProposalPayload{Target: core.TxAdminSetPaused, Payload: pause})
	assert.ErrorIs(t, err, core.ErrValidation)

	c.MustSend(big, core.TxCreateProposal, 0, core.CreateProposalPayload{Title: "pause", Target: core.TxAdminSetPaused, Payload: pause})
	p := proposal(t, c, 1)
	assert.Equal(t, c.Now()+c.Params().VotingPeriod, p.End)
}

func TestPassedProposalRunsCall(t *testing.T) {
	c := testutil.NewChain(t)
	yes := staker(t, c, 300)
	no := staker(t, c, 200)
	nobody := c.NewAccount(0, 0)

	c.MustSend(yes, core.TxCreateProposal, 0, core.CreateProposalPayload{
		Title: "pause", Target: core.TxAdminSetPaused, Payload: testutil.Payload(t, core.SetPausedPayload{Paused: true}),
	})
	c.MustSend(yes, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: true})
	c.MustSend(no, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: false})

	assert.ErrorIs(t, c.Send(yes, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: true}), core.ErrStateConflict)
	assert.ErrorIs(t, c.Send(nobody, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: true}), core.ErrNoStake)
	assert.ErrorIs(t, c.Send(yes, core.TxExecuteProposal, 0, core.ProposalPayload{ProposalID: 1}), core.ErrTiming)

	c.Advance(c.Params().VotingPeriod)
	assert.ErrorIs(t, c.Send(nobody, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: true}), core.ErrTiming)
	c.MustSend(nobody, core.TxExecuteProposal, 0, core.ProposalPayload{ProposalID: 1})

	p := proposal(t, c, 1)
	assert.True(t, p.Executed)
	assert.True(t, p.Passed)
	assert.Equal(t, uint64(300), p.ForVotes)
	assert.Equal(t, uint64(200), p.AgainstVotes)
	assert.True(t, c.Params().Paused)

	assert.ErrorIs(t, c.Send(nobody, core.TxExecuteProposal, 0, core.ProposalPayload{ProposalID: 1}), core.ErrStateConflict)
}

func TestRejectedProposalSkipsCall(t *testing.T) {
	c := testutil.NewChain(t)
	w := staker(t, c, 100)
	c.MustSend(w, core.TxCreateProposal, 0, core.CreateProposalPayload{
		Title: "pause", Target: core.TxAdminSetPaused, Payload: testutil.Payload(t, core.SetPausedPayload{Paused: true}),
	})
	c.MustSend(w, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: false})
	c.Advance(c.Params().VotingPeriod)
	c.MustSend(w, core.TxExecuteProposal, 0, core.ProposalPayload{ProposalID: 1})

	p := proposal(t, c, 1)
	assert.True(t, p.Executed)
	assert.False(t, p.Passed)
	assert.False(t, c.Params().Paused)
}

func TestFailedCallKeepsExecutedFlag(t *testing.T) {
	c := testutil.NewChain(t)
	w := staker(t, c, 100)
	supply := c.Globals().TotalSupply

	c.MustSend(w, core.TxCreateProposal, 0, core.CreateProposalPayload{
		Title:   "print money",
		Target:  core.TxAdminMint,
		Payload: testutil.Payload(t, core.AdminMintPayload{To: w.PubKey(), Amount: c.Params().MaxSupply}),
	})
	c.MustSend(w, core.TxVote, 0, core.VotePayload{ProposalID: 1, Support: true})
	c.Advance(c.Params().VotingPeriod)

	err := c.Send(w, core.TxExecuteProposal, 0, core.ProposalPayload{ProposalID: 1})
	require.Error(t, err)
	assert.True(t, vm.IsKeepState(err))
	assert.ErrorIs(t, err, core.ErrExternalCall)
	assert.ErrorIs(t, err, core.ErrOverflow)

	p := proposal(t, c, 1)
	assert.True(t, p.Executed)
	assert.True(t, p.Passed)
	assert.NotEmpty(t, p.ExecError)
	assert.Equal(t, supply, c.Globals().TotalSupply)
	assert.Empty(t, c.Events(events.EventTokenMinted))
	assert.Len(t, c.Events(events.EventProposalExecuted), 1)

	assert.ErrorIs(t, c.Send(w, core.TxExecuteProposal, 0, core.ProposalPayload{ProposalID: 1}), core.ErrStateConflict)
}

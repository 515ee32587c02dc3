// Package governance implements stake-weighted proposals, each carrying one
// privileged call that runs as the governance address once the proposal
// passes.
package governance

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

func init() {
	vm.Register(core.TxCreateProposal, handleCreate)
	vm.Register(core.TxVote, handleVote)
	vm.Register(core.TxExecuteProposal, handleExecute)
}

func loadProposal(ctx *vm.Context, id uint64) (*core.Proposal, error) {
	p, err := ctx.State.GetProposal(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: proposal %d", core.ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func handleCreate(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateProposalPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Title == "" {
		return fmt.Errorf("%w: title required", core.ErrValidation)
	}
	if err := vm.ValidateCall(vm.PrivilegedCall{Target: p.Target, Payload: p.Payload}); err != nil {
		return err
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Staked < params.MinProposalStake {
		return fmt.Errorf("%w: staked %d, proposals need %d", core.ErrInsufficientFunds, acc.Staked, params.MinProposalStake)
	}

	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	g.NextProposalID++
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	now := ctx.Now()
	prop := &core.Proposal{
		ID:       g.NextProposalID,
		Title:    p.Title,
		Proposer: ctx.Caller,
		Start:    now,
		End:      now + params.VotingPeriod,
		Target:   p.Target,
		Payload:  p.Payload,
	}
	if err := ctx.State.SetProposal(prop); err != nil {
		return err
	}
	ctx.Emit(events.EventProposalCreated, map[string]any{
		"proposal_id": prop.ID, "proposer": prop.Proposer, "target": string(prop.Target), "end": prop.End,
	})
	return nil
}

// handleVote records the caller's single vote, weighted by their stake at
// this moment.
func handleVote(ctx *vm.Context, payload json.RawMessage) error {
	var p core.VotePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	prop, err := loadProposal(ctx, p.ProposalID)
	if err != nil {
		return err
	}
	if ctx.Now() >= prop.End {
		return fmt.Errorf("%w: voting on proposal %d closed at %d", core.ErrTiming, prop.ID, prop.End)
	}
	if _, err := ctx.State.GetVote(prop.ID, ctx.Caller); err == nil {
		return fmt.Errorf("%w: %s already voted on proposal %d", core.ErrStateConflict, ctx.Caller, prop.ID)
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	acc, err := ctx.State.GetAccount(ctx.Caller)
	if err != nil {
		return err
	}
	if acc.Staked == 0 {
		return core.ErrNoStake
	}

	if p.Support {
		prop.ForVotes, err = core.AddAmounts(prop.ForVotes, acc.Staked)
	} else {
		prop.AgainstVotes, err = core.AddAmounts(prop.AgainstVotes, acc.Staked)
	}
	if err != nil {
		return err
	}
	if err := ctx.State.SetProposal(prop); err != nil {
		return err
	}
	if err := ctx.State.SetVote(&core.Vote{
		ProposalID: prop.ID, Voter: ctx.Caller, Support: p.Support, Weight: acc.Staked,
	}); err != nil {
		return err
	}
	ctx.Emit(events.EventVoteCast, map[string]any{
		"proposal_id": prop.ID, "voter": ctx.Caller, "support": p.Support, "weight": acc.Staked,
	})
	return nil
}

// handleExecute finalizes a proposal after its voting window. The proposal
// is marked executed whether or not its call succeeds; a failed call is
// rolled back, recorded in ExecError and reported as ErrExternalCall.
func handleExecute(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ProposalPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	prop, err := loadProposal(ctx, p.ProposalID)
	if err != nil {
		return err
	}
	if prop.Executed {
		return fmt.Errorf("%w: proposal %d already executed", core.ErrStateConflict, prop.ID)
	}
	if ctx.Now() < prop.End {
		return fmt.Errorf("%w: voting on proposal %d ends at %d", core.ErrTiming, prop.ID, prop.End)
	}
	prop.Executed = true
	prop.Passed = prop.ForVotes > prop.AgainstVotes
	if err := ctx.State.SetProposal(prop); err != nil {
		return err
	}

	var callErr error
	if prop.Passed {
		callErr = ctx.Try(func() error {
			return vm.Dispatch(ctx, core.GovernanceAddress, vm.PrivilegedCall{Target: prop.Target, Payload: prop.Payload})
		})
		if callErr != nil {
			prop.ExecError = callErr.Error()
			if err := ctx.State.SetProposal(prop); err != nil {
				return err
			}
		}
	}
	ctx.Emit(events.EventProposalExecuted, map[string]any{
		"proposal_id": prop.ID, "passed": prop.Passed, "for": prop.ForVotes,
		"against": prop.AgainstVotes, "error": prop.ExecError,
	})
	return vm.KeepState(callErr)
}

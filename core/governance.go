package core

import "encoding/json"

// Proposal is a stake-weighted governance proposal carrying one privileged call.
type Proposal struct {
	ID           uint64          `json:"id"`
	Title        string          `json:"title"`
	Proposer     string          `json:"proposer"`
	Start        int64           `json:"start"`
	End          int64           `json:"end"`
	ForVotes     uint64          `json:"for_votes"`
	AgainstVotes uint64          `json:"against_votes"`
	Executed     bool            `json:"executed"`
	Passed       bool            `json:"passed"`
	Target       TxType          `json:"target"`
	Payload      json.RawMessage `json:"payload"`
	ExecError    string          `json:"exec_error,omitempty"`
}

// Vote is the single allowed vote of an account on a proposal.
type Vote struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Support    bool   `json:"support"`
	Weight     uint64 `json:"weight"`
}

// OperationState is the observable state of a timelock operation.
type OperationState string

const (
	OpUnset     OperationState = "unset"
	OpPending   OperationState = "pending"
	OpReady     OperationState = "ready"
	OpExecuted  OperationState = "executed"
	OpCancelled OperationState = "cancelled"
)

// TimelockOperation is a scheduled privileged call. Status stores only
// pending, executed or cancelled; readiness is derived on read.
type TimelockOperation struct {
	ID          string          `json:"id"`
	Target      TxType          `json:"target"`
	Value       uint64          `json:"value"`
	Payload     json.RawMessage `json:"payload"`
	Predecessor string          `json:"predecessor,omitempty"`
	Salt        string          `json:"salt"`
	ReadyAt     int64           `json:"ready_at"`
	Status      OperationState  `json:"status"`
}

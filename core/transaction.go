package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolelom/arcadechain/crypto"
)

// TxType identifies the kind of operation a transaction performs.
type TxType string

const (
	// Ledger
	TxTransfer      TxType = "transfer"
	TxTokenTransfer TxType = "token_transfer"
	TxTokenBurn     TxType = "token_burn"

	// Treasury & referral
	TxTreasuryWithdraw TxType = "treasury_withdraw"
	TxSetReferrer      TxType = "set_referrer"

	// Staking
	TxStake              TxType = "stake"
	TxUnstake            TxType = "unstake"
	TxClaimStakingReward TxType = "claim_staking_reward"

	// Liquidity pool
	TxAddLiquidity    TxType = "add_liquidity"
	TxRemoveLiquidity TxType = "remove_liquidity"
	TxSwap            TxType = "swap"

	// Game sessions
	TxCreateSession   TxType = "create_session"
	TxSubmitMove      TxType = "submit_move"
	TxClaimGameReward TxType = "claim_game_reward"
	TxExpireSession   TxType = "expire_session"

	// NFTs
	TxCreateCollection TxType = "create_collection"
	TxMintNFT          TxType = "mint_nft"
	TxTransferNFT      TxType = "transfer_nft"
	TxListNFT          TxType = "list_nft"
	TxCancelListing    TxType = "cancel_listing"
	TxBuyNFT           TxType = "buy_nft"
	TxCreateAuction    TxType = "create_auction"
	TxBidAuction       TxType = "bid_auction"
	TxSettleAuction    TxType = "settle_auction"
	TxCancelAuction    TxType = "cancel_auction"
	TxStakeNFT         TxType = "stake_nft"
	TxClaimNFTReward   TxType = "claim_nft_reward"
	TxUnstakeNFT       TxType = "unstake_nft"

	// Governance & timelock
	TxCreateProposal   TxType = "create_proposal"
	TxVote             TxType = "vote"
	TxExecuteProposal  TxType = "execute_proposal"
	TxTimelockSchedule TxType = "timelock_schedule"
	TxTimelockExecute  TxType = "timelock_execute"
	TxTimelockCancel   TxType = "timelock_cancel"

	// Administrative surface (privileged-call targets)
	TxAdminSetParams          TxType = "admin_set_params"
	TxAdminSetPaused          TxType = "admin_set_paused"
	TxAdminRegisterGame       TxType = "admin_register_game"
	TxAdminSetGameStatus      TxType = "admin_set_game_status"
	TxAdminSetPayout          TxType = "admin_set_payout"
	TxAdminSetTreasuryManager TxType = "admin_set_treasury_manager"
	TxAdminMint               TxType = "admin_mint"
)

// Transaction is the atomic unit of work on the chain.
// From holds the sender's full hex-encoded ed25519 public key (64 chars).
// Value is native currency attached to the call.
// Signature covers all fields except ID and Signature.
type Transaction struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"` // hex-encoded ed25519 public key
	Nonce     uint64          `json:"nonce"`
	Fee       uint64          `json:"fee"`
	Value     uint64          `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields that are covered by the signature.
type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Fee       uint64          `json:"fee"`
	Value     uint64          `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns a deterministic hash of the transaction (sans Signature).
// Returns an empty string if marshalling fails (which cannot happen in practice).
func (tx *Transaction) Hash() string {
	body := signingBody{
		ChainID:   tx.ChainID,
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Fee:       tx.Fee,
		Value:     tx.Value,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign computes the signature and sets ID.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	hash := tx.Hash()
	tx.Signature = crypto.Sign(priv, []byte(hash))
	tx.ID = hash
}

// Verify checks the signature and that From is a valid public key.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(tx.From)
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	return crypto.Verify(pub, []byte(tx.Hash()), tx.Signature)
}

// NewTransaction creates an unsigned transaction with the current timestamp.
func NewTransaction(chainID string, typ TxType, from string, nonce, fee, value uint64, payload any) (*Transaction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Transaction{
		ChainID:   chainID,
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Fee:       fee,
		Value:     value,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

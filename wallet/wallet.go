package wallet

import (
	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/crypto"
)

// Wallet holds a key pair and provides transaction-building helpers.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key (used as "from" address).
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// Address returns the 20-byte display form of the public key.
func (w *Wallet) Address() string {
	return w.pub.Address()
}

// NewTx creates a signed transaction. chainID must match the target network.
// nonce should match the account's current nonce. value is native currency
// attached to the call and is only accepted by payable transaction types.
func (w *Wallet) NewTx(chainID string, typ core.TxType, nonce, fee, value uint64, payload any) (*core.Transaction, error) {
	tx, err := core.NewTransaction(chainID, typ, w.pub.Hex(), nonce, fee, value, payload)
	if err != nil {
		return nil, err
	}
	tx.Sign(w.priv)
	return tx, nil
}

// Transfer creates a signed native-currency transfer.
func (w *Wallet) Transfer(chainID, to string, amount, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxTransfer, nonce, fee, 0, core.TransferPayload{
		To:     to,
		Amount: amount,
	})
}

// CreateSession creates a signed create_session transaction.
func (w *Wallet) CreateSession(chainID string, game core.GameTypeID, bet, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxCreateSession, nonce, fee, 0, core.CreateSessionPayload{
		GameType:  game,
		BetAmount: bet,
	})
}

// SubmitMove creates a signed submit_move transaction.
func (w *Wallet) SubmitMove(chainID, sessionID string, moveType uint8, moveValue, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxSubmitMove, nonce, fee, 0, core.SubmitMovePayload{
		SessionID: sessionID,
		MoveType:  moveType,
		MoveValue: moveValue,
	})
}

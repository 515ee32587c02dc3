package vm

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/random"
)

var logger = log.WithField("module", "vm")

// keepStateError marks a handler failure whose state changes must be kept.
type keepStateError struct{ err error }

func (e *keepStateError) Error() string { return e.err.Error() }
func (e *keepStateError) Unwrap() error { return e.err }

// KeepState wraps err so the executor commits the transaction's state changes
// while still reporting err to the caller. Handlers use it when an inner
// call has already been rolled back under Context.Try and the outer
// bookkeeping must persist.
func KeepState(err error) error {
	if err == nil {
		return nil
	}
	return &keepStateError{err: err}
}

// IsKeepState reports whether err was wrapped with KeepState.
func IsKeepState(err error) bool {
	var k *keepStateError
	return errors.As(err, &k)
}

// Executor applies transactions to the state using the global Handler registry.
type Executor struct {
	state   core.State
	emitter *events.Emitter
	rand    random.Source
	guard   Guard
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRandomness replaces the default Keccak randomness source.
func WithRandomness(src random.Source) ExecutorOption {
	return func(e *Executor) { e.rand = src }
}

// NewExecutor creates an Executor with the given state and event emitter.
func NewExecutor(state core.State, emitter *events.Emitter, opts ...ExecutorOption) *Executor {
	e := &Executor{state: state, emitter: emitter, rand: random.Keccak{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteTx verifies and executes a single transaction with snapshot/rollback.
// A KeepState error leaves the state changes in place; the transaction counts
// as applied.
func (e *Executor) ExecuteTx(block *core.Block, tx *core.Transaction) error {
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: signature: %v", core.ErrUnauthorized, err)
	}

	snapID, err := e.state.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	var pending []events.Event
	if err := e.applyTx(block, tx, &pending); err != nil {
		if IsKeepState(err) {
			e.flush(pending)
			e.emit(events.EventTxFailed, tx, block, map[string]any{
				"type": string(tx.Type), "from": tx.From, "error": err.Error(),
			})
			return err
		}
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return fmt.Errorf("revert snapshot after tx failure: %w (revert: %v)", err, revertErr)
		}
		return err
	}

	e.flush(pending)
	e.emit(events.EventTxExecuted, tx, block, map[string]any{"type": string(tx.Type), "from": tx.From})
	return nil
}

func (e *Executor) flush(pending []events.Event) {
	if e.emitter == nil {
		return
	}
	for _, ev := range pending {
		e.emitter.Emit(ev)
	}
}

func (e *Executor) emit(typ events.EventType, tx *core.Transaction, block *core.Block, data map[string]any) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Event{
		Type:        typ,
		TxID:        tx.ID,
		BlockHeight: block.Header.Height,
		Data:        data,
	})
}

// applyTx deducts the fee, increments the nonce, escrows the attached value,
// then dispatches to the handler.
func (e *Executor) applyTx(block *core.Block, tx *core.Transaction, pending *[]events.Event) error {
	ent, err := globalRegistry.lookup(tx.Type)
	if err != nil {
		return err
	}
	if tx.Value > 0 && !ent.payable {
		return fmt.Errorf("%w: %s does not accept value", core.ErrValidation, tx.Type)
	}

	acc, err := e.state.GetAccount(tx.From)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if acc.Nonce != tx.Nonce {
		return fmt.Errorf("%w: invalid nonce: expected %d got %d", core.ErrValidation, acc.Nonce, tx.Nonce)
	}
	if acc.Nonce == math.MaxUint64 {
		return fmt.Errorf("%w: nonce overflow for account %s", core.ErrOverflow, tx.From)
	}
	due, err := core.AddAmounts(tx.Fee, tx.Value)
	if err != nil {
		return err
	}
	if acc.Balance < due {
		return fmt.Errorf("%w: fee and value: have %d need %d", core.ErrInsufficientFunds, acc.Balance, due)
	}
	acc.Balance -= due
	acc.Nonce++
	if err := e.state.SetAccount(acc); err != nil {
		return err
	}
	if err := e.credit(core.TreasuryAddress, tx.Fee); err != nil {
		return err
	}
	if err := e.credit(core.EscrowAddress, tx.Value); err != nil {
		return err
	}

	ctx := &Context{
		State:   e.state,
		Block:   block,
		Tx:      tx,
		Rand:    e.rand,
		Caller:  tx.From,
		Value:   tx.Value,
		guard:   &e.guard,
		pending: pending,
	}
	if err := ent.h(ctx, tx.Payload); err != nil {
		logger.WithFields(log.Fields{"tx": tx.ID, "type": tx.Type}).WithError(err).Debug("Handler failed")
		return err
	}
	return nil
}

func (e *Executor) credit(addr string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc.Balance, err = core.AddAmounts(acc.Balance, amount); err != nil {
		return err
	}
	return e.state.SetAccount(acc)
}

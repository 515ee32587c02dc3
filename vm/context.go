package vm

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/random"
)

// Context is passed to every Handler and provides access to the chain state,
// the current block, the triggering transaction, the caller and the
// randomness source.
type Context struct {
	State core.State
	Block *core.Block
	Tx    *core.Transaction
	Rand  random.Source

	// Caller is tx.From, or a system address inside a PrivilegedCall.
	Caller string
	// Value is the native currency attached to this call, already in escrow.
	Value uint64

	guard   *Guard
	pending *[]events.Event
	depth   int
}

// Now returns the block timestamp in unix seconds.
func (c *Context) Now() int64 {
	return c.Block.Header.Unix()
}

// Params returns the current parameters.
func (c *Context) Params() (*core.Params, error) {
	return c.State.GetParams()
}

// Emit queues an event. Queued events are delivered only if the transaction
// commits.
func (c *Context) Emit(typ events.EventType, data map[string]any) {
	*c.pending = append(*c.pending, events.Event{
		Type:        typ,
		TxID:        c.Tx.ID,
		BlockHeight: c.Block.Header.Height,
		Data:        data,
	})
}

// Decode unmarshals payload into v, reporting malformed input as a validation error.
func Decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decode payload: %v", core.ErrValidation, err)
	}
	return nil
}

// Try runs fn under a nested snapshot. If fn fails, its state changes and
// queued events are discarded and the error is returned; the caller's own
// changes are kept.
func (c *Context) Try(fn func() error) error {
	snapID, err := c.State.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	mark := len(*c.pending)
	if err := fn(); err != nil {
		if revertErr := c.State.RevertToSnapshot(snapID); revertErr != nil {
			return fmt.Errorf("revert nested snapshot: %w (revert: %v)", err, revertErr)
		}
		*c.pending = (*c.pending)[:mark]
		return err
	}
	return nil
}

// Draw returns a pseudo-random value in [0, n). Every draw consumes the
// global randomness nonce, so two draws in one call never share an input.
func (c *Context) Draw(seed []byte, n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: empty draw range", core.ErrValidation)
	}
	g, err := c.State.GetGlobals()
	if err != nil {
		return 0, err
	}
	g.RandNonce++
	if err := c.State.SetGlobals(g); err != nil {
		return 0, err
	}
	v := c.Rand.Draw(random.Input{
		PrevHash:  c.Block.Header.PrevHash,
		Timestamp: c.Block.Header.Timestamp,
		Caller:    c.Caller,
		Nonce:     g.RandNonce,
		Seed:      seed,
	}, n)
	return v % n, nil
}

// DrawRange returns a pseudo-random value in [lo, hi].
func (c *Context) DrawRange(seed []byte, lo, hi uint64) (uint64, error) {
	v, err := c.Draw(seed, hi-lo+1)
	if err != nil {
		return 0, err
	}
	return lo + v, nil
}

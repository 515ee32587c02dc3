package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/config"
	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/storage"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/wallet"

	_ "github.com/tolelom/arcadechain/vm/modules/all"
)

// ChainID is the chain id every Chain signs with.
const ChainID = "test-chain"

// GenesisTime is the unix time of the first block a Chain executes in.
const GenesisTime int64 = 1_700_000_000

// Chain drives the executor directly, one transaction per block, with a
// controllable clock and scripted randomness.
type Chain struct {
	t       *testing.T
	State   *storage.StateDB
	Emitter *events.Emitter
	Exec    *vm.Executor
	Rand    *ScriptedRandom
	Owner   *wallet.Wallet

	now    int64
	height int64

	mu     sync.Mutex
	events []events.Event
}

// NewChain applies the default genesis with a fresh owner key.
func NewChain(t *testing.T) *Chain {
	return NewChainWithParams(t, core.DefaultParams())
}

// NewChainWithParams applies genesis with params; an empty owner is replaced
// by a fresh key.
func NewChainWithParams(t *testing.T, params *core.Params) *Chain {
	t.Helper()
	owner, err := wallet.Generate()
	require.NoError(t, err)

	c := &Chain{
		t:       t,
		State:   NewStateDB(),
		Emitter: events.NewEmitter(),
		Rand:    &ScriptedRandom{},
		Owner:   owner,
		now:     GenesisTime,
	}
	require.NoError(t, config.ApplyGenesis(&config.GenesisConfig{ChainID: ChainID, Params: params}, c.State, owner.PubKey()))
	require.NoError(t, c.State.Commit())
	c.Emitter.SubscribeAll(func(ev events.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, ev)
	})
	c.Exec = vm.NewExecutor(c.State, c.Emitter, vm.WithRandomness(c.Rand))
	return c
}

// Now returns the current chain time in unix seconds.
func (c *Chain) Now() int64 { return c.now }

// Advance moves the chain clock forward.
func (c *Chain) Advance(secs int64) { c.now += secs }

// NewAccount creates a funded account. Tokens are added to the total supply.
func (c *Chain) NewAccount(tokens, native uint64) *wallet.Wallet {
	c.t.Helper()
	w, err := wallet.Generate()
	require.NoError(c.t, err)
	require.NoError(c.t, c.State.SetAccount(&core.Account{Address: w.PubKey(), Balance: native, Tokens: tokens}))
	g, err := c.State.GetGlobals()
	require.NoError(c.t, err)
	g.TotalSupply += tokens
	require.NoError(c.t, c.State.SetGlobals(g))
	return w
}

// Fund credits an existing account.
func (c *Chain) Fund(addr string, tokens, native uint64) {
	c.t.Helper()
	acc := c.Account(addr)
	acc.Tokens += tokens
	acc.Balance += native
	require.NoError(c.t, c.State.SetAccount(acc))
	g, err := c.State.GetGlobals()
	require.NoError(c.t, err)
	g.TotalSupply += tokens
	require.NoError(c.t, c.State.SetGlobals(g))
}

// Account returns the current state of addr.
func (c *Chain) Account(addr string) *core.Account {
	c.t.Helper()
	acc, err := c.State.GetAccount(addr)
	require.NoError(c.t, err)
	return acc
}

// Params returns the current parameters.
func (c *Chain) Params() *core.Params {
	c.t.Helper()
	p, err := c.State.GetParams()
	require.NoError(c.t, err)
	return p
}

// Globals returns the current chain-wide counters.
func (c *Chain) Globals() *core.Globals {
	c.t.Helper()
	g, err := c.State.GetGlobals()
	require.NoError(c.t, err)
	return g
}

// Block returns a block at the current chain time.
func (c *Chain) Block() *core.Block {
	c.height++
	b := core.NewBlock(c.height, "prev", c.Owner.PubKey(), nil)
	b.Header.Timestamp = c.now * int64(time.Second)
	return b
}

// Tx signs a transaction from w with its current nonce and no fee.
func (c *Chain) Tx(w *wallet.Wallet, typ core.TxType, value uint64, payload any) *core.Transaction {
	c.t.Helper()
	tx, err := w.NewTx(ChainID, typ, c.Account(w.PubKey()).Nonce, 0, value, payload)
	require.NoError(c.t, err)
	return tx
}

// Send executes one transaction from w in its own block.
func (c *Chain) Send(w *wallet.Wallet, typ core.TxType, value uint64, payload any) error {
	c.t.Helper()
	tx := c.Tx(w, typ, value, payload)
	block := c.Block()
	block.Transactions = []*core.Transaction{tx}
	return c.Exec.ExecuteTx(block, tx)
}

// MustSend is Send that fails the test on error.
func (c *Chain) MustSend(w *wallet.Wallet, typ core.TxType, value uint64, payload any) {
	c.t.Helper()
	require.NoError(c.t, c.Send(w, typ, value, payload))
}

// Events returns the delivered events of type typ, or all when typ is empty.
func (c *Chain) Events(typ events.EventType) []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.Event
	for _, ev := range c.events {
		if typ == "" || ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Payload marshals v for handlers invoked outside a transaction.
func Payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

package rpc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/indexer"
	"github.com/tolelom/arcadechain/internal/testutil"
	"github.com/tolelom/arcadechain/rpc"
	"github.com/tolelom/arcadechain/wallet"
)

type fixture struct {
	chain   *testutil.Chain
	mempool *core.Mempool
	handler *rpc.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := testutil.NewChain(t)
	idx, err := indexer.New(testutil.NewMemDB(), c.Emitter)
	require.NoError(t, err)
	mp := core.NewMempool()
	bc := core.NewBlockchain(testutil.NewBlockStore())
	return &fixture{chain: c, mempool: mp, handler: rpc.NewHandler(bc, mp, c.State, idx, testutil.ChainID)}
}

func (f *fixture) call(t *testing.T, method string, params any) rpc.Response {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return f.handler.Dispatch(rpc.Request{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
}

func TestGetBlockHeight(t *testing.T) {
	f := newFixture(t)
	resp := f.call(t, "getBlockHeight", struct{}{})
	require.Nil(t, resp.Error)
	// Dispatch is called directly, so the result keeps its Go type.
	assert.Equal(t, int64(0), resp.Result)

	resp = f.call(t, "getBlock", struct{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeNotFound, resp.Error.Code)
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)
	w := f.chain.NewAccount(250, 40)

	resp := f.call(t, "getBalance", map[string]string{"address": w.PubKey()})
	require.Nil(t, resp.Error)
	got, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint64(250), got["tokens"])
	assert.Equal(t, uint64(40), got["balance"])

	resp = f.call(t, "getBalance", map[string]string{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidParams, resp.Error.Code)
}

func TestGetPoolAndParams(t *testing.T) {
	f := newFixture(t)
	f.chain.NewAccount(100, 0)

	resp := f.call(t, "getPool", struct{}{})
	require.Nil(t, resp.Error)
	assert.Equal(t, uint64(100), resp.Result.(map[string]any)["total_supply"])

	resp = f.call(t, "getParams", struct{}{})
	require.Nil(t, resp.Error)
	assert.Equal(t, f.chain.Owner.PubKey(), resp.Result.(*core.Params).Owner)
}

func TestLookupsNotFound(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		method string
		params any
	}{
		{"getSession", map[string]string{"id": "missing"}},
		{"getNFT", core.NFTRef{CollectionID: "none", TokenID: 1}},
		{"getListing", map[string]uint64{"id": 3}},
		{"getAuction", map[string]uint64{"id": 3}},
		{"getProposal", map[string]uint64{"id": 3}},
		{"getTimelockOperation", map[string]string{"id": "abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			resp := f.call(t, tc.method, tc.params)
			require.NotNil(t, resp.Error)
			assert.Equal(t, rpc.CodeNotFound, resp.Error.Code)
		})
	}
}

func TestGameQueries(t *testing.T) {
	f := newFixture(t)
	player := f.chain.NewAccount(1000, 0)
	f.chain.MustSend(player, core.TxCreateSession, 0, core.CreateSessionPayload{GameType: core.GameCoinFlip, BetAmount: 100})

	resp := f.call(t, "getSessionsByPlayer", map[string]string{"player": player.PubKey()})
	require.Nil(t, resp.Error)
	ids := resp.Result.([]string)
	require.Len(t, ids, 1)

	resp = f.call(t, "getSession", map[string]string{"id": ids[0]})
	require.Nil(t, resp.Error)
	assert.Equal(t, player.PubKey(), resp.Result.(*core.Session).Player)

	resp = f.call(t, "getLeaderboard", map[string]int{"game_type": 42})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidParams, resp.Error.Code)
}

func TestSendTx(t *testing.T) {
	f := newFixture(t)
	w, err := wallet.Generate()
	require.NoError(t, err)

	tx, err := w.Transfer(testutil.ChainID, "bob", 1, 0, 0)
	require.NoError(t, err)
	tx.ID = "client-chosen"
	resp := f.call(t, "sendTx", tx)
	require.Nil(t, resp.Error)
	assert.Equal(t, tx.Hash(), resp.Result.(map[string]string)["tx_id"])
	assert.Equal(t, 1, f.mempool.Size())

	resp = f.call(t, "sendTx", tx)
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeConflict, resp.Error.Code)

	forged := *tx
	forged.Fee = 7
	resp = f.call(t, "sendTx", &forged)
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeRejected, resp.Error.Code)

	foreign, err := w.Transfer("other-chain", "bob", 1, 0, 0)
	require.NoError(t, err)
	resp = f.call(t, "sendTx", foreign)
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidParams, resp.Error.Code)

	resp = f.call(t, "getMempoolSize", struct{}{})
	assert.Equal(t, 1, resp.Result)
}

func TestMethodNotFound(t *testing.T) {
	f := newFixture(t)
	resp := f.call(t, "nonExistentMethod", struct{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeMethodNotFound, resp.Error.Code)
}

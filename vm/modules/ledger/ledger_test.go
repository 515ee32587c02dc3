package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/internal/testutil"
)

func TestTokenTransfer(t *testing.T) {
	c := testutil.NewChain(t)
	a := c.NewAccount(500, 0)
	b := c.NewAccount(0, 0)

	c.MustSend(a, core.TxTokenTransfer, 0, core.TokenTransferPayload{To: b.PubKey(), Amount: 200})

	assert.Equal(t, uint64(300), c.Account(a.PubKey()).Tokens)
	assert.Equal(t, uint64(200), c.Account(b.PubKey()).Tokens)
	assert.Equal(t, uint64(500), c.Globals().TotalSupply)
	assert.Len(t, c.Events(events.EventTokenTransfer), 1)
}

func TestTokenBurn(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(500, 0)

	c.MustSend(w, core.TxTokenBurn, 0, core.TokenBurnPayload{Amount: 120})
	assert.Equal(t, uint64(380), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, uint64(380), c.Globals().TotalSupply)
	burned := c.Events(events.EventTokenBurned)
	require.Len(t, burned, 1)
	assert.Equal(t, w.PubKey(), burned[0].Data["from"])

	assert.ErrorIs(t, c.Send(w, core.TxTokenBurn, 0, core.TokenBurnPayload{Amount: 381}), core.ErrInsufficientFunds)
	assert.ErrorIs(t, c.Send(w, core.TxTokenBurn, 0, core.TokenBurnPayload{}), core.ErrValidation)
	assert.Equal(t, uint64(380), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, uint64(380), c.Globals().TotalSupply)
}

func TestTransferRejections(t *testing.T) {
	c := testutil.NewChain(t)
	a := c.NewAccount(100, 100)
	b := c.NewAccount(0, 0)

	cases := []struct {
		name string
		typ  core.TxType
		to   string
		amt  uint64
		want error
	}{
		{"zero amount", core.TxTokenTransfer, b.PubKey(), 0, core.ErrValidation},
		{"empty recipient", core.TxTokenTransfer, "", 1, core.ErrValidation},
		{"escrow recipient", core.TxTransfer, core.EscrowAddress, 1, core.ErrValidation},
		{"too many tokens", core.TxTokenTransfer, b.PubKey(), 101, core.ErrInsufficientFunds},
		{"too much native", core.TxTransfer, b.PubKey(), 101, core.ErrInsufficientFunds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Send(a, tc.typ, 0, core.TransferPayload{To: tc.to, Amount: tc.amt})
			assert.ErrorIs(t, err, tc.want)
		})
	}
	acc := c.Account(a.PubKey())
	assert.Equal(t, uint64(100), acc.Tokens)
	assert.Equal(t, uint64(100), acc.Balance)
}

func TestMintRespectsSupplyCap(t *testing.T) {
	params := core.DefaultParams()
	params.MaxSupply = 1000
	c := testutil.NewChainWithParams(t, params)
	w := c.NewAccount(900, 0)

	err := c.Send(c.Owner, core.TxAdminMint, 0, core.AdminMintPayload{To: w.PubKey(), Amount: 101})
	require.ErrorIs(t, err, core.ErrOverflow)
	assert.Equal(t, uint64(900), c.Globals().TotalSupply)

	c.MustSend(c.Owner, core.TxAdminMint, 0, core.AdminMintPayload{To: w.PubKey(), Amount: 100})
	assert.Equal(t, uint64(1000), c.Globals().TotalSupply)
	assert.Equal(t, uint64(1000), c.Account(w.PubKey()).Tokens)
	assert.Len(t, c.Events(events.EventTokenMinted), 1)
}

func TestMintRequiresAdmin(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(0, 0)
	err := c.Send(w, core.TxAdminMint, 0, core.AdminMintPayload{To: w.PubKey(), Amount: 1})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

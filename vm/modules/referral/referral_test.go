package referral_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/internal/testutil"
)

func TestSetReferrerOnce(t *testing.T) {
	c := testutil.NewChain(t)
	a := c.NewAccount(0, 0)
	b := c.NewAccount(0, 0)
	d := c.NewAccount(0, 0)

	assert.ErrorIs(t, c.Send(a, core.TxSetReferrer, 0, core.SetReferrerPayload{Referrer: a.PubKey()}), core.ErrValidation)
	assert.ErrorIs(t, c.Send(a, core.TxSetReferrer, 0, core.SetReferrerPayload{Referrer: core.TreasuryAddress}), core.ErrValidation)
	assert.ErrorIs(t, c.Send(a, core.TxSetReferrer, 0, core.SetReferrerPayload{}), core.ErrValidation)

	c.MustSend(a, core.TxSetReferrer, 0, core.SetReferrerPayload{Referrer: b.PubKey()})
	assert.Equal(t, b.PubKey(), c.Account(a.PubKey()).Referrer)

	err := c.Send(a, core.TxSetReferrer, 0, core.SetReferrerPayload{Referrer: d.PubKey()})
	assert.ErrorIs(t, err, core.ErrStateConflict)
	assert.Equal(t, b.PubKey(), c.Account(a.PubKey()).Referrer)
}

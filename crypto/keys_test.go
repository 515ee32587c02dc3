package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	sig := priv.Sign([]byte("hello arcade"))
	require.NoError(t, pub.Verify([]byte("hello arcade"), sig))
	assert.ErrorIs(t, pub.Verify([]byte("tampered"), sig), ErrInvalidSignature)
	assert.ErrorIs(t, pub.Verify([]byte("hello arcade"), "zz"), ErrInvalidSignature)
}

func TestKeyHexRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	gotPub, err := PubKeyFromHex(pub.Hex())
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)

	gotPriv, err := PrivKeyFromHex(priv.Hex())
	require.NoError(t, err)
	assert.Equal(t, pub.Hex(), gotPriv.Public().Hex())

	_, err = PubKeyFromHex("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = PubKeyFromHex("not hex")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDigests(t *testing.T) {
	// Well-known Keccak-256 of the empty input.
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", Keccak256Hex())
	assert.Len(t, Hash([]byte("x")), 64)
	assert.Equal(t, Hash([]byte("x")), Hash([]byte("x")))
}

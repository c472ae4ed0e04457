package drmcrypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// secp256k1 group order N.
const curveOrderHex = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"

func TestGenerateKeypair(t *testing.T) {
	t.Parallel()
	priv, pub, err := drmcrypto.GenerateKeypair()
	require.NoError(t, err)
	assert.Len(t, priv, drmcrypto.PrivateKeySize)
	assert.Len(t, pub, drmcrypto.CompressedPubKeySize)
	assert.Contains(t, []byte{0x02, 0x03}, pub[0])

	derived, err := drmcrypto.PublicKeyFromPrivate(priv)
	require.NoError(t, err)
	assert.Equal(t, pub, derived)
}

func TestPrivateKeyFromScalar(t *testing.T) {
	t.Parallel()
	order, err := drmcrypto.HexToBytes(curveOrderHex)
	require.NoError(t, err)

	orderMinusOne := bytes.Clone(order)
	orderMinusOne[31]--

	one := make([]byte, 32)
	one[31] = 1

	tests := []struct {
		name    string
		scalar  []byte
		wantErr bool
	}{
		{"zero", make([]byte, 32), true},
		{"one", one, false},
		{"order minus one", orderMinusOne, false},
		{"order", order, true},
		{"all ff", bytes.Repeat([]byte{0xff}, 32), true},
		{"short", []byte{1, 2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, err := drmcrypto.PrivateKeyFromScalar(tt.scalar)
			if tt.wantErr {
				require.ErrorIs(t, err, drmcrypto.ErrInvalidScalar)
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, key)
		})
	}
}

func TestPublicKeyFromPrivate_Generator(t *testing.T) {
	t.Parallel()
	one := make([]byte, 32)
	one[31] = 1

	pub, err := drmcrypto.PublicKeyFromPrivate(one)
	require.NoError(t, err)
	assert.Equal(t,
		"0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		drmcrypto.BytesToHex(pub))
}

func TestHexToBytes(t *testing.T) {
	t.Parallel()

	b, err := drmcrypto.HexToBytes("0xdeadBEEF")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	b, err = drmcrypto.HexToBytes("")
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = drmcrypto.HexToBytes("abc")
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = drmcrypto.HexToBytes("zz")
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	assert.Equal(t, "00ff", drmcrypto.BytesToHex([]byte{0x00, 0xff}))
}

func TestSHA256(t *testing.T) {
	t.Parallel()
	sum := drmcrypto.SHA256([]byte("abc"))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		drmcrypto.BytesToHex(sum[:]))
}

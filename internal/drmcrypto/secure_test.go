package drmcrypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/drachma/internal/drmcrypto"
)

func TestSecureBytes_Creation(t *testing.T) {
	t.Parallel()
	sb, err := drmcrypto.NewSecureBytes(32)
	require.NoError(t, err)
	defer sb.Destroy()

	assert.NotNil(t, sb.Bytes())
	assert.Len(t, sb.Bytes(), 32)
	assert.Equal(t, 32, sb.Len())
}

func TestSecureBytes_Destroy(t *testing.T) {
	t.Parallel()
	sb, err := drmcrypto.NewSecureBytes(32)
	require.NoError(t, err)

	data := sb.Bytes()
	for i := range data {
		data[i] = byte(i + 1)
	}

	sb.Destroy()

	// The backing array is zeroed, not just dropped.
	for _, b := range data {
		assert.Equal(t, byte(0), b)
	}
	assert.Nil(t, sb.Bytes())
	assert.False(t, sb.IsLocked())

	// Should not panic on double destroy
	sb.Destroy()
	assert.Equal(t, 0, sb.Len())
}

func TestSecureBytes_FromSlice(t *testing.T) {
	t.Parallel()
	original := []byte("secret key material")
	sb, err := drmcrypto.SecureBytesFromSlice(original)
	require.NoError(t, err)
	defer sb.Destroy()

	assert.Equal(t, original, sb.Bytes())

	// Modifying the copy leaves the source intact.
	sb.Bytes()[0] = 'X'
	assert.Equal(t, byte('s'), original[0])
}

func TestZeroBytes(t *testing.T) {
	t.Parallel()
	b := []byte{1, 2, 3, 4}
	drmcrypto.ZeroBytes(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	assert.NotPanics(t, func() { drmcrypto.ZeroBytes(nil) })
}

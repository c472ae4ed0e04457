package drmcrypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// PrivateKeySize is the size of a secp256k1 scalar in bytes.
	PrivateKeySize = 32

	// CompressedPubKeySize is the size of a compressed secp256k1 point.
	CompressedPubKeySize = 33
)

// ErrInvalidScalar is returned when key material is zero or not below the
// curve order.
var ErrInvalidScalar = errors.New("scalar is zero or exceeds curve order")

// GenerateKeypair creates a random secp256k1 keypair.
// The public key is returned in 33-byte compressed form.
func GenerateKeypair() (priv, pub []byte, err error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generating private key: %w", err)
	}
	defer key.Zero()

	return key.Serialize(), key.PubKey().SerializeCompressed(), nil
}

// ValidScalar reports whether b is a 32-byte value in [1, N-1].
func ValidScalar(b []byte) bool {
	if len(b) != PrivateKeySize {
		return false
	}
	var s secp256k1.ModNScalar
	overflow := s.SetByteSlice(b)
	valid := !overflow && !s.IsZero()
	s.Zero()
	return valid
}

// PrivateKeyFromScalar builds a private key from a 32-byte scalar.
// Zero and values >= N are rejected rather than reduced.
func PrivateKeyFromScalar(b []byte) (*secp256k1.PrivateKey, error) {
	if !ValidScalar(b) {
		return nil, ErrInvalidScalar
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}

// PublicKeyFromPrivate returns the compressed public key for a scalar.
func PublicKeyFromPrivate(b []byte) ([]byte, error) {
	key, err := PrivateKeyFromScalar(b)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.PubKey().SerializeCompressed(), nil
}

// ParsePublicKey parses a 33-byte compressed or 65-byte uncompressed key.
func ParsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return pub, nil
}

// ZeroBytes overwrites a byte slice with zeros.
func ZeroBytes(b []byte) {
	Zero(b)
}

package drmcrypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// SchnorrSignatureSize is the size of a serialized BIP340 signature.
const SchnorrSignatureSize = schnorr.SignatureSize

// ErrInvalidDigest is returned when a message to sign is not 32 bytes.
var ErrInvalidDigest = errors.New("message digest must be 32 bytes")

// SchnorrSign produces a 64-byte BIP340 signature over a 32-byte digest.
// The nonce is derived deterministically, so repeated calls with the same
// key and digest return identical signatures.
func SchnorrSign(digest, priv []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	key, err := PrivateKeyFromScalar(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	sig, err := schnorr.Sign(key, digest)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// SchnorrVerify checks a BIP340 signature. pub may be a 32-byte x-only key
// or a 33-byte compressed key. Malformed inputs verify as false.
func SchnorrVerify(sig, digest, pub []byte) bool {
	if len(digest) != 32 || len(sig) != SchnorrSignatureSize {
		return false
	}

	xOnly := pub
	switch len(pub) {
	case 32:
	case CompressedPubKeySize:
		xOnly = pub[1:]
	default:
		return false
	}

	pubKey, err := schnorr.ParsePubKey(xOnly)
	if err != nil {
		return false
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pubKey)
}

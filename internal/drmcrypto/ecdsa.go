package drmcrypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ECDSASign signs a 32-byte digest with RFC6979 nonces and returns the
// DER-encoded signature.
func ECDSASign(digest, priv []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	key, err := PrivateKeyFromScalar(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	return ecdsa.Sign(key, digest).Serialize(), nil
}

// ECDSAVerify checks a DER-encoded signature against a serialized public key.
func ECDSAVerify(sig, digest, pub []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pubKey)
}

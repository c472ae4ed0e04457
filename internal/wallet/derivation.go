package wallet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

const (
	// AddressPrefix starts every Drachma address.
	AddressPrefix = "drm"

	// addressHexLen is the number of hex characters after the prefix.
	addressHexLen = 40

	// MinSeedLength is the number of seed bytes the derivation reads.
	MinSeedLength = 32

	// maxResample bounds the counter byte appended on rejected scalars.
	maxResample = 255
)

var (
	// ErrSeedTooShort indicates fewer than MinSeedLength seed bytes.
	ErrSeedTooShort = drmerr.WithDetails(drmerr.ErrMalformedInput, map[string]string{
		"reason": "seed must be at least 32 bytes",
	})

	// errNoValidScalar is unreachable in practice: each attempt is
	// rejected with probability below 2^-127.
	errNoValidScalar = errors.New("no valid scalar after resampling")

	addressRegex = regexp.MustCompile(`^drm[0-9a-f]{40}$`)
)

// DerivationPath returns the BIP44-style label for an account index.
// It is informational only; derivation does not walk a BIP32 tree.
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/0'/0'/0/%d", index)
}

// DeriveAccount derives the account at index from a BIP39 seed.
//
// The private key is sha256(seed[0:32] || be32(index)). When that value is
// zero or not below the curve order, a counter byte is appended and the
// hash is retried. The returned private key must be zeroed by the caller.
func DeriveAccount(seed []byte, index uint32) (*Account, []byte, error) {
	priv, err := DerivePrivateKey(seed, index)
	if err != nil {
		return nil, nil, err
	}

	pub, err := drmcrypto.PublicKeyFromPrivate(priv)
	if err != nil {
		ZeroBytes(priv)
		return nil, nil, err
	}

	return &Account{
		Address:        AddressFromPublicKey(pub),
		PublicKey:      drmcrypto.BytesToHex(pub),
		DerivationPath: DerivationPath(index),
		Index:          index,
	}, priv, nil
}

// DerivePrivateKey returns only the 32-byte scalar for index.
func DerivePrivateKey(seed []byte, index uint32) ([]byte, error) {
	return derivePrivateKeyWith(drmcrypto.SHA256, seed, index)
}

// derivePrivateKeyWith runs the derivation over the given hash so the
// resampling path can be driven with digests SHA-256 never produces.
func derivePrivateKeyWith(hash func([]byte) [32]byte, seed []byte, index uint32) ([]byte, error) {
	if len(seed) < MinSeedLength {
		return nil, ErrSeedTooShort
	}

	buf := make([]byte, MinSeedLength+4, MinSeedLength+5)
	defer ZeroBytes(buf[:cap(buf)])
	copy(buf, seed[:MinSeedLength])
	binary.BigEndian.PutUint32(buf[MinSeedLength:], index)

	for counter := 0; counter <= maxResample; counter++ {
		input := buf
		if counter > 0 {
			input = append(buf, byte(counter)) //nolint:gocritic // reuses spare capacity
		}
		material := hash(input)
		if drmcrypto.ValidScalar(material[:]) {
			priv := make([]byte, drmcrypto.PrivateKeySize)
			copy(priv, material[:])
			ZeroBytes(material[:])
			return priv, nil
		}
		ZeroBytes(material[:])
	}
	return nil, errNoValidScalar
}

// AddressFromPublicKey builds "drm" + the first 40 hex chars of sha256(pub).
func AddressFromPublicKey(pub []byte) string {
	digest := drmcrypto.SHA256(pub)
	return AddressPrefix + drmcrypto.BytesToHex(digest[:])[:addressHexLen]
}

// ValidateAddress reports whether s is a well-formed Drachma address.
func ValidateAddress(s string) bool {
	return addressRegex.MatchString(s)
}

// ZeroBytes securely clears a byte slice by overwriting with zeros.
func ZeroBytes(data []byte) {
	drmcrypto.ZeroBytes(data)
}

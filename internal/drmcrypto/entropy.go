package drmcrypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Entropy is the randomness source for new key material. Tests replace it
// with a deterministic reader.
//
//nolint:gochecknoglobals // swappable source for tests
var Entropy io.Reader = rand.Reader

// ErrEntropySize is returned for entropy lengths BIP39 does not define.
var ErrEntropySize = errors.New("entropy must be 128 to 256 bits in steps of 32")

// NewEntropy reads bits of fresh entropy into locked memory. bits must be a
// multiple of 32 between 128 and 256. The caller must Destroy the result.
func NewEntropy(bits int) (*SecureBytes, error) {
	if bits < 128 || bits > 256 || bits%32 != 0 {
		return nil, ErrEntropySize
	}

	sb, err := NewSecureBytes(bits / 8)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(Entropy, sb.Bytes()); err != nil {
		sb.Destroy()
		return nil, fmt.Errorf("reading entropy: %w", err)
	}
	return sb, nil
}

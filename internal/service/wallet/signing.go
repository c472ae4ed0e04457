package wallet

import (
	"bytes"
	"context"

	"github.com/mrz1836/drachma/internal/canonical"
	"github.com/mrz1836/drachma/internal/drmcrypto"
	"github.com/mrz1836/drachma/internal/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// SignTransaction signs sha256(canonical(payload)) with the current
// account's key and returns the 64-byte Schnorr signature as hex.
//
// The private key is read from Tier A for this call only and zeroed before
// returning. A missing or mismatched key fails with ErrNoAccountAvailable;
// when the cause is a storage fault the error also matches
// ErrStorageUnavailable.
func (m *Manager) SignTransaction(ctx context.Context, payload any) (sigHex string, err error) {
	start := m.clock.Now()
	defer func() { m.metrics.RecordSign(m.clock.Now().Sub(start), err) }()

	digest, err := canonical.Digest(payload)
	if err != nil {
		return "", drmerr.Wrap(err, "serializing transaction payload")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, priv, err := m.signingKey(ctx)
	if err != nil {
		return "", err
	}
	defer wallet.ZeroBytes(priv)

	sig, err := drmcrypto.SchnorrSign(digest[:], priv)
	if err != nil {
		return "", drmerr.WithCause(drmerr.ErrNoAccountAvailable, err)
	}

	m.logger.Debug("wallet: signed payload with account %d", acct.Index)
	return drmcrypto.BytesToHex(sig), nil
}

// signingKey loads the current account and its private key, checking that
// the key still matches the recorded public key. Callers hold a lock and
// must zero the returned key.
func (m *Manager) signingKey(ctx context.Context) (*wallet.Account, []byte, error) {
	rec, err := m.loadRecord(ctx)
	if err != nil {
		return nil, nil, drmerr.WithCause(drmerr.ErrNoAccountAvailable, err)
	}
	if rec == nil {
		return nil, nil, drmerr.WithSuggestion(drmerr.ErrNoAccountAvailable,
			"create a wallet with: drachma wallet generate")
	}
	acct, err := rec.Current()
	if err != nil {
		return nil, nil, err
	}

	priv, found, err := m.store.Get(ctx, acct.PrivateKeyRef)
	if err != nil {
		return nil, nil, drmerr.WithCause(drmerr.ErrNoAccountAvailable, err)
	}
	if !found {
		return nil, nil, drmerr.WithDetails(drmerr.ErrNoAccountAvailable, map[string]string{
			"account": acct.Address,
			"reason":  "private key missing from secure storage",
		})
	}

	pub, err := drmcrypto.PublicKeyFromPrivate(priv)
	if err != nil {
		wallet.ZeroBytes(priv)
		return nil, nil, drmerr.WithCause(drmerr.ErrNoAccountAvailable, err)
	}
	want, err := drmcrypto.HexToBytes(acct.PublicKey)
	if err != nil || !bytes.Equal(pub, want) {
		wallet.ZeroBytes(priv)
		return nil, nil, drmerr.WithDetails(drmerr.ErrNoAccountAvailable, map[string]string{
			"account": acct.Address,
			"reason":  "stored private key does not match the account public key",
		})
	}

	return acct, priv, nil
}

// VerifySignature checks a hex Schnorr signature over the canonical form of
// payload. pubKeyHex may be a 32-byte x-only or 33-byte compressed key.
// Malformed hex fails with ErrMalformedInput; a wrong signature returns
// false without error.
func VerifySignature(sigHex string, payload any, pubKeyHex string) (bool, error) {
	sig, err := drmcrypto.HexToBytes(sigHex)
	if err != nil {
		return false, drmerr.Wrap(err, "decoding signature")
	}
	pub, err := drmcrypto.HexToBytes(pubKeyHex)
	if err != nil {
		return false, drmerr.Wrap(err, "decoding public key")
	}
	digest, err := canonical.Digest(payload)
	if err != nil {
		return false, drmerr.Wrap(err, "serializing transaction payload")
	}
	return drmcrypto.SchnorrVerify(sig, digest[:], pub), nil
}

// hexToSeed decodes a raw seed, rejecting seeds the derivation cannot use.
func hexToSeed(seedHex string) ([]byte, error) {
	seed, err := drmcrypto.HexToBytes(seedHex)
	if err != nil {
		return nil, drmerr.Wrap(err, "decoding seed")
	}
	if len(seed) < wallet.MinSeedLength {
		wallet.ZeroBytes(seed)
		return nil, wallet.ErrSeedTooShort
	}
	return seed, nil
}

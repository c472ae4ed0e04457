package secretstore

import (
	"context"
	"fmt"

	"filippo.io/age"

	"github.com/mrz1836/drachma/internal/drmcrypto"
)

// IdentityName is the Tier A entry holding the Tier B encryption identity.
const IdentityName = "store/identity"

// LoadOrCreateIdentity returns the X25519 identity that seals Tier B values.
// It is read from the Tier A backend, or generated and saved on first use.
func LoadOrCreateIdentity(ctx context.Context, high Backend) (*age.X25519Identity, error) {
	raw, found, err := high.Get(ctx, IdentityName)
	if err != nil {
		return nil, fmt.Errorf("loading store identity: %w", err)
	}
	if found {
		defer drmcrypto.ZeroBytes(raw)
		return drmcrypto.ParseIdentity(string(raw))
	}

	identity, err := drmcrypto.GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := high.Put(ctx, IdentityName, []byte(identity.String())); err != nil {
		return nil, fmt.Errorf("saving store identity: %w", err)
	}
	return identity, nil
}

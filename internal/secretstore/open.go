package secretstore

import (
	"context"
	"fmt"

	"github.com/mrz1836/drachma/internal/metrics"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Options configures Open.
type Options struct {
	// Backend is "keyring" (OS keychain plus bbolt file) or "memory".
	Backend string
	// KeyringService is the keychain service name for Tier A.
	KeyringService string
	// StoreFile is the Tier B bbolt path.
	StoreFile string
	// Keyring overrides the OS keychain. Used by tests.
	Keyring Keyring
	Logger  LogWriter
	// Metrics receives tier counters. Defaults to metrics.Global.
	Metrics *metrics.Metrics
}

// Open builds the process-wide Store. The caller must Close it at shutdown.
//
// The Tier B identity is kept under a separate keychain service so that
// ClearAll never removes the key needed to read values written afterwards.
func Open(ctx context.Context, opts Options) (*Tiered, error) {
	var tierOpts []Option
	if opts.Logger != nil {
		tierOpts = append(tierOpts, WithLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		tierOpts = append(tierOpts, WithMetrics(opts.Metrics))
	}

	switch opts.Backend {
	case BackendMemory:
		return New(NewMemoryBackend(), NewMemoryBackend(), tierOpts...), nil
	case BackendKeyring, "":
	default:
		return nil, drmerr.WithDetails(drmerr.ErrConfigInvalid, map[string]string{
			"secrets.backend": opts.Backend,
		})
	}

	service := opts.KeyringService
	if service == "" {
		service = DefaultKeyringService
	}
	if opts.StoreFile == "" {
		return nil, drmerr.Wrap(drmerr.ErrConfigInvalid, "secrets.store_file is required")
	}

	high := NewKeyringBackend(service, opts.Keyring)
	identity, err := LoadOrCreateIdentity(ctx, NewKeyringBackend(service+".identity", opts.Keyring))
	if err != nil {
		err = drmerr.WithCause(drmerr.ErrStorageUnavailable, err)
		if opts.Keyring == nil && !ProbeKeyring() {
			err = drmerr.WithSuggestion(err,
				"the OS keychain is not reachable; run with --ephemeral or set secrets.backend to memory")
		}
		return nil, err
	}

	low, err := OpenBoltBackend(opts.StoreFile, identity)
	if err != nil {
		return nil, drmerr.WithCause(drmerr.ErrStorageUnavailable, fmt.Errorf("tier b: %w", err))
	}

	return New(high, low, tierOpts...), nil
}

package wallet

import (
	"context"
	"strconv"

	"github.com/mrz1836/drachma/internal/backup"
	"github.com/mrz1836/drachma/internal/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// maxBackupAccounts bounds how many accounts a backup may ask to re-derive.
const maxBackupAccounts = 1 << 16

// ExportBackup seals the wallet's mnemonic, passphrase and account layout
// under password. Wallets imported from a raw seed cannot be exported.
func (m *Manager) ExportBackup(ctx context.Context, password string) (*backup.Backup, error) {
	if password == "" {
		return nil, drmerr.WithSuggestion(drmerr.ErrInvalidInput, "a backup password is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.loadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.MnemonicRef == nil {
		return nil, drmerr.WithSuggestion(drmerr.ErrNoWalletFound,
			"only wallets created or restored from a mnemonic can be backed up")
	}

	mnemonic, found, err := m.store.Get(ctx, *rec.MnemonicRef)
	if err != nil {
		return nil, drmerr.Wrap(err, "reading mnemonic")
	}
	if !found {
		return nil, drmerr.Wrap(drmerr.ErrNoWalletFound, "mnemonic missing from secure storage")
	}
	defer wallet.ZeroBytes(mnemonic)

	data := &backup.WalletData{
		Mnemonic:            string(mnemonic),
		AccountCount:        rec.NextIndex(),
		CurrentAccountIndex: rec.CurrentAccountIndex,
	}
	defer data.Zero()

	if rec.PassphraseRef != nil {
		passphrase, found, err := m.store.Get(ctx, *rec.PassphraseRef)
		if err != nil {
			return nil, drmerr.Wrap(err, "reading passphrase")
		}
		if !found {
			return nil, drmerr.Wrap(drmerr.ErrNoWalletFound, "passphrase missing from secure storage")
		}
		data.Passphrase = string(passphrase)
		wallet.ZeroBytes(passphrase)
	}

	manifest := backup.NewManifest(rec.ID, m.clock.Now(), rec.NextIndex(), rec.Accounts[0].Address)
	b, err := backup.Seal(data, manifest, password)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("wallet: exported backup of wallet %s (%d accounts)", rec.ID, manifest.AccountCount)
	return b, nil
}

// RestoreBackup replaces the wallet with the one sealed in b, re-deriving
// the same number of accounts and selecting the same current account.
func (m *Manager) RestoreBackup(ctx context.Context, b *backup.Backup, password string) (acct *wallet.Account, err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	data, err := backup.Open(b, password)
	if err != nil {
		return nil, err
	}
	defer data.Zero()

	if data.AccountCount > maxBackupAccounts {
		return nil, drmerr.WithDetails(drmerr.ErrMalformedInput, map[string]string{
			"account_count": strconv.FormatUint(uint64(data.AccountCount), 10),
		})
	}
	if err = wallet.ValidateMnemonic(data.Mnemonic); err != nil {
		return nil, drmerr.Wrap(err, "backup contains an invalid mnemonic")
	}

	seed, err := wallet.MnemonicToSeed(data.Mnemonic, data.Passphrase)
	if err != nil {
		return nil, err
	}
	defer wallet.ZeroBytes(seed)

	// Check the manifest before install replaces the current wallet.
	if b.Manifest.FirstAddress != "" {
		first, priv, derr := wallet.DeriveAccount(seed, 0)
		if derr != nil {
			return nil, derr
		}
		wallet.ZeroBytes(priv)
		if first.Address != b.Manifest.FirstAddress {
			return nil, drmerr.WithDetails(drmerr.ErrBackupCorrupted, map[string]string{
				"manifest_first_address": b.Manifest.FirstAddress,
				"derived_first_address":  first.Address,
			})
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.install(ctx, &source{
		mnemonic:     wallet.NormalizeMnemonicInput(data.Mnemonic),
		passphrase:   data.Passphrase,
		seed:         seed,
		accountCount: data.AccountCount,
		current:      data.CurrentAccountIndex,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("wallet: restored wallet %s from backup (%d accounts)", rec.ID, len(rec.Accounts))
	current, err := rec.Current()
	if err != nil {
		return nil, err
	}
	return cloneAccount(current), nil
}

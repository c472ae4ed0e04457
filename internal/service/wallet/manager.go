package wallet

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/mrz1836/drachma/internal/metrics"
	"github.com/mrz1836/drachma/internal/secretstore"
	"github.com/mrz1836/drachma/internal/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// Manager owns the singleton wallet record and every secret it references.
//
// Mutating operations take the write lock; signing and queries take the
// read lock, so they may run concurrently with each other but never with a
// record update.
type Manager struct {
	mu      sync.RWMutex
	store   secretstore.Store
	logger  LogWriter
	clock   clock.Clock
	metrics *metrics.Metrics
	newID   func() string
}

// Config contains dependencies for creating a wallet manager.
type Config struct {
	// Store is the process-scoped tiered secret store. Required.
	Store secretstore.Store

	Logger  LogWriter
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// NewManager creates a new wallet manager instance.
func NewManager(cfg *Config) *Manager {
	m := &Manager{
		store:   cfg.Store,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
		metrics: cfg.Metrics,
		newID:   uuid.NewString,
	}
	if m.logger == nil {
		m.logger = nopLogger{}
	}
	if m.clock == nil {
		m.clock = clock.NewDefaultClock()
	}
	if m.metrics == nil {
		m.metrics = metrics.Global
	}
	return m
}

// GenerateWallet creates a wallet from a fresh 24-word mnemonic and returns
// the mnemonic for one-time display. Any existing wallet is replaced.
func (m *Manager) GenerateWallet(ctx context.Context, passphrase string) (mnemonic string, err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	mnemonic, err = wallet.GenerateMnemonic(wallet.DefaultWordCount)
	if err != nil {
		return "", drmerr.Wrap(err, "generating mnemonic")
	}

	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return "", err
	}
	defer wallet.ZeroBytes(seed)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.install(ctx, &source{
		mnemonic:     mnemonic,
		passphrase:   passphrase,
		seed:         seed,
		accountCount: 1,
	})
	if err != nil {
		return "", err
	}

	m.logger.Debug("wallet: generated wallet %s", rec.ID)
	return mnemonic, nil
}

// RestoreWallet replaces the wallet with one recovered from mnemonic.
// An invalid mnemonic fails with ErrInvalidMnemonic, carrying typo
// suggestions when available, and leaves the existing wallet untouched.
func (m *Manager) RestoreWallet(ctx context.Context, mnemonic, passphrase string) (err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	if err = wallet.ValidateMnemonic(mnemonic); err != nil {
		return err
	}
	mnemonic = wallet.NormalizeMnemonicInput(mnemonic)

	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return err
	}
	defer wallet.ZeroBytes(seed)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.install(ctx, &source{
		mnemonic:     mnemonic,
		passphrase:   passphrase,
		seed:         seed,
		accountCount: 1,
	})
	if err != nil {
		return err
	}

	m.logger.Debug("wallet: restored wallet %s", rec.ID)
	return nil
}

// ImportSeed replaces the wallet with one built from a raw hex seed. No
// mnemonic is kept, so CreateAccount and ExportBackup are unavailable for
// the imported wallet.
func (m *Manager) ImportSeed(ctx context.Context, seedHex string) (acct *wallet.Account, err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	seed, err := hexToSeed(seedHex)
	if err != nil {
		return nil, err
	}
	defer wallet.ZeroBytes(seed)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.install(ctx, &source{seed: seed, accountCount: 1})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("wallet: imported raw seed as wallet %s", rec.ID)
	return cloneAccount(&rec.Accounts[0]), nil
}

// CreateAccount derives the next sequential account and appends it. The
// current account does not change.
func (m *Manager) CreateAccount(ctx context.Context) (acct *wallet.Account, err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.loadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, drmerr.WithSuggestion(drmerr.ErrNoWalletFound,
			"create one with: drachma wallet generate")
	}
	if rec.MnemonicRef == nil {
		return nil, drmerr.WithSuggestion(drmerr.ErrNoWalletFound,
			"this wallet was imported from a raw seed and has no mnemonic to derive new accounts from")
	}

	seed, err := m.recoverSeed(ctx, rec)
	if err != nil {
		return nil, err
	}
	defer wallet.ZeroBytes(seed)

	index := rec.NextIndex()
	next, priv, err := wallet.DeriveAccount(seed, index)
	if err != nil {
		return nil, drmerr.Wrap(err, "deriving account %d", index)
	}
	defer wallet.ZeroBytes(priv)

	next.PrivateKeyRef = wallet.PrivateKeyHandle(rec.ID, index)
	if err = m.store.Put(ctx, next.PrivateKeyRef, priv); err != nil {
		return nil, drmerr.Wrap(err, "storing account %d key", index)
	}

	rec.Accounts = append(rec.Accounts, *next)
	if err = m.saveRecord(ctx, rec); err != nil {
		m.wipe(ctx, []secretstore.Handle{next.PrivateKeyRef})
		return nil, err
	}

	m.logger.Debug("wallet: created account %d (%s)", index, next.Address)
	return cloneAccount(next), nil
}

// SwitchAccount selects the account used for signing.
func (m *Manager) SwitchAccount(ctx context.Context, index uint32) (err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.loadRecord(ctx)
	if err != nil {
		return err
	}

	count := 0
	if rec != nil {
		count = len(rec.Accounts)
	}
	if int(index) >= count {
		return drmerr.WithDetails(drmerr.ErrInvalidAccountIndex, map[string]string{
			"index":    strconv.FormatUint(uint64(index), 10),
			"accounts": strconv.Itoa(count),
		})
	}
	if rec.CurrentAccountIndex == index {
		return nil
	}

	rec.CurrentAccountIndex = index
	if err = m.saveRecord(ctx, rec); err != nil {
		return err
	}

	m.logger.Debug("wallet: switched to account %d", index)
	return nil
}

// GetCurrentAccount returns the selected account, or nil when no wallet
// exists.
func (m *Manager) GetCurrentAccount(ctx context.Context) (*wallet.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.loadRecord(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	acct, err := rec.Current()
	if err != nil {
		return nil, nil //nolint:nilerr // an empty wallet has no current account
	}
	return cloneAccount(acct), nil
}

// ListAccounts returns every account in index order.
func (m *Manager) ListAccounts(ctx context.Context) (*AccountList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.loadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, drmerr.ErrNoWalletFound
	}

	accounts := make([]wallet.Account, len(rec.Accounts))
	copy(accounts, rec.Accounts)
	return &AccountList{Accounts: accounts, Current: rec.CurrentAccountIndex}, nil
}

// Info summarizes the stored wallet.
func (m *Manager) Info(ctx context.Context) (*Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.loadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, drmerr.ErrNoWalletFound
	}

	info := &Info{
		ID:                  rec.ID,
		CreatedAt:           rec.CreatedAt,
		AccountCount:        len(rec.Accounts),
		CurrentAccountIndex: rec.CurrentAccountIndex,
		HasMnemonic:         rec.MnemonicRef != nil,
		HasPassphrase:       rec.PassphraseRef != nil,
	}
	if acct, err := rec.Current(); err == nil {
		info.CurrentAddress = acct.Address
	}
	return info, nil
}

// DeleteWallet removes the record and every Tier A secret. Deleting when
// no wallet exists is a no-op.
func (m *Manager) DeleteWallet(ctx context.Context) (err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	// A malformed record is still deleted; its handles are simply unknown.
	rec, err := m.loadRecord(ctx)
	if err != nil && !drmerr.Is(err, drmerr.ErrMalformedInput) {
		return err
	}

	// ClearAll drops the record before the secrets and also removes
	// orphans left by an interrupted install.
	if err = m.store.ClearAll(ctx); err != nil {
		return drmerr.Wrap(err, "deleting wallet")
	}
	if rec != nil {
		m.wipe(ctx, rec.Handles())
		m.logger.Debug("wallet: deleted wallet %s", rec.ID)
	}
	return nil
}

// HasWallet reports whether a wallet record exists.
func (m *Manager) HasWallet(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Has(ctx, wallet.RecordHandle())
}

// install writes a complete new wallet and commits it by writing the
// record. Secrets go under a fresh id so the previous wallet stays intact
// until the commit; its secrets are wiped afterwards. Callers hold the
// write lock.
func (m *Manager) install(ctx context.Context, src *source) (*wallet.Record, error) {
	prev, err := m.loadRecord(ctx)
	if err != nil {
		if !drmerr.Is(err, drmerr.ErrMalformedInput) {
			return nil, err
		}
		m.logger.Error("wallet: replacing unreadable wallet record: %v", err)
	}

	rec := &wallet.Record{
		ID:        m.newID(),
		Accounts:  make([]wallet.Account, 0, src.accountCount),
		CreatedAt: m.clock.Now().UTC(),
		Version:   wallet.RecordVersion,
	}

	var written []secretstore.Handle
	put := func(h secretstore.Handle, value []byte) error {
		if err := m.store.Put(ctx, h, value); err != nil {
			return err
		}
		written = append(written, h)
		return nil
	}
	abort := func(err error) (*wallet.Record, error) {
		m.wipe(ctx, written)
		return nil, err
	}

	if src.mnemonic != "" {
		h := wallet.MnemonicHandle(rec.ID)
		if err = put(h, []byte(src.mnemonic)); err != nil {
			return abort(drmerr.Wrap(err, "storing mnemonic"))
		}
		rec.MnemonicRef = &h
	}
	if src.passphrase != "" {
		h := wallet.PassphraseHandle(rec.ID)
		if err = put(h, []byte(src.passphrase)); err != nil {
			return abort(drmerr.Wrap(err, "storing passphrase"))
		}
		rec.PassphraseRef = &h
	}

	for i := range src.accountCount {
		acct, priv, derr := wallet.DeriveAccount(src.seed, i)
		if derr != nil {
			return abort(drmerr.Wrap(derr, "deriving account %d", i))
		}
		acct.PrivateKeyRef = wallet.PrivateKeyHandle(rec.ID, i)
		perr := put(acct.PrivateKeyRef, priv)
		wallet.ZeroBytes(priv)
		if perr != nil {
			return abort(drmerr.Wrap(perr, "storing account %d key", i))
		}
		rec.Accounts = append(rec.Accounts, *acct)
	}

	if src.current < uint32(len(rec.Accounts)) { //nolint:gosec // bounded by accountCount
		rec.CurrentAccountIndex = src.current
	}

	if err = m.saveRecord(ctx, rec); err != nil {
		return abort(err)
	}

	if prev != nil {
		m.wipe(ctx, prev.Handles())
	}
	return rec, nil
}

// recoverSeed rebuilds the BIP39 seed from the stored mnemonic and
// passphrase. The caller must zero the result.
func (m *Manager) recoverSeed(ctx context.Context, rec *wallet.Record) ([]byte, error) {
	mnemonic, found, err := m.store.Get(ctx, *rec.MnemonicRef)
	if err != nil {
		return nil, drmerr.Wrap(err, "reading mnemonic")
	}
	if !found {
		return nil, drmerr.WithSuggestion(drmerr.ErrNoWalletFound,
			"the wallet mnemonic is missing from secure storage; restore the wallet from its backup")
	}
	defer wallet.ZeroBytes(mnemonic)

	var passphrase []byte
	if rec.PassphraseRef != nil {
		passphrase, found, err = m.store.Get(ctx, *rec.PassphraseRef)
		if err != nil {
			return nil, drmerr.Wrap(err, "reading passphrase")
		}
		if !found {
			return nil, drmerr.WithSuggestion(drmerr.ErrNoWalletFound,
				"the wallet passphrase is missing from secure storage; restore the wallet from its backup")
		}
		defer wallet.ZeroBytes(passphrase)
	}

	return wallet.MnemonicToSeed(string(mnemonic), string(passphrase))
}

// loadRecord returns the stored record, or nil when none exists.
func (m *Manager) loadRecord(ctx context.Context) (*wallet.Record, error) {
	data, found, err := m.store.Get(ctx, wallet.RecordHandle())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var rec wallet.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, drmerr.Wrap(drmerr.WithCause(drmerr.ErrMalformedInput, err), "decoding wallet record")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (m *Manager) saveRecord(ctx context.Context, rec *wallet.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return drmerr.Wrap(err, "encoding wallet record")
	}
	if err := m.store.Put(ctx, wallet.RecordHandle(), data); err != nil {
		return drmerr.Wrap(err, "writing wallet record")
	}
	return nil
}

// wipe deletes handles on a best-effort basis. Failures leave orphans that
// the next DeleteWallet removes, so they are logged rather than returned.
func (m *Manager) wipe(ctx context.Context, handles []secretstore.Handle) {
	for _, h := range handles {
		if err := m.store.Delete(ctx, h); err != nil {
			m.logger.Error("wallet: leaving orphaned secret %s: %v", h.Name, err)
		}
	}
}

func cloneAccount(a *wallet.Account) *wallet.Account {
	c := *a
	return &c
}

package wallet

import (
	"fmt"
	"time"

	"github.com/mrz1836/drachma/internal/secretstore"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

const (
	// RecordVersion is the current wallet record format version.
	RecordVersion = 1

	// RecordKey is the fixed Tier B key holding the wallet record.
	RecordKey = "drachma_wallet_data"
)

// Account is one derived keypair. Only public data and a handle to the
// private key are kept here.
type Account struct {
	// Address is "drm" followed by 40 hex chars.
	Address string `json:"address"`

	// PublicKey is the 33-byte compressed key in hex.
	PublicKey string `json:"public_key"`

	// PrivateKeyRef points at the Tier A entry holding the private key.
	PrivateKeyRef secretstore.Handle `json:"private_key_ref"`

	// DerivationPath is a descriptive BIP44-style label.
	DerivationPath string `json:"derivation_path"`

	// Index is the account position, contiguous from 0.
	Index uint32 `json:"index"`
}

// Record is the persisted wallet. It holds handles and public data only,
// so it lives in Tier B under RecordKey.
type Record struct {
	// ID namespaces every Tier A entry belonging to this wallet.
	ID string `json:"id"`

	// MnemonicRef is absent for wallets imported from a raw seed.
	MnemonicRef *secretstore.Handle `json:"mnemonic_ref,omitempty"`

	// PassphraseRef is set when the BIP39 passphrase is non-empty.
	PassphraseRef *secretstore.Handle `json:"passphrase_ref,omitempty"`

	Accounts            []Account `json:"accounts"`
	CurrentAccountIndex uint32    `json:"current_account_index"`
	CreatedAt           time.Time `json:"created_at"`
	Version             int       `json:"version"`
}

// RecordHandle is the Tier B handle for the wallet record.
func RecordHandle() secretstore.Handle {
	return secretstore.Plain(RecordKey)
}

// MnemonicHandle is the Tier A handle for a wallet's mnemonic.
func MnemonicHandle(walletID string) secretstore.Handle {
	return secretstore.Secret("wallet/" + walletID + "/mnemonic")
}

// PassphraseHandle is the Tier A handle for a wallet's BIP39 passphrase.
func PassphraseHandle(walletID string) secretstore.Handle {
	return secretstore.Secret("wallet/" + walletID + "/passphrase")
}

// PrivateKeyHandle is the Tier A handle for one account's private key.
func PrivateKeyHandle(walletID string, index uint32) secretstore.Handle {
	return secretstore.Secret(fmt.Sprintf("wallet/%s/account/%d/private_key", walletID, index))
}

// Current returns the selected account.
func (r *Record) Current() (*Account, error) {
	if int(r.CurrentAccountIndex) >= len(r.Accounts) {
		return nil, drmerr.ErrNoAccountAvailable
	}
	return &r.Accounts[r.CurrentAccountIndex], nil
}

// NextIndex is the index the next created account will receive.
func (r *Record) NextIndex() uint32 {
	return uint32(len(r.Accounts)) //nolint:gosec // account count is bounded by uint32 indices
}

// Handles lists every Tier A handle the record references.
func (r *Record) Handles() []secretstore.Handle {
	handles := make([]secretstore.Handle, 0, len(r.Accounts)+2)
	if r.MnemonicRef != nil {
		handles = append(handles, *r.MnemonicRef)
	}
	if r.PassphraseRef != nil {
		handles = append(handles, *r.PassphraseRef)
	}
	for _, a := range r.Accounts {
		handles = append(handles, a.PrivateKeyRef)
	}
	return handles
}

// Validate checks the record invariants: a non-empty account list with
// indices contiguous from 0, a current index inside it, and every secret
// handle pointing at Tier A.
func (r *Record) Validate() error {
	if r.ID == "" {
		return drmerr.Wrap(drmerr.ErrMalformedInput, "wallet record has no id")
	}
	if len(r.Accounts) == 0 {
		return drmerr.Wrap(drmerr.ErrMalformedInput, "wallet record has no accounts")
	}
	if r.MnemonicRef != nil {
		if err := checkSecretRef("mnemonic", *r.MnemonicRef); err != nil {
			return err
		}
	}
	if r.PassphraseRef != nil {
		if err := checkSecretRef("passphrase", *r.PassphraseRef); err != nil {
			return err
		}
	}
	for i, a := range r.Accounts {
		if a.Index != uint32(i) { //nolint:gosec // i is bounded by len(Accounts)
			return drmerr.Wrap(drmerr.ErrMalformedInput, "account %d has index %d", i, a.Index)
		}
		if !ValidateAddress(a.Address) {
			return drmerr.Wrap(drmerr.ErrMalformedInput, "account %d has a malformed address", i)
		}
		if err := checkSecretRef(fmt.Sprintf("account %d private key", i), a.PrivateKeyRef); err != nil {
			return err
		}
	}
	if int(r.CurrentAccountIndex) >= len(r.Accounts) {
		return drmerr.Wrap(drmerr.ErrMalformedInput, "current account %d out of range", r.CurrentAccountIndex)
	}
	return nil
}

// checkSecretRef rejects a handle that would read a secret from Tier B.
func checkSecretRef(what string, h secretstore.Handle) error {
	if h.Name == "" {
		return drmerr.Wrap(drmerr.ErrMalformedInput, "%s handle has no name", what)
	}
	if h.Sensitivity != secretstore.High {
		return drmerr.Wrap(drmerr.ErrMalformedInput, "%s handle has %s sensitivity", what, h.Sensitivity)
	}
	return nil
}

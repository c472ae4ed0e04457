package wallet

import (
	"time"

	"github.com/mrz1836/drachma/internal/wallet"
)

// AccountList is the ordered account list with the selected index.
type AccountList struct {
	Accounts []wallet.Account `json:"accounts"`
	Current  uint32           `json:"current_account_index"`
}

// Info summarizes the stored wallet without touching Tier A.
type Info struct {
	ID                  string    `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	AccountCount        int       `json:"account_count"`
	CurrentAccountIndex uint32    `json:"current_account_index"`
	CurrentAddress      string    `json:"current_address"`

	// HasMnemonic is false for wallets imported from a raw seed; such
	// wallets cannot create accounts or be exported.
	HasMnemonic   bool `json:"has_mnemonic"`
	HasPassphrase bool `json:"has_passphrase"`
}

// source is the key material a new wallet is installed from.
// seed is always set; mnemonic is empty for raw-seed imports.
type source struct {
	mnemonic     string
	passphrase   string
	seed         []byte
	accountCount uint32
	current      uint32
}

// Package backup seals a wallet's recovery material into a password
// protected file and opens it again.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

var (
	// ErrBackupCorrupted indicates the backup checksum failed.
	ErrBackupCorrupted = drmerr.ErrBackupCorrupted

	// ErrDecryptionFailed indicates a wrong password or damaged ciphertext.
	ErrDecryptionFailed = drmerr.ErrDecryptionFailed

	// ErrInvalidFormat indicates the backup is not a Drachma backup.
	ErrInvalidFormat = drmerr.WithSuggestion(drmerr.ErrMalformedInput, "the file is not a Drachma backup")
)

const (
	// BackupVersion is the current backup format version.
	BackupVersion = 1

	// BackupExtension is the suggested file extension for backups.
	BackupExtension = ".drachma"

	// BackupFilePermissions is the permission mode for backup files.
	BackupFilePermissions = 0o600

	// encryptionMethod names the cipher in the manifest.
	encryptionMethod = "age-scrypt"
)

// Backup is the on-disk backup document.
type Backup struct {
	// Version is the backup format version.
	Version int `json:"version"`

	// Manifest describes the contents without revealing secrets.
	Manifest Manifest `json:"manifest"`

	// EncryptedData is the age-encrypted WalletData.
	EncryptedData []byte `json:"encrypted_data"`

	// Checksum is the SHA256 hash of EncryptedData.
	Checksum string `json:"checksum"`
}

// Manifest contains public metadata about the backup.
type Manifest struct {
	// WalletID is the id of the wallet at export time.
	WalletID string `json:"wallet_id"`

	// CreatedAt is when the backup was created.
	CreatedAt time.Time `json:"created_at"`

	// AccountCount is the number of accounts to re-derive on restore.
	AccountCount uint32 `json:"account_count"`

	// FirstAddress lets a user recognize the wallet before decrypting.
	FirstAddress string `json:"first_address"`

	// EncryptionMethod describes the encryption used.
	EncryptionMethod string `json:"encryption_method"`
}

// WalletData is the secret payload inside a backup.
type WalletData struct {
	Mnemonic            string `json:"mnemonic"`
	Passphrase          string `json:"passphrase,omitempty"`
	AccountCount        uint32 `json:"account_count"`
	CurrentAccountIndex uint32 `json:"current_account_index"`
}

// Zero clears the secret fields. Go strings are immutable, so this only
// drops the references.
func (d *WalletData) Zero() {
	d.Mnemonic = ""
	d.Passphrase = ""
}

// NewManifest creates a backup manifest.
func NewManifest(walletID string, createdAt time.Time, accountCount uint32, firstAddress string) Manifest {
	return Manifest{
		WalletID:         walletID,
		CreatedAt:        createdAt.UTC(),
		AccountCount:     accountCount,
		FirstAddress:     firstAddress,
		EncryptionMethod: encryptionMethod,
	}
}

// CalculateChecksum computes the SHA256 checksum of data.
func CalculateChecksum(data []byte) string {
	sum := drmcrypto.SHA256(data)
	return drmcrypto.BytesToHex(sum[:])
}

// VerifyChecksum verifies that data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) error {
	if actual := CalculateChecksum(data); actual != expected {
		return drmerr.WithDetails(ErrBackupCorrupted, map[string]string{
			"expected": expected,
			"actual":   actual,
		})
	}
	return nil
}

// Validate checks the backup for consistency.
func (b *Backup) Validate() error {
	if b.Version != BackupVersion {
		return drmerr.Wrap(ErrInvalidFormat, "unsupported version %d", b.Version)
	}
	if b.Manifest.AccountCount == 0 {
		return drmerr.Wrap(ErrInvalidFormat, "manifest has no accounts")
	}
	if len(b.EncryptedData) == 0 {
		return drmerr.Wrap(ErrInvalidFormat, "no encrypted data")
	}
	return VerifyChecksum(b.EncryptedData, b.Checksum)
}

// Seal encrypts data under password and returns the backup document.
func Seal(data *WalletData, manifest Manifest, password string) (*Backup, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("serializing backup data: %w", err)
	}
	defer drmcrypto.ZeroBytes(plaintext)

	encrypted, err := drmcrypto.Encrypt(plaintext, password)
	if err != nil {
		return nil, fmt.Errorf("encrypting backup: %w", err)
	}

	return &Backup{
		Version:       BackupVersion,
		Manifest:      manifest,
		EncryptedData: encrypted,
		Checksum:      CalculateChecksum(encrypted),
	}, nil
}

// Open validates b and decrypts its payload.
func Open(b *Backup, password string) (*WalletData, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	plaintext, err := drmcrypto.Decrypt(b.EncryptedData, password)
	if err != nil {
		return nil, drmerr.WithCause(ErrDecryptionFailed, err)
	}
	defer drmcrypto.ZeroBytes(plaintext)

	var data WalletData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, drmerr.WithCause(ErrInvalidFormat, err)
	}
	if data.AccountCount == 0 {
		data.AccountCount = 1
	}
	return &data, nil
}

// Marshal encodes a backup document as indented JSON.
func Marshal(b *Backup) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Parse decodes a backup document.
func Parse(raw []byte) (*Backup, error) {
	var b Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, drmerr.WithCause(ErrInvalidFormat, err)
	}
	return &b, nil
}

package backup

import (
	"errors"
	"fmt"
	"os"

	"github.com/mrz1836/drachma/internal/fileutil"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// MaxBackupSize bounds how much of a backup file is read.
const MaxBackupSize = 1 << 20

// ErrBackupNotFound indicates the backup file was not found.
var ErrBackupNotFound = drmerr.WithSuggestion(drmerr.ErrNotFound, "check the backup file path")

// WriteFile stores a backup at path atomically with owner-only permissions.
func WriteFile(path string, b *Backup) error {
	data, err := Marshal(b)
	if err != nil {
		return fmt.Errorf("serializing backup: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data, BackupFilePermissions); err != nil {
		return fmt.Errorf("writing backup file: %w", err)
	}
	return nil
}

// ReadFile loads and validates the backup at path without decrypting it.
func ReadFile(path string) (*Backup, error) {
	data, err := fileutil.ReadFileLimited(path, MaxBackupSize)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, drmerr.WithCause(ErrInvalidFormat, err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

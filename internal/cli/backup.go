package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/drachma/internal/backup"
	"github.com/mrz1836/drachma/internal/output"
	"github.com/mrz1836/drachma/internal/wallet"
)

// backupCmd is the parent command for backup operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage wallet backups",
	Long:  `Export and import password-encrypted wallet backups.`,
}

// backupExportCmd writes a backup file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export an encrypted wallet backup",
	Long: `Export the mnemonic, passphrase, and account count into a file
encrypted with a password of at least 8 characters.

The ".drachma" extension is added when the file name has none. Wallets
imported from a raw seed cannot be exported.

Example:
  drachma wallet backup export ~/wallet-backup`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupExport,
}

// backupImportCmd restores a wallet from a backup file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore the wallet from a backup",
	Long: `Restore the wallet from an encrypted backup file.

The same number of accounts is derived again and the previously selected
account is restored.

Example:
  drachma wallet backup import ~/wallet-backup.drachma`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupImport,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	walletCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)

	backupImportCmd.Flags().BoolVar(&walletForce, "force", false, "replace an existing wallet")
}

// backupResult is the JSON shape for backup commands.
type backupResult struct {
	Path     string          `json:"path"`
	Manifest backup.Manifest `json:"manifest"`
	Account  *wallet.Account `json:"account,omitempty"`
}

// backupPath adds the default extension when path has none.
func backupPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + backup.BackupExtension
	}
	return path
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	password, err := promptNewPasswordFn(cmd)
	if err != nil {
		return err
	}
	defer wallet.ZeroBytes(password)

	b, err := mgr.ExportBackup(ctx, string(password))
	if err != nil {
		return err
	}

	path := backupPath(args[0])
	if err := backup.WriteFile(path, b); err != nil {
		return err
	}
	logger.Debug("cli: wrote backup %s", path)

	return formatter.Result(backupResult{Path: path, Manifest: b.Manifest}, func(w io.Writer) error {
		output.Successf(w, "Backup written to %s", path)
		out(w, "Accounts:       %d\n", b.Manifest.AccountCount)
		out(w, "First address:  %s\n", b.Manifest.FirstAddress)
		out(w, "Checksum:       %s\n", b.Checksum)
		outln(w)
		outln(w, "Keep the password safe: the backup cannot be opened without it.")
		return nil
	})
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}
	if err := guardReplace(ctx, mgr); err != nil {
		return err
	}

	path := strings.TrimSpace(args[0])
	b, err := backup.ReadFile(path)
	if err != nil {
		return err
	}

	password, err := promptSecretFn(cmd, "Enter backup password: ")
	if err != nil {
		return err
	}
	defer wallet.ZeroBytes(password)

	acct, err := mgr.RestoreBackup(ctx, b, string(password))
	if err != nil {
		return err
	}

	return formatter.Result(backupResult{Path: path, Manifest: b.Manifest, Account: acct}, func(w io.Writer) error {
		out(w, "Restored %d account(s) from %s\n", b.Manifest.AccountCount, path)
		displayAccount(w, acct)
		outln(w)
		output.Success(w, "Wallet restored from backup.")
		return nil
	})
}

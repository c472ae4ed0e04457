package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/drachma/internal/output"
	"github.com/mrz1836/drachma/internal/secretstore"
	svcwallet "github.com/mrz1836/drachma/internal/service/wallet"
	"github.com/mrz1836/drachma/internal/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// storeTimeout bounds a single command's secret store work. The OS
// keychain may block on an unlock dialog.
const storeTimeout = 2 * time.Minute

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...interface{}) {
	fmt.Fprintln(w, args...)
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// walletPassphrase indicates whether to prompt for a BIP39 passphrase.
	walletPassphrase bool
	// walletForce replaces an existing wallet or skips the delete prompt.
	walletForce bool
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the wallet",
	Long:  `Generate, restore, inspect, back up, and delete the wallet.`,
}

// walletGenerateCmd creates a new wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new wallet",
	Long: `Generate a new wallet from a fresh 24-word BIP39 mnemonic.

The mnemonic is shown once. Write it down: it is the only way to recover
the wallet. Account 0 is derived and selected.

Example:
  drachma wallet generate
  drachma wallet generate --passphrase
  drachma wallet generate --ephemeral`,
	Args: cobra.NoArgs,
	RunE: runWalletGenerate,
}

// walletRestoreCmd restores a wallet from a mnemonic.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a wallet from a mnemonic",
	Long: `Restore a wallet from a 12 to 24-word BIP39 mnemonic.

On a terminal the phrase is read with hidden input. Piped input may span
several lines (numbered and bulleted lists are accepted) and ends at a
blank line.

Example:
  drachma wallet restore
  drachma wallet restore --passphrase`,
	Args: cobra.NoArgs,
	RunE: runWalletRestore,
}

// walletImportSeedCmd imports a raw seed.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletImportSeedCmd = &cobra.Command{
	Use:   "import-seed <hex>",
	Short: "Import a wallet from a raw hex seed",
	Long: `Import a wallet from a raw hex seed of at least 32 bytes.

No mnemonic is kept for an imported seed, so further accounts cannot be
created and the wallet cannot be exported to a backup.

Example:
  drachma wallet import-seed 5eb00bbd...`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletImportSeed,
}

// walletStatusCmd shows wallet status.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show wallet status",
	Long: `Show whether a wallet exists and summarize it. No secrets are read.

Example:
  drachma wallet status
  drachma wallet status -o json`,
	Args: cobra.NoArgs,
	RunE: runWalletStatus,
}

// walletDeleteCmd deletes the wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the wallet and all its secrets",
	Long: `Delete the wallet record, the mnemonic, the passphrase, and every
private key. This cannot be undone without the recovery phrase or a backup.

Example:
  drachma wallet delete
  drachma wallet delete --force`,
	Args: cobra.NoArgs,
	RunE: runWalletDelete,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletGenerateCmd)
	walletCmd.AddCommand(walletRestoreCmd)
	walletCmd.AddCommand(walletImportSeedCmd)
	walletCmd.AddCommand(walletStatusCmd)
	walletCmd.AddCommand(walletDeleteCmd)

	walletGenerateCmd.Flags().BoolVar(&walletPassphrase, "passphrase", false, "protect the seed with a BIP39 passphrase")
	walletGenerateCmd.Flags().BoolVar(&walletForce, "force", false, "replace an existing wallet")
	walletRestoreCmd.Flags().BoolVar(&walletPassphrase, "passphrase", false, "prompt for the BIP39 passphrase")
	walletRestoreCmd.Flags().BoolVar(&walletForce, "force", false, "replace an existing wallet")
	walletImportSeedCmd.Flags().BoolVar(&walletForce, "force", false, "replace an existing wallet")
	walletDeleteCmd.Flags().BoolVar(&walletForce, "force", false, "skip the confirmation prompt")
}

// walletResult is the JSON shape for commands that install a wallet.
type walletResult struct {
	Mnemonic string          `json:"mnemonic,omitempty"`
	Account  *wallet.Account `json:"account"`
}

// guardReplace refuses to overwrite an existing wallet unless forced.
func guardReplace(ctx context.Context, mgr *svcwallet.Manager) error {
	exists, err := mgr.HasWallet(ctx)
	if err != nil {
		return err
	}
	if exists && !walletForce {
		return drmerr.WithSuggestion(
			drmerr.ErrInvalidInput,
			"a wallet already exists; use --force to replace it, or back it up first with: drachma wallet backup export <file>",
		)
	}
	return nil
}

func runWalletGenerate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}
	if err := guardReplace(ctx, mgr); err != nil {
		return err
	}

	var passphrase string
	if walletPassphrase {
		if passphrase, err = promptPassphraseFn(cmd, true); err != nil {
			return err
		}
	}

	mnemonic, err := mgr.GenerateWallet(ctx, passphrase)
	if err != nil {
		return err
	}
	acct, err := mgr.GetCurrentAccount(ctx)
	if err != nil {
		return err
	}

	return formatter.Result(walletResult{Mnemonic: mnemonic, Account: acct}, func(w io.Writer) error {
		displayMnemonic(w, mnemonic)
		displayAccount(w, acct)
		outln(w)
		if cfg.Secrets.Backend == secretstore.BackendMemory {
			output.Warn(cmd.ErrOrStderr(), "ephemeral store: nothing was saved")
			return nil
		}
		output.Success(w, "Wallet generated.")
		return nil
	})
}

func runWalletRestore(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}
	if err := guardReplace(ctx, mgr); err != nil {
		return err
	}

	mnemonic, err := promptMnemonicFn(cmd)
	if err != nil {
		return err
	}
	// Fail before asking for a passphrase.
	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		return err
	}

	var passphrase string
	if walletPassphrase {
		if passphrase, err = promptPassphraseFn(cmd, false); err != nil {
			return err
		}
	}

	if err := mgr.RestoreWallet(ctx, mnemonic, passphrase); err != nil {
		return err
	}
	acct, err := mgr.GetCurrentAccount(ctx)
	if err != nil {
		return err
	}

	return formatter.Result(walletResult{Account: acct}, func(w io.Writer) error {
		displayAccount(w, acct)
		outln(w)
		output.Success(w, "Wallet restored.")
		return nil
	})
}

func runWalletImportSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}
	if err := guardReplace(ctx, mgr); err != nil {
		return err
	}

	acct, err := mgr.ImportSeed(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}

	return formatter.Result(walletResult{Account: acct}, func(w io.Writer) error {
		displayAccount(w, acct)
		outln(w)
		output.Success(w, "Seed imported.")
		output.Warn(cmd.ErrOrStderr(), "no mnemonic is kept for a raw seed: new accounts and backups are unavailable")
		return nil
	})
}

// walletStatus is the JSON shape for wallet status.
type walletStatus struct {
	Exists  bool            `json:"exists"`
	Backend string          `json:"backend"`
	Wallet  *svcwallet.Info `json:"wallet,omitempty"`
}

func runWalletStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	info, err := mgr.Info(ctx)
	if err != nil && !drmerr.Is(err, drmerr.ErrNoWalletFound) {
		return err
	}

	status := walletStatus{Exists: info != nil, Backend: cfg.Secrets.Backend, Wallet: info}
	return formatter.Result(status, func(w io.Writer) error {
		if info == nil {
			outln(w, "No wallet found.")
			outln(w, "Create one with: drachma wallet generate")
			return nil
		}
		out(w, "Wallet:           %s\n", info.ID)
		out(w, "Created:          %s\n", info.CreatedAt.Format(time.RFC3339))
		out(w, "Accounts:         %d\n", info.AccountCount)
		out(w, "Current account:  %d (%s)\n", info.CurrentAccountIndex, info.CurrentAddress)
		out(w, "Mnemonic:         %s\n", yesNo(info.HasMnemonic))
		out(w, "Passphrase:       %s\n", yesNo(info.HasPassphrase))
		out(w, "Secret backend:   %s\n", cfg.Secrets.Backend)
		return nil
	})
}

func runWalletDelete(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	if !walletForce && !promptConfirmFn(cmd, "Delete the wallet and all of its keys?") {
		return drmerr.WithSuggestion(drmerr.ErrInvalidInput, "deletion canceled")
	}

	if err := mgr.DeleteWallet(ctx); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return output.FormatSuccess(formatter.Writer(), "wallet deleted", output.FormatJSON)
	}
	output.Success(formatter.Writer(), "Wallet deleted.")
	return nil
}

// displayMnemonic shows the mnemonic phrase with formatting.
func displayMnemonic(w io.Writer, mnemonic string) {
	outln(w)
	outln(w, "===================================================================")
	outln(w, "                    RECOVERY PHRASE")
	outln(w, "===================================================================")
	outln(w)
	outln(w, "Write down these words in order and store them securely.")
	outln(w, "This is the ONLY way to recover your wallet.")
	outln(w)

	for i, word := range strings.Fields(mnemonic) {
		out(w, "%2d. %s\n", i+1, word)
	}

	outln(w)
	outln(w, "===================================================================")
	outln(w)
}

// displayAccount shows one account's public data.
func displayAccount(w io.Writer, acct *wallet.Account) {
	if acct == nil {
		return
	}
	out(w, "Account:     %d\n", acct.Index)
	out(w, "Address:     %s\n", acct.Address)
	out(w, "Public key:  %s\n", acct.PublicKey)
	out(w, "Path:        %s\n", acct.DerivationPath)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

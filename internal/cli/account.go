package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/drachma/internal/output"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// accountQR renders the current address as a terminal QR code.
	accountQR bool
)

// accountCmd is the parent command for account operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage wallet accounts",
	Long:  `Create, list, and select the accounts derived from the wallet seed.`,
}

// accountCreateCmd derives the next account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Derive the next account",
	Long: `Derive the next sequential account from the stored mnemonic.
The current account does not change.

Example:
  drachma account create`,
	Args: cobra.NoArgs,
	RunE: runAccountCreate,
}

// accountListCmd lists accounts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Long: `List every account in index order. The current account is marked.

Example:
  drachma account list
  drachma account list -o json`,
	Args: cobra.NoArgs,
	RunE: runAccountList,
}

// accountSwitchCmd selects the current account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountSwitchCmd = &cobra.Command{
	Use:   "switch <index>",
	Short: "Select the current account",
	Long: `Select the account used for signing.

Example:
  drachma account switch 1`,
	Args: cobra.ExactArgs(1),
	RunE: runAccountSwitch,
}

// accountCurrentCmd shows the current account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current account",
	Long: `Show the account used for signing.

Example:
  drachma account current
  drachma account current --qr`,
	Args: cobra.NoArgs,
	RunE: runAccountCurrent,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountSwitchCmd)
	accountCmd.AddCommand(accountCurrentCmd)

	accountCurrentCmd.Flags().BoolVar(&accountQR, "qr", false, "display the address as a QR code")
}

func runAccountCreate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	acct, err := mgr.CreateAccount(ctx)
	if err != nil {
		return err
	}

	return formatter.Result(acct, func(w io.Writer) error {
		displayAccount(w, acct)
		outln(w)
		output.Successf(w, "Account %d created. Select it with: drachma account switch %d", acct.Index, acct.Index)
		return nil
	})
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	list, err := mgr.ListAccounts(ctx)
	if err != nil {
		return err
	}

	return formatter.Result(list, func(w io.Writer) error {
		table := output.NewTable("", "INDEX", "ADDRESS", "PATH")
		table.AlignRight(1)
		for _, acct := range list.Accounts {
			marker := ""
			if acct.Index == list.Current {
				marker = "*"
			}
			table.AddRow(marker, strconv.FormatUint(uint64(acct.Index), 10), acct.Address, acct.DerivationPath)
		}
		return table.Render(w)
	})
}

func runAccountSwitch(cmd *cobra.Command, args []string) error {
	index, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return drmerr.WithDetails(drmerr.ErrInvalidAccountIndex, map[string]string{"index": args[0]})
	}

	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	if err := mgr.SwitchAccount(ctx, uint32(index)); err != nil {
		return err
	}
	acct, err := mgr.GetCurrentAccount(ctx)
	if err != nil {
		return err
	}

	return formatter.Result(acct, func(w io.Writer) error {
		output.Successf(w, "Switched to account %d (%s)", acct.Index, acct.Address)
		return nil
	})
}

func runAccountCurrent(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	acct, err := mgr.GetCurrentAccount(ctx)
	if err != nil {
		return err
	}
	if acct == nil {
		return drmerr.WithSuggestion(drmerr.ErrNoWalletFound, "create a wallet with: drachma wallet generate")
	}

	return formatter.Result(acct, func(w io.Writer) error {
		displayAccount(w, acct)
		if accountQR {
			outln(w)
			output.WriteQR(w, acct.Address, output.DefaultQRConfig())
		}
		return nil
	})
}


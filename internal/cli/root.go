// Package cli implements the Drachma command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and released by cleanup once the command returns.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/drachma/internal/config"
	"github.com/mrz1836/drachma/internal/metrics"
	"github.com/mrz1836/drachma/internal/output"
	"github.com/mrz1836/drachma/internal/secretstore"
	svcwallet "github.com/mrz1836/drachma/internal/service/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// Version is the build version, set with -ldflags at release time.
var Version = "dev"

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	ephemeral    bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	// Opened on first use by walletManager
	store   *secretstore.Tiered
	manager *svcwallet.Manager

	// Line-oriented stdin shared by prompts within one run.
	stdinReader *bufio.Reader
	// stdinFd is the terminal descriptor for hidden input, or -1.
	stdinFd = -1

	// openStoreFn builds the secret store. Tests replace it to share a
	// store across runs.
	openStoreFn = openStore
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "drachma",
	Short: "A local key-management wallet core",
	Long: `Drachma manages a single HD wallet: BIP39 mnemonics, sequential
accounts, and Schnorr signatures over canonical transaction payloads.

Secrets are kept in the OS keychain. Public wallet data is kept in an
encrypted local store under the drachma home directory.

Example:
  drachma wallet generate
  drachma account create
  drachma tx sign payload.json`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
}

// Execute runs the root command against the process streams.
func Execute() error {
	return run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// run executes args and always releases global state, even when the
// command fails before its post-run hooks.
func run(ctx context.Context, args []string, in io.Reader, stdout, stderr io.Writer) error {
	defer cleanup()

	cfg, formatter = nil, nil
	stdinReader = bufio.NewReader(in)
	stdinFd = -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: Fd() fits in int
		stdinFd = int(f.Fd()) //nolint:gosec // G115: Fd() fits in int
	}

	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdinReader)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// Format and print error
		if formatter != nil {
			_ = output.FormatError(stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return drmerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.LoadOrDefault(config.Path(home))
	if err != nil {
		return err
	}
	cfg.Home = home

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if ephemeral {
		cfg.Secrets.Backend = secretstore.BackendMemory
	}
	if cfg.IsVerbose() && cfg.Logging.Level != "off" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize logger
	logLevel := config.ParseLogLevel(cfg.GetLoggingLevel())
	logger, err = config.NewRotatingLogger(logLevel, cfg.GetLoggingFile(), cfg.Logging.MaxSizeKB, cfg.Logging.MaxRolls)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.GetOutputFormat()), cmd.OutOrStdout())
	return nil
}

// openStore opens the configured secret store.
func openStore(ctx context.Context, c *config.Config, l *config.Logger) (*secretstore.Tiered, error) {
	return secretstore.Open(ctx, secretstore.Options{
		Backend:        c.Secrets.Backend,
		KeyringService: c.Secrets.KeyringService,
		StoreFile:      c.GetStoreFile(),
		Logger:         l,
		Metrics:        metrics.Global,
	})
}

// walletManager returns the process wallet manager, opening the secret
// store on first use. Commands that never touch the wallet skip this.
func walletManager(ctx context.Context) (*svcwallet.Manager, error) {
	if manager != nil {
		return manager, nil
	}

	s, err := openStoreFn(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store = s
	manager = svcwallet.NewManager(&svcwallet.Config{
		Store:   store,
		Logger:  logger,
		Metrics: metrics.Global,
	})
	logger.Debug("cli: opened %s secret store", cfg.Secrets.Backend)
	return manager, nil
}

// cleanup releases resources.
func cleanup() {
	if store != nil {
		if err := store.Close(); err != nil && logger != nil {
			logger.Error("cli: closing secret store: %v", err)
		}
	}
	store = nil
	manager = nil

	if logger != nil {
		snap := metrics.Global.Snapshot()
		logger.Debug("cli: metrics wallet_ops=%d/%d sign_ops=%d/%d sign_avg_ms=%.2f storage_failures=%d",
			snap.WalletOpsErrors, snap.WalletOpsTotal, snap.SignOpsErrors, snap.SignOpsTotal,
			metrics.Global.SignLatencyAvgMs(), snap.StorageFailures)
		_ = logger.Close()
	}
	logger = nil
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "drachma data directory (default: ~/.drachma)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep secrets in memory only; nothing is saved")
}

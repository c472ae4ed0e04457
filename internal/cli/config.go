package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/drachma/internal/config"
	"github.com/mrz1836/drachma/internal/output"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify Drachma configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.drachma/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.

Example:
  drachma config init
  drachma config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, after environment variable and
flag overrides.

Example:
  drachma config show
  drachma config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its dot-separated path.

Examples:
  drachma config get secrets.backend
  drachma config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its dot-separated path.
The configuration file is updated immediately.

Examples:
  drachma config set output.default_format json
  drachma config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

// configKey binds a dot path to a config field.
type configKey struct {
	get func(c *config.Config) string
	set func(c *config.Config, value string) error
}

// configKeys lists every settable path.
//
//nolint:gochecknoglobals // static lookup table
var configKeys = map[string]configKey{
	"home": {
		get: func(c *config.Config) string { return c.Home },
		set: func(c *config.Config, v string) error { c.Home = v; return nil },
	},
	"secrets.backend": {
		get: func(c *config.Config) string { return c.Secrets.Backend },
		set: func(c *config.Config, v string) error {
			return setChoice(&c.Secrets.Backend, "secrets.backend", v, "keyring", "memory")
		},
	},
	"secrets.keyring_service": {
		get: func(c *config.Config) string { return c.Secrets.KeyringService },
		set: func(c *config.Config, v string) error { c.Secrets.KeyringService = v; return nil },
	},
	"secrets.store_file": {
		get: func(c *config.Config) string { return c.Secrets.StoreFile },
		set: func(c *config.Config, v string) error { c.Secrets.StoreFile = v; return nil },
	},
	"output.default_format": {
		get: func(c *config.Config) string { return c.Output.DefaultFormat },
		set: func(c *config.Config, v string) error {
			return setChoice(&c.Output.DefaultFormat, "output.default_format", v, "text", "json", "auto")
		},
	},
	"output.color": {
		get: func(c *config.Config) string { return c.Output.Color },
		set: func(c *config.Config, v string) error {
			return setChoice(&c.Output.Color, "output.color", v, "auto", "always", "never")
		},
	},
	"output.verbose": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return invalidValue("output.verbose", v, "true or false")
			}
			c.Output.Verbose = b
			return nil
		},
	},
	"logging.level": {
		get: func(c *config.Config) string { return c.Logging.Level },
		set: func(c *config.Config, v string) error {
			return setChoice(&c.Logging.Level, "logging.level", v, "off", "error", "debug")
		},
	},
	"logging.file": {
		get: func(c *config.Config) string { return c.Logging.File },
		set: func(c *config.Config, v string) error { c.Logging.File = v; return nil },
	},
	"logging.max_size_kb": {
		get: func(c *config.Config) string { return strconv.FormatInt(c.Logging.MaxSizeKB, 10) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return invalidValue("logging.max_size_kb", v, "a non-negative integer")
			}
			c.Logging.MaxSizeKB = n
			return nil
		},
	},
	"logging.max_rolls": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Logging.MaxRolls) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return invalidValue("logging.max_rolls", v, "a non-negative integer")
			}
			c.Logging.MaxRolls = n
			return nil
		},
	},
}

func invalidValue(path, value, valid string) error {
	return drmerr.WithDetails(drmerr.ErrConfigInvalid, map[string]string{
		"key":   path,
		"value": value,
		"valid": valid,
	})
}

func setChoice(dst *string, path, value string, choices ...string) error {
	for _, c := range choices {
		if value == c {
			*dst = value
			return nil
		}
	}
	return invalidValue(path, value, strings.Join(choices, ", "))
}

func lookupConfigKey(path string) (configKey, error) {
	key, ok := configKeys[path]
	if !ok {
		return configKey{}, drmerr.WithDetails(drmerr.ErrUnknownConfigKey, map[string]string{"key": path})
	}
	return key, nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.GetHome())

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return drmerr.WithSuggestion(
			drmerr.ErrInvalidInput,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return output.FormatSuccess(w, "configuration initialized at "+configPath, output.FormatJSON)
	}
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - secrets.backend: keyring (OS keychain) or memory")
	outln(w, "  - output.default_format: Output format (text/json/auto)")
	outln(w, "  - logging.level: Log level (off/error/debug)")
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	return formatter.Result(cfg, func(w io.Writer) error {
		displayConfigText(w, cfg)
		return nil
	})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key, err := lookupConfigKey(args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), key.get(cfg))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]
	key, err := lookupConfigKey(path)
	if err != nil {
		return err
	}

	// Load the file rather than the effective config so that environment
	// overrides are not persisted.
	configPath := config.Path(cfg.GetHome())
	fileCfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if err := key.set(fileCfg, value); err != nil {
		return err
	}
	if err := fileCfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := config.Save(fileCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", path, value)
	return nil
}

// displayConfigText shows configuration in text format.
func displayConfigText(w io.Writer, c *config.Config) {
	outln(w, "Drachma Configuration")
	outln(w, "=====================")
	outln(w)
	out(w, "Home: %s\n", c.Home)
	outln(w)
	outln(w, "Secrets:")
	out(w, "  backend:         %s\n", c.Secrets.Backend)
	out(w, "  keyring_service: %s\n", c.Secrets.KeyringService)
	out(w, "  store_file:      %s\n", c.GetStoreFile())
	outln(w)
	outln(w, "Output:")
	out(w, "  default_format: %s\n", c.Output.DefaultFormat)
	out(w, "  color:          %s\n", c.Output.Color)
	out(w, "  verbose:        %t\n", c.Output.Verbose)
	outln(w)
	outln(w, "Logging:")
	out(w, "  level:       %s\n", c.Logging.Level)
	out(w, "  file:        %s\n", c.GetLoggingFile())
	out(w, "  max_size_kb: %d\n", c.Logging.MaxSizeKB)
	out(w, "  max_rolls:   %d\n", c.Logging.MaxRolls)
}

package config

// Default values shared with other packages.
const (
	DefaultSecretBackend = "keyring"
	DefaultStoreFile     = "store.db"
	DefaultLogMaxSizeKB  = 1024
	DefaultLogMaxRolls   = 3
	DefaultLogFile       = "drachma.log"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.drachma",
		Secrets: SecretsConfig{
			Backend:        DefaultSecretBackend,
			KeyringService: "drachma",
			StoreFile:      DefaultStoreFile,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:     "error",
			File:      DefaultLogFile,
			MaxSizeKB: DefaultLogMaxSizeKB,
			MaxRolls:  DefaultLogMaxRolls,
		},
	}
}

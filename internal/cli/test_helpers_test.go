package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/drachma/internal/config"
	"github.com/mrz1836/drachma/internal/secretstore"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress0 = "drmcc114b9516241fa462ba8f0173bd0d569ae3ee10"
	testAddress1 = "drmd2e896d002e34708e5234e1c2caa0a997c7c931e"
	testPubKey0  = "02df6c2fcfe3ce48df1051a78987586989eee6b0f09a9ca196247575eaae641380"
	testPassword = "correct-horse"
)

// testEnv runs CLI commands against one in-memory store shared across runs.
type testEnv struct {
	t    *testing.T
	home string
	high *secretstore.MemoryBackend
	low  *secretstore.MemoryBackend
}

// newTestEnv isolates the environment and swaps the store opener. CLI tests
// share package state and must not run in parallel.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		t:    t,
		home: t.TempDir(),
		high: secretstore.NewMemoryBackend(),
		low:  secretstore.NewMemoryBackend(),
	}

	t.Setenv(config.EnvHome, env.home)
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvOutputFormat, "")
	t.Setenv(config.EnvVerbose, "")
	t.Setenv(config.EnvSecretBackend, "")

	orig := openStoreFn
	t.Cleanup(func() { openStoreFn = orig })
	openStoreFn = func(context.Context, *config.Config, *config.Logger) (*secretstore.Tiered, error) {
		return secretstore.New(env.high, env.low), nil
	}
	return env
}

// run executes args with stdin and returns stdout and stderr.
func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// mustRun executes args and fails the test on error.
func (e *testEnv) mustRun(stdin string, args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.run(stdin, args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return stdout
}

// runJSON executes args with JSON output and decodes stdout into v.
func (e *testEnv) runJSON(v any, stdin string, args ...string) {
	e.t.Helper()
	stdout := e.mustRun(stdin, append(args, "-o", "json")...)
	require.NoError(e.t, json.Unmarshal([]byte(stdout), v), "stdout: %s", stdout)
}

// restoreTestWallet installs the well-known test mnemonic.
func (e *testEnv) restoreTestWallet() {
	e.t.Helper()
	e.mustRun(testMnemonic+"\n", "wallet", "restore")
}

// resetFlags returns every flag to its default between runs, since cobra
// keeps parsed values in the package-level variables.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withStdin feeds prompt helpers from s.
func withStdin(t *testing.T, s string) *cobra.Command {
	t.Helper()
	origReader, origFd := stdinReader, stdinFd
	t.Cleanup(func() {
		stdinReader, stdinFd = origReader, origFd
	})
	stdinReader = bufio.NewReader(strings.NewReader(s))
	stdinFd = -1

	cmd := &cobra.Command{}
	cmd.SetErr(&bytes.Buffer{})
	return cmd
}

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password string, confirm bool) {
	t.Helper()
	origSecret := promptSecretFn
	origNewPW := promptNewPasswordFn
	origConfirm := promptConfirmFn
	origPassphrase := promptPassphraseFn
	origMnemonic := promptMnemonicFn
	t.Cleanup(func() {
		promptSecretFn = origSecret
		promptNewPasswordFn = origNewPW
		promptConfirmFn = origConfirm
		promptPassphraseFn = origPassphrase
		promptMnemonicFn = origMnemonic
	})
	promptSecretFn = func(*cobra.Command, string) ([]byte, error) {
		return []byte(password), nil
	}
	promptNewPasswordFn = func(*cobra.Command) ([]byte, error) {
		return []byte(password), nil
	}
	promptConfirmFn = func(*cobra.Command, string) bool { return confirm }
	promptPassphraseFn = func(*cobra.Command, bool) (string, error) {
		return "testpassphrase", nil
	}
	promptMnemonicFn = func(*cobra.Command) (string, error) {
		return testMnemonic, nil
	}
}

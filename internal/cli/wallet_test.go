package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/drachma/internal/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletGenerate(t *testing.T) {
	env := newTestEnv(t)

	var res walletResult
	env.runJSON(&res, "", "wallet", "generate")

	words := strings.Fields(res.Mnemonic)
	require.Len(t, words, 24)
	require.NoError(t, wallet.ValidateMnemonic(res.Mnemonic))
	require.NotNil(t, res.Account)
	assert.Equal(t, uint32(0), res.Account.Index)
	assert.True(t, wallet.ValidateAddress(res.Account.Address))
	assert.Equal(t, "m/44'/0'/0'/0/0", res.Account.DerivationPath)

	// The mnemonic is never echoed by later commands.
	status := env.mustRun("", "wallet", "status", "-o", "json")
	assert.NotContains(t, status, words[0]+" "+words[1]+" "+words[2])
	assert.Contains(t, status, res.Account.Address)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletGenerate_TextOutput(t *testing.T) {
	env := newTestEnv(t)

	stdout := env.mustRun("", "wallet", "generate", "-o", "text")
	assert.Contains(t, stdout, "RECOVERY PHRASE")
	assert.Contains(t, stdout, "24. ")
	assert.Contains(t, stdout, "Wallet generated.")
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletGenerate_RefusesToReplace(t *testing.T) {
	env := newTestEnv(t)

	var first walletResult
	env.runJSON(&first, "", "wallet", "generate")

	_, stderr, err := env.run("", "wallet", "generate")
	require.ErrorIs(t, err, drmerr.ErrInvalidInput)
	assert.Contains(t, stderr, "--force")

	var second walletResult
	env.runJSON(&second, "", "wallet", "generate", "--force")
	assert.NotEqual(t, first.Mnemonic, second.Mnemonic)
	assert.NotEqual(t, first.Account.Address, second.Account.Address)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletGenerate_Passphrase(t *testing.T) {
	env := newTestEnv(t)

	var res walletResult
	env.runJSON(&res, "secret words\nsecret words\n", "wallet", "generate", "--passphrase")

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	require.NotNil(t, status.Wallet)
	assert.True(t, status.Wallet.HasPassphrase)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletGenerate_PassphraseMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("one\ntwo\n", "wallet", "generate", "--passphrase")
	require.ErrorIs(t, err, drmerr.ErrInvalidInput)

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	assert.False(t, status.Exists)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletRestore(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
	}{
		{"single line", testMnemonic + "\n"},
		{"no trailing newline", testMnemonic},
		{"uppercase", strings.ToUpper(testMnemonic) + "\n"},
		{"numbered list", "1. abandon\n2. abandon\n3. abandon\n4. abandon\n5. abandon\n6. abandon\n" +
			"7. abandon\n8. abandon\n9. abandon\n10. abandon\n11. abandon\n12. about\n"},
		{"comma separated", strings.ReplaceAll(testMnemonic, " ", ", ") + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			var res walletResult
			env.runJSON(&res, tt.stdin, "wallet", "restore")
			require.NotNil(t, res.Account)
			assert.Empty(t, res.Mnemonic)
			assert.Equal(t, testAddress0, res.Account.Address)
			assert.Equal(t, testPubKey0, res.Account.PublicKey)
		})
	}
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletRestore_Passphrase(t *testing.T) {
	env := newTestEnv(t)

	var res walletResult
	env.runJSON(&res, testMnemonic+"\n\nTREZOR\n", "wallet", "restore", "--passphrase")
	require.NotNil(t, res.Account)
	assert.NotEqual(t, testAddress0, res.Account.Address)

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	assert.True(t, status.Wallet.HasPassphrase)
	assert.True(t, status.Wallet.HasMnemonic)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletRestore_Typo(t *testing.T) {
	env := newTestEnv(t)

	typo := strings.Replace(testMnemonic, "about", "abuot", 1)
	_, stderr, err := env.run(typo+"\n", "wallet", "restore", "-o", "text")
	require.ErrorIs(t, err, drmerr.ErrInvalidMnemonic)
	assert.Equal(t, drmerr.ExitInput, ExitCode(err))
	assert.Contains(t, stderr, "Word 12: 'abuot' - did you mean 'about'?")

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	assert.False(t, status.Exists)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletRestore_NoInput(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("", "wallet", "restore")
	require.ErrorIs(t, err, drmerr.ErrInvalidInput)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletRestore_MockPrompts(t *testing.T) {
	env := newTestEnv(t)
	withMockPrompts(t, testPassword, true)

	var res walletResult
	env.runJSON(&res, "", "wallet", "restore", "--passphrase")

	seed, err := wallet.MnemonicToSeed(testMnemonic, "testpassphrase")
	require.NoError(t, err)
	want, priv, err := wallet.DeriveAccount(seed, 0)
	require.NoError(t, err)
	wallet.ZeroBytes(priv)
	assert.Equal(t, want.Address, res.Account.Address)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletImportSeed(t *testing.T) {
	env := newTestEnv(t)
	seedHex := strings.Repeat("ab", 32)

	var res walletResult
	env.runJSON(&res, "", "wallet", "import-seed", seedHex)
	require.NotNil(t, res.Account)
	assert.True(t, wallet.ValidateAddress(res.Account.Address))

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	assert.False(t, status.Wallet.HasMnemonic)

	// Without a mnemonic no further accounts can be derived.
	_, _, err := env.run("", "account", "create")
	require.ErrorIs(t, err, drmerr.ErrNoWalletFound)

	// Signing with the imported key still works.
	env.mustRun(`{"amount":1}`, "tx", "sign", "-")
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletImportSeed_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("", "wallet", "import-seed", "zz")
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, _, err = env.run("", "wallet", "import-seed", "abcd")
	require.Error(t, err)

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	assert.False(t, status.Exists)
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletStatus(t *testing.T) {
	env := newTestEnv(t)

	stdout := env.mustRun("", "wallet", "status", "-o", "text")
	assert.Contains(t, stdout, "No wallet found.")

	env.restoreTestWallet()

	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	require.True(t, status.Exists)
	assert.Equal(t, 1, status.Wallet.AccountCount)
	assert.Equal(t, testAddress0, status.Wallet.CurrentAddress)
	assert.False(t, status.Wallet.HasPassphrase)

	stdout = env.mustRun("", "wallet", "status", "-o", "text")
	assert.Contains(t, stdout, testAddress0)
	assert.Contains(t, stdout, "Accounts:         1")
}

//nolint:paralleltest // CLI tests share package-level command state
func TestWalletDelete(t *testing.T) {
	env := newTestEnv(t)
	env.restoreTestWallet()

	// Declining the prompt keeps the wallet.
	_, _, err := env.run("n\n", "wallet", "delete")
	require.ErrorIs(t, err, drmerr.ErrInvalidInput)
	var status walletStatus
	env.runJSON(&status, "", "wallet", "status")
	assert.True(t, status.Exists)

	env.mustRun("y\n", "wallet", "delete")
	env.runJSON(&status, "", "wallet", "status")
	assert.False(t, status.Exists)
	assert.Empty(t, env.high.Names())
	assert.Empty(t, env.low.Names())

	// Deleting again is a no-op.
	env.mustRun("", "wallet", "delete", "--force")
}

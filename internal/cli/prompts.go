package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/drachma/internal/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// minPasswordLength is the shortest accepted backup password.
const minPasswordLength = 8

// Prompt functions, replaceable in tests.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	promptSecretFn      = promptSecret
	promptNewPasswordFn = promptNewPassword
	promptPassphraseFn  = promptPassphrase
	promptConfirmFn     = promptConfirm
	promptMnemonicFn    = promptMnemonic
)

// errNoInput is returned when stdin closes before a value is read.
var errNoInput = drmerr.WithSuggestion(drmerr.ErrInvalidInput, "no input provided")

// readLine reads one line from the run's stdin without the line ending.
func readLine(cmd *cobra.Command) (string, error) {
	r := stdinReader
	if r == nil {
		r = bufio.NewReader(cmd.InOrStdin())
	}

	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errNoInput
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret prompts for a value with hidden input on a terminal. Piped
// input is read one line at a time.
// The caller is responsible for zeroing the returned bytes after use.
func promptSecret(cmd *cobra.Command, prompt string) ([]byte, error) {
	errOut := cmd.ErrOrStderr()
	out(errOut, "%s", prompt)

	if stdinFd >= 0 {
		secret, err := term.ReadPassword(stdinFd)
		outln(errOut) // Add newline after hidden input
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		return secret, nil
	}

	line, err := readLine(cmd)
	outln(errOut)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

// promptNewPassword prompts for a new backup password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword(cmd *cobra.Command) ([]byte, error) {
	password, err := promptSecretFn(cmd, "Enter backup password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		wallet.ZeroBytes(password)
		return nil, drmerr.WithSuggestion(
			drmerr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}

	confirm, err := promptSecretFn(cmd, "Confirm password: ")
	if err != nil {
		wallet.ZeroBytes(password)
		return nil, err
	}
	defer wallet.ZeroBytes(confirm)

	if string(password) != string(confirm) {
		wallet.ZeroBytes(password)
		return nil, drmerr.WithSuggestion(
			drmerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptPassphrase prompts for an optional BIP39 passphrase. When confirm
// is set an entered passphrase must be typed twice.
func promptPassphrase(cmd *cobra.Command, confirm bool) (string, error) {
	errOut := cmd.ErrOrStderr()
	outln(errOut, "BIP39 Passphrase (optional extra security layer):")
	outln(errOut, "WARNING: If you lose this passphrase, you cannot recover your wallet!")

	passphrase, err := promptSecretFn(cmd, "Enter passphrase: ")
	if err != nil {
		return "", err
	}
	defer wallet.ZeroBytes(passphrase)

	if len(passphrase) == 0 || !confirm {
		return string(passphrase), nil
	}

	again, err := promptSecretFn(cmd, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	defer wallet.ZeroBytes(again)

	if string(passphrase) != string(again) {
		return "", drmerr.WithSuggestion(
			drmerr.ErrInvalidInput,
			"passphrases do not match",
		)
	}

	// The BIP39 API takes a string; the byte copy is zeroed above.
	return string(passphrase), nil
}

// promptConfirm asks a yes/no question and defaults to no.
func promptConfirm(cmd *cobra.Command, question string) bool {
	out(cmd.ErrOrStderr(), "%s [y/N]: ", question)

	response, err := readLine(cmd)
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// promptMnemonic reads a mnemonic phrase. On a terminal the words are
// hidden; piped input may span several lines and ends at a blank line or
// end of input.
func promptMnemonic(cmd *cobra.Command) (string, error) {
	if stdinFd >= 0 {
		phrase, err := promptSecretFn(cmd, "Enter mnemonic (all words on one line): ")
		if err != nil {
			return "", err
		}
		defer wallet.ZeroBytes(phrase)
		return wallet.NormalizeMnemonicInput(string(phrase)), nil
	}

	var lines []string
	for {
		line, err := readLine(cmd)
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}

	mnemonic := wallet.NormalizeMnemonicInput(strings.Join(lines, "\n"))
	if mnemonic == "" {
		return "", errNoInput
	}
	return mnemonic, nil
}

package cli

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/drachma/internal/canonical"
	"github.com/mrz1836/drachma/internal/drmcrypto"
	"github.com/mrz1836/drachma/internal/fileutil"
	"github.com/mrz1836/drachma/internal/output"
	svcwallet "github.com/mrz1836/drachma/internal/service/wallet"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// maxPayloadSize bounds a transaction payload read from a file or stdin.
const maxPayloadSize = 1 << 20

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// verifySig is the hex signature to check.
	verifySig string
	// verifyPubKey is the hex public key; the current account's key when empty.
	verifyPubKey string
)

// txCmd is the parent command for transaction operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Sign and verify transaction payloads",
	Long: `Sign JSON transaction payloads with the current account and verify
signatures. The payload is put in canonical form (compact, key order kept
as written) and its SHA-256 digest is signed with BIP340 Schnorr.`,
}

// txSignCmd signs a payload.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txSignCmd = &cobra.Command{
	Use:   "sign <file|->",
	Short: "Sign a JSON payload with the current account",
	Long: `Sign a JSON payload read from a file, or from stdin when the
argument is "-".

Example:
  drachma tx sign payload.json
  echo '{"amount":5,"to":"drm..."}' | drachma tx sign -`,
	Args: cobra.ExactArgs(1),
	RunE: runTxSign,
}

// txVerifyCmd verifies a signature.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txVerifyCmd = &cobra.Command{
	Use:   "verify <file|->",
	Short: "Verify a payload signature",
	Long: `Verify a Schnorr signature over a JSON payload. Without --pubkey the
current account's public key is used.

Exits with a non-zero status when the signature does not match.

Example:
  drachma tx verify payload.json --sig 3f1a... --pubkey 02df6c...`,
	Args: cobra.ExactArgs(1),
	RunE: runTxVerify,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txSignCmd)
	txCmd.AddCommand(txVerifyCmd)

	txVerifyCmd.Flags().StringVar(&verifySig, "sig", "", "hex signature (required)")
	txVerifyCmd.Flags().StringVar(&verifyPubKey, "pubkey", "", "hex public key (default: current account)")
	_ = txVerifyCmd.MarkFlagRequired("sig")
}

// signResult is the JSON shape for tx sign.
type signResult struct {
	Signature    string `json:"signature"`
	Digest       string `json:"digest"`
	PublicKey    string `json:"public_key"`
	Address      string `json:"address"`
	AccountIndex uint32 `json:"account_index"`
}

// verifyResult is the JSON shape for tx verify.
type verifyResult struct {
	Valid     bool   `json:"valid"`
	Digest    string `json:"digest"`
	PublicKey string `json:"public_key"`
}

// readPayload loads a JSON payload from path, or stdin for "-".
func readPayload(cmd *cobra.Command, path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = fileutil.ReadLimited(cmd.InOrStdin(), maxPayloadSize)
	} else {
		data, err = fileutil.ReadFileLimited(path, maxPayloadSize)
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, drmerr.WithDetails(drmerr.ErrNotFound, map[string]string{"file": path})
	case errors.Is(err, fileutil.ErrTooLarge):
		return nil, drmerr.WithCause(drmerr.ErrMalformedInput, err)
	case err != nil:
		return nil, drmerr.Wrap(err, "reading payload")
	}

	if !json.Valid(data) {
		return nil, drmerr.WithSuggestion(drmerr.ErrMalformedInput, "the payload must be a JSON document")
	}
	return json.RawMessage(data), nil
}

// digestHex returns the hex digest that gets signed for payload.
func digestHex(payload json.RawMessage) (string, error) {
	digest, err := canonical.Digest(payload)
	if err != nil {
		return "", err
	}
	return drmcrypto.BytesToHex(digest[:]), nil
}

func runTxSign(cmd *cobra.Command, args []string) error {
	payload, err := readPayload(cmd, args[0])
	if err != nil {
		return err
	}
	digest, err := digestHex(payload)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, storeTimeout)
	defer cancel()

	mgr, err := walletManager(ctx)
	if err != nil {
		return err
	}

	acct, err := mgr.GetCurrentAccount(ctx)
	if err != nil {
		return drmerr.WithCause(drmerr.ErrNoAccountAvailable, err)
	}
	sig, err := mgr.SignTransaction(ctx, payload)
	if err != nil {
		return err
	}

	result := signResult{
		Signature:    sig,
		Digest:       digest,
		PublicKey:    acct.PublicKey,
		Address:      acct.Address,
		AccountIndex: acct.Index,
	}
	return formatter.Result(result, func(w io.Writer) error {
		out(w, "Signature:  %s\n", result.Signature)
		out(w, "Digest:     %s\n", result.Digest)
		out(w, "Signer:     %s (account %d)\n", result.Address, result.AccountIndex)
		out(w, "Public key: %s\n", result.PublicKey)
		return nil
	})
}

func runTxVerify(cmd *cobra.Command, args []string) error {
	payload, err := readPayload(cmd, args[0])
	if err != nil {
		return err
	}
	digest, err := digestHex(payload)
	if err != nil {
		return err
	}

	pubKey := strings.TrimSpace(verifyPubKey)
	if pubKey == "" {
		ctx, cancel := contextWithTimeout(cmd, storeTimeout)
		defer cancel()

		mgr, mgrErr := walletManager(ctx)
		if mgrErr != nil {
			return mgrErr
		}
		acct, acctErr := mgr.GetCurrentAccount(ctx)
		if acctErr != nil {
			return acctErr
		}
		if acct == nil {
			return drmerr.WithSuggestion(drmerr.ErrNoAccountAvailable, "pass the signer's key with --pubkey")
		}
		pubKey = acct.PublicKey
	}

	valid, err := svcwallet.VerifySignature(strings.TrimSpace(verifySig), payload, pubKey)
	if err != nil {
		return err
	}

	result := verifyResult{Valid: valid, Digest: digest, PublicKey: pubKey}
	if err := formatter.Result(result, func(w io.Writer) error {
		if valid {
			output.Success(w, "Signature is valid.")
		}
		return nil
	}); err != nil {
		return err
	}

	if !valid {
		return drmerr.ErrInvalidSignature
	}
	return nil
}

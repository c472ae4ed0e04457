// Package errors provides structured error handling for Drachma.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied
	ExitStorage    = 6 // Secret store or record storage failed
)

// DrachmaError is the structured error type for Drachma.
type DrachmaError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *DrachmaError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DrachmaError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for DrachmaError.
func (e *DrachmaError) Is(target error) bool {
	var t *DrachmaError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &DrachmaError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &DrachmaError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &DrachmaError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	// Wallet-specific errors.
	ErrInvalidMnemonic = &DrachmaError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrNoWalletFound = &DrachmaError{
		Code:     "NO_WALLET_FOUND",
		Message:  "no wallet found",
		ExitCode: ExitNotFound,
	}

	ErrInvalidAccountIndex = &DrachmaError{
		Code:     "INVALID_ACCOUNT_INDEX",
		Message:  "invalid account index",
		ExitCode: ExitInput,
	}

	ErrNoAccountAvailable = &DrachmaError{
		Code:     "NO_ACCOUNT_AVAILABLE",
		Message:  "no account available for signing",
		ExitCode: ExitNotFound,
	}

	ErrStorageUnavailable = &DrachmaError{
		Code:     "STORAGE_UNAVAILABLE",
		Message:  "secure storage unavailable",
		ExitCode: ExitStorage,
	}

	ErrMalformedInput = &DrachmaError{
		Code:     "MALFORMED_INPUT",
		Message:  "malformed input",
		ExitCode: ExitInput,
	}

	ErrInvalidSignature = &DrachmaError{
		Code:     "INVALID_SIGNATURE",
		Message:  "signature does not match the payload and public key",
		ExitCode: ExitAuth,
	}

	// Backup-specific errors.
	ErrDecryptionFailed = &DrachmaError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted data",
		ExitCode: ExitAuth,
	}

	ErrBackupCorrupted = &DrachmaError{
		Code:     "BACKUP_CORRUPTED",
		Message:  "backup file is corrupted - checksum mismatch",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigInvalid = &DrachmaError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &DrachmaError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// New creates a new DrachmaError with the given code and message.
func New(code, message string) *DrachmaError {
	return &DrachmaError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// derive copies the DrachmaError in err's chain, or wraps a plain error as
// GENERAL_ERROR, and applies edit to the copy. Sentinels are never mutated.
func derive(err error, edit func(*DrachmaError)) *DrachmaError {
	var d DrachmaError
	var de *DrachmaError
	if errors.As(err, &de) {
		d = *de
	} else {
		d = DrachmaError{
			Code:     "GENERAL_ERROR",
			Message:  err.Error(),
			Cause:    err,
			ExitCode: ExitGeneral,
		}
	}
	edit(&d)
	return &d
}

// Wrap prefixes err's message with context. The result keeps err's code
// and exit code and unwraps to err.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)

	var de *DrachmaError
	if !errors.As(err, &de) {
		return &DrachmaError{Code: "GENERAL_ERROR", Message: msg, Cause: err, ExitCode: ExitGeneral}
	}
	return derive(err, func(d *DrachmaError) {
		d.Message = msg + ": " + d.Message
		d.Cause = err
	})
}

// WithCause returns a copy of kind carrying cause as the underlying error.
// The result matches kind under errors.Is and still unwraps to cause.
func WithCause(kind *DrachmaError, cause error) error {
	if kind == nil {
		return cause
	}
	return derive(kind, func(d *DrachmaError) { d.Cause = cause })
}

// WithDetails attaches key/value context rendered after the message.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}
	return derive(err, func(d *DrachmaError) { d.Details = details })
}

// WithSuggestion attaches an actionable hint for the user.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return derive(err, func(d *DrachmaError) { d.Suggestion = suggestion })
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var de *DrachmaError
	if errors.As(err, &de) {
		return de.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var de *DrachmaError
	if errors.As(err, &de) {
		return de.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

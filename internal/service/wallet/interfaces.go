// Package wallet orchestrates the wallet lifecycle: creation, restoration,
// account enumeration and switching, and transaction signing. It is the
// only package that both reads secrets and derives keys.
package wallet

// LogWriter provides logging capabilities.
// Implementations must never receive mnemonics, seeds or private keys.
type LogWriter interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{}) {}

package drmcrypto

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// scryptWorkFactor is the log2 scrypt cost for password encryption.
// Zero keeps the age default (18).
//
//nolint:gochecknoglobals // lowered by tests only
var scryptWorkFactor int

// SetScryptWorkFactor overrides the scrypt cost used by Encrypt.
// It exists so tests can run fast; production code never calls it.
func SetScryptWorkFactor(logN int) {
	scryptWorkFactor = logN
}

// Encrypt encrypts plaintext using age with a password-based recipient.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if scryptWorkFactor > 0 {
		recipient.SetWorkFactor(scryptWorkFactor)
	}
	return encryptTo(plaintext, recipient)
}

// Decrypt decrypts ciphertext using age with a password-based identity.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	return decryptWith(ciphertext, identity)
}

// GenerateIdentity creates a fresh X25519 identity for key-based encryption.
func GenerateIdentity() (*age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating x25519 identity: %w", err)
	}
	return identity, nil
}

// ParseIdentity parses an "AGE-SECRET-KEY-1..." string.
func ParseIdentity(s string) (*age.X25519Identity, error) {
	identity, err := age.ParseX25519Identity(s)
	if err != nil {
		return nil, fmt.Errorf("parsing x25519 identity: %w", err)
	}
	return identity, nil
}

// EncryptTo encrypts plaintext to the public half of identity.
func EncryptTo(plaintext []byte, identity *age.X25519Identity) ([]byte, error) {
	return encryptTo(plaintext, identity.Recipient())
}

// DecryptWith decrypts ciphertext produced by EncryptTo.
func DecryptWith(ciphertext []byte, identity *age.X25519Identity) ([]byte, error) {
	return decryptWith(ciphertext, identity)
}

func encryptTo(plaintext []byte, recipient age.Recipient) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

func decryptWith(ciphertext []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}

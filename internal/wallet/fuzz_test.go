package wallet

import (
	"testing"
	"unicode/utf8"
)

// FuzzNormalizeMnemonicInput tests that normalization never panics and always
// returns valid, trimmed, lowercase output.
func FuzzNormalizeMnemonicInput(f *testing.F) {
	f.Add("")
	f.Add("  abandon  abandon  ")
	f.Add("ABANDON ABILITY")
	f.Add("1. abandon\n2. ability")
	f.Add(string([]byte{0xFF, 0xFE}))

	f.Fuzz(func(t *testing.T, input string) {
		result := NormalizeMnemonicInput(input)
		if utf8.ValidString(input) && !utf8.ValidString(result) {
			t.Errorf("invalid UTF-8 output for input %q", input)
		}
		if len(result) > 0 && (result[0] == ' ' || result[len(result)-1] == ' ') {
			t.Errorf("untrimmed output for input %q", input)
		}
		for _, r := range result {
			if r >= 'A' && r <= 'Z' {
				t.Errorf("uppercase output for input %q", input)
				break
			}
		}
	})
}

// FuzzValidateMnemonic tests that validation never panics and agrees with
// MnemonicToSeed.
func FuzzValidateMnemonic(f *testing.F) {
	f.Add(testMnemonic)
	f.Add("")
	f.Add("abandon")
	f.Add("\x00\x01\x02")

	f.Fuzz(func(t *testing.T, input string) {
		validErr := ValidateMnemonic(input)
		_, seedErr := MnemonicToSeed(input, "")
		if (validErr == nil) != (seedErr == nil) {
			t.Errorf("ValidateMnemonic and MnemonicToSeed disagree for %q", input)
		}
	})
}

// FuzzDeriveAccount tests that derivation never panics and rejects short seeds.
func FuzzDeriveAccount(f *testing.F) {
	f.Add([]byte{}, uint32(0))
	f.Add(make([]byte, 32), uint32(1))
	f.Add(make([]byte, 64), ^uint32(0))

	f.Fuzz(func(t *testing.T, seed []byte, index uint32) {
		account, priv, err := DeriveAccount(seed, index)
		if len(seed) < MinSeedLength {
			if err == nil {
				t.Errorf("expected error for %d-byte seed", len(seed))
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer ZeroBytes(priv)
		if !ValidateAddress(account.Address) {
			t.Errorf("malformed address %q", account.Address)
		}
	})
}

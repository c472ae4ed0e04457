package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

var errEntropyDrained = errors.New("entropy drained")

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// BIP39 test vectors from https://github.com/trezor/python-mnemonic/blob/master/vectors.json
//
//nolint:gochecknoglobals // reference BIP39 vectors
var bip39TestVectors = []struct {
	mnemonic string
	seed     string
}{
	{
		mnemonic: testMnemonic,
		seed:     "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
	},
	{
		mnemonic: "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong",
		seed:     "ac27495480225222079d7be181583751e86f571027b0497b5b5d11218e0a8a13332572917f0f8e5a589620c6f15b11c61dee327651a14c34e18231052e48c069",
	},
	{
		mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
		seed:     "bda85446c68413707090a52022edd26a1c9462295029f2e60cd7c4f2bbd3097170af7a4d73245cafa9c3cca8d561a7c3de6f5d4a10be8ed2a5e608d68f92fcc8",
	},
}

func TestGenerateMnemonic(t *testing.T) {
	t.Parallel()
	for _, count := range []int{12, 24} {
		mnemonic, err := GenerateMnemonic(count)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(mnemonic), count)
		require.NoError(t, ValidateMnemonic(mnemonic))
	}

	_, err := GenerateMnemonic(16)
	require.ErrorIs(t, err, ErrInvalidWordCount)
}

func TestGenerateMnemonic_Randomness(t *testing.T) {
	t.Parallel()
	a, err := GenerateMnemonic(DefaultWordCount)
	require.NoError(t, err)
	b, err := GenerateMnemonic(DefaultWordCount)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

//nolint:paralleltest // swaps the package-level entropy source
func TestGenerateMnemonic_EntropySource(t *testing.T) {
	orig := drmcrypto.Entropy
	t.Cleanup(func() { drmcrypto.Entropy = orig })

	drmcrypto.Entropy = bytes.NewReader(make([]byte, 32))
	mnemonic, err := GenerateMnemonic(DefaultWordCount)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("abandon ", 23)+"art", mnemonic)

	drmcrypto.Entropy = iotest.ErrReader(errEntropyDrained)
	_, err = GenerateMnemonic(12)
	require.ErrorIs(t, err, errEntropyDrained)
}

func TestValidateMnemonic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid 12", testMnemonic, false},
		{"valid 24", bip39TestVectors[2].mnemonic, false},
		{"valid with noise", "  ABANDON, abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about\n", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"too few words", "abandon abandon abandon", true},
		{"valid 18", strings.Repeat("abandon ", 17) + "agent", false},
		{"13 words", strings.Repeat("abandon ", 12) + "about", true},
		{"bad checksum", strings.Repeat("abandon ", 11) + "abandon", true},
		{"unknown word", strings.Repeat("abandon ", 11) + "xyzzy", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMnemonic(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, drmerr.ErrInvalidMnemonic)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateMnemonic_AllWordCounts(t *testing.T) {
	t.Parallel()
	for _, words := range []int{12, 15, 18, 21, 24} {
		entropy := bytes.Repeat([]byte{0x5a}, words/3*4)
		mnemonic, err := bip39.NewMnemonic(entropy)
		require.NoError(t, err)
		require.Len(t, strings.Fields(mnemonic), words)
		require.NoError(t, ValidateMnemonic(mnemonic), "words=%d", words)

		generated, err := GenerateMnemonic(words)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(generated), words)
	}

	_, err := GenerateMnemonic(13)
	require.ErrorIs(t, err, ErrInvalidWordCount)
}

func TestValidateMnemonic_TypoSuggestion(t *testing.T) {
	t.Parallel()
	input := strings.Replace(testMnemonic, "about", "abuot", 1)

	err := ValidateMnemonic(input)
	require.ErrorIs(t, err, drmerr.ErrInvalidMnemonic)

	var de *drmerr.DrachmaError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Suggestion, "Word 12")
	assert.Contains(t, de.Suggestion, "abuot")
}

func TestNormalizeMnemonicInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "abandon ability", "abandon ability"},
		{"upper", "ABANDON Ability", "abandon ability"},
		{"extra spaces", "  abandon   ability  ", "abandon ability"},
		{"commas", "abandon,ability, able", "abandon ability able"},
		{"numbered", "1. abandon\n2) ability\n3: able", "abandon ability able"},
		{"bullets", "- abandon\n* ability\n• able", "abandon ability able"},
		{"tabs", "abandon\tability\r\nable", "abandon ability able"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeMnemonicInput(tt.input))
		})
	}
}

func TestMnemonicToSeed_WithTestVectors(t *testing.T) {
	t.Parallel()
	// Using "TREZOR" as the passphrase as per the test vectors
	for _, tc := range bip39TestVectors {
		t.Run(tc.mnemonic[:20], func(t *testing.T) {
			t.Parallel()
			seed, err := MnemonicToSeed(tc.mnemonic, "TREZOR")
			require.NoError(t, err)
			assert.Len(t, seed, 64)
			assert.Equal(t, tc.seed, hex.EncodeToString(seed))
		})
	}
}

func TestMnemonicToSeed_Passphrase(t *testing.T) {
	t.Parallel()
	seed1, err := MnemonicToSeed(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t,
		"5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4",
		hex.EncodeToString(seed1))

	seed2, err := MnemonicToSeed(testMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.NotEqual(t, seed1, seed2)

	_, err = MnemonicToSeed("invalid mnemonic words here", "")
	require.ErrorIs(t, err, drmerr.ErrInvalidMnemonic)
}

func TestIsValidWord(t *testing.T) {
	t.Parallel()
	assert.True(t, IsValidWord("abandon"))
	assert.True(t, IsValidWord("ZOO"))
	assert.False(t, IsValidWord("drachma"))
	assert.Len(t, GetWordList(), 2048)
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{"abandon", "abandon"},
		{"abandn", "abandon"},
		{"zooo", "zoo"},
		{"qqqqqqqqqq", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SuggestWord(tt.input))
		})
	}
}

func TestDetectTypos(t *testing.T) {
	t.Parallel()
	assert.Nil(t, DetectTypos(""))
	assert.Nil(t, DetectTypos(testMnemonic))

	typos := DetectTypos("abandn ability qqqqqqqqqq")
	require.Len(t, typos, 2)
	assert.Equal(t, TypoInfo{Index: 0, Word: "abandn", Suggestion: "abandon", Distance: 1}, typos[0])
	assert.Equal(t, 2, typos[1].Index)
	assert.Empty(t, typos[1].Suggestion)

	formatted := FormatTypoSuggestions(typos)
	assert.Equal(t,
		"Word 1: 'abandn' - did you mean 'abandon'?\nWord 3: 'qqqqqqqqqq' is not a valid BIP39 word",
		formatted)
	assert.Empty(t, FormatTypoSuggestions(nil))
}

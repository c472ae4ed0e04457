// Package wallet holds the key derivation engine: BIP39 mnemonics, seeds
// and the per-index account keys derived from them.
package wallet

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// DefaultWordCount is the length of generated mnemonics (256 bits of entropy).
const DefaultWordCount = 24

var (
	// ErrInvalidWordCount indicates a word count BIP39 does not define.
	ErrInvalidWordCount = errors.New("word count must be 12, 15, 18, 21 or 24")

	// ErrInvalidMnemonic indicates the mnemonic is not valid.
	ErrInvalidMnemonic = drmerr.ErrInvalidMnemonic

	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* " "• "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// validWordCount reports whether n words can encode 128 to 256 bits of
// entropy plus checksum.
func validWordCount(n int) bool {
	switch n {
	case 12, 15, 18, 21, 24:
		return true
	default:
		return false
	}
}

// GenerateMnemonic creates a new BIP39 mnemonic phrase. wordCount must be
// 12, 15, 18, 21 or 24 (128 to 256 bits of entropy).
func GenerateMnemonic(wordCount int) (string, error) {
	if !validWordCount(wordCount) {
		return "", ErrInvalidWordCount
	}

	// Every three words carry 32 bits of entropy and one checksum bit.
	entropy, err := drmcrypto.NewEntropy(wordCount / 3 * 32)
	if err != nil {
		return "", err
	}
	defer entropy.Destroy()

	return bip39.NewMnemonic(entropy.Bytes())
}

// ValidateMnemonic checks word count, word membership and checksum.
// Failures carry typo suggestions when a word is close to a BIP39 word.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonicInput(mnemonic)
	if normalized == "" {
		return ErrInvalidMnemonic
	}

	wordCount := len(strings.Fields(normalized))
	if !validWordCount(wordCount) {
		return drmerr.WithDetails(ErrInvalidMnemonic, map[string]string{
			"words": strconv.Itoa(wordCount),
		})
	}

	// MnemonicToByteArray validates word validity and the checksum
	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		if typos := DetectTypos(normalized); len(typos) > 0 {
			return drmerr.WithSuggestion(ErrInvalidMnemonic, FormatTypoSuggestions(typos))
		}
		return drmerr.WithSuggestion(ErrInvalidMnemonic, "all words are valid but the checksum does not match; check the word order")
	}

	return nil
}

// NormalizeMnemonicInput cleans pasted mnemonic input: lowercases it,
// strips numbered and bulleted list prefixes, turns commas into spaces and
// collapses whitespace.
func NormalizeMnemonicInput(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MnemonicToSeed converts a BIP39 mnemonic phrase to a 64-byte seed.
// The passphrase is optional (can be empty string).
// The returned seed should be handled securely and zeroed after use.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(NormalizeMnemonicInput(mnemonic), passphrase), nil
}

// GetWordList returns the BIP39 English word list.
func GetWordList() []string {
	return bip39.GetWordList()
}

// IsValidWord checks if a word is in the BIP39 word list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// MaxTypoDistance is the maximum Levenshtein distance to consider a suggestion.
const MaxTypoDistance = 2

// TypoInfo describes a word that is not in the BIP39 list.
type TypoInfo struct {
	// Index is the word position in the mnemonic (0-based).
	Index int
	// Word is the original (possibly misspelled) word.
	Word string
	// Suggestion is the closest BIP39 word, or empty if none found.
	Suggestion string
	// Distance is the Levenshtein distance to the suggestion.
	Distance int
}

// SuggestWord finds the closest BIP39 word to the input using Levenshtein distance.
// Returns empty string if no word is close enough (distance > MaxTypoDistance).
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	minDist := math.MaxInt
	var suggestion string

	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos returns every word of mnemonic that is not a BIP39 word.
func DetectTypos(mnemonic string) []TypoInfo {
	var typos []TypoInfo
	for i, word := range strings.Fields(NormalizeMnemonicInput(mnemonic)) {
		if IsValidWord(word) {
			continue
		}
		suggestion := SuggestWord(word)
		distance := 0
		if suggestion != "" {
			distance = levenshtein.ComputeDistance(word, suggestion)
		}
		typos = append(typos, TypoInfo{
			Index:      i,
			Word:       word,
			Suggestion: suggestion,
			Distance:   distance,
		})
	}
	return typos
}

// FormatTypoSuggestions formats typo information into human-readable suggestions.
func FormatTypoSuggestions(typos []TypoInfo) string {
	lines := make([]string, 0, len(typos))
	for _, typo := range typos {
		// Word position is 1-indexed for human readability
		line := "Word " + strconv.Itoa(typo.Index+1) + ": '" + typo.Word + "'"
		if typo.Suggestion != "" {
			line += " - did you mean '" + typo.Suggestion + "'?"
		} else {
			line += " is not a valid BIP39 word"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

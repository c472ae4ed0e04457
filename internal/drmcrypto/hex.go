package drmcrypto

import (
	"encoding/hex"
	"strings"

	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// BytesToHex encodes b as lowercase hex without a prefix.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes a hex string. An optional "0x" prefix is accepted.
// Odd-length input or non-hex digits yield ErrMalformedInput.
func HexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		return nil, drmerr.WithDetails(drmerr.ErrMalformedInput, map[string]string{
			"reason": "odd-length hex string",
		})
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, drmerr.WithCause(drmerr.ErrMalformedInput, err)
	}
	return b, nil
}

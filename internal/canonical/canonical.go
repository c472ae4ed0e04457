// Package canonical produces the deterministic byte form of a transaction
// payload that gets hashed and signed.
//
// Output is compact JSON with no HTML escaping and no trailing newline.
// Struct fields come out in declaration order and Go map keys are sorted,
// since a map has no order of its own. Raw JSON input keeps the key order
// it was written in, with numbers kept verbatim; two raw payloads that
// differ only in key order therefore have different digests. Duplicate
// object keys are rejected.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

var (
	errTrailingData = errors.New("trailing data after JSON value")
	errDuplicateKey = errors.New("duplicate object key")
)

// Marshal returns the canonical encoding of v.
func Marshal(v any) ([]byte, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		return normalizeRaw(raw)
	case []byte:
		// Byte slices given directly are treated as JSON text.
		return normalizeRaw(raw)
	}

	return encode(v)
}

// Digest returns sha256(Marshal(v)).
func Digest(v any) ([32]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return [32]byte{}, err
	}
	return drmcrypto.SHA256(data), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, drmerr.WithCause(drmerr.ErrMalformedInput, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// normalizeRaw re-encodes JSON text token by token. Object keys keep their
// source order; insignificant whitespace is dropped.
func normalizeRaw(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := copyValue(dec, &buf); err != nil {
		return nil, drmerr.WithCause(drmerr.ErrMalformedInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, drmerr.WithCause(drmerr.ErrMalformedInput, errTrailingData)
	}
	return buf.Bytes(), nil
}

func copyValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return copyObject(dec, buf)
		case '[':
			return copyArray(dec, buf)
		default:
			return fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		buf.WriteString(t.String())
	case string:
		return writeString(buf, t)
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
	return nil
}

func copyObject(dec *json.Decoder, buf *bytes.Buffer) error {
	seen := make(map[string]struct{})
	buf.WriteByte('{')
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q", errDuplicateKey, key)
		}
		seen[key] = struct{}{}

		if err := writeString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := copyValue(dec, buf); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func copyArray(dec *json.Decoder, buf *bytes.Buffer) error {
	buf.WriteByte('[')
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := copyValue(dec, buf); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	buf.WriteByte(']')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	encoded, err := encode(s)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

package canonical

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

type transfer struct {
	To     string `json:"to"`
	Amount int    `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

func TestMarshal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"struct keeps field order", transfer{To: "drmabc", Amount: 5}, `{"to":"drmabc","amount":5}`},
		{"map keys sorted", map[string]any{"to": "x", "amount": 1, "fee": 0}, `{"amount":1,"fee":0,"to":"x"}`},
		{"no html escaping", map[string]string{"memo": "<a&b>"}, `{"memo":"<a&b>"}`},
		{"nested map", map[string]any{"b": map[string]int{"z": 1, "a": 2}, "a": []int{3, 1}}, `{"a":[3,1],"b":{"a":2,"z":1}}`},
		{"string", "hello", `"hello"`},
		{"null", nil, `null`},
		{"raw keeps key order", json.RawMessage(`{ "to": "x",  "amount": 1.50, "n": {"z":true,"a":null} }`), `{"to":"x","amount":1.50,"n":{"z":true,"a":null}}`},
		{"raw reported example", json.RawMessage(`{"to":"drmabc","amount":"10"}`), `{"to":"drmabc","amount":"10"}`},
		{"raw no html escaping", json.RawMessage(`{"memo":"<a&b>","esc":"\u003c"}`), `{"memo":"<a&b>","esc":"<"}`},
		{"raw scalars", json.RawMessage(` [true, false, null, -0.5e3, "", [], {}] `), `[true,false,null,-0.5e3,"",[],{}]`},
		{"bytes are json text", []byte(`[ {"b":1,"a":2} ]`), `[{"b":1,"a":2}]`},
		{"big number preserved", json.RawMessage(`{"v":123456789012345678901234567890}`), `{"v":123456789012345678901234567890}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshal_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Marshal(json.RawMessage(`{"a":`))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = Marshal([]byte(`{"a":1} {"b":2}`))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = Marshal([]byte(`{"a":1} x`))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = Marshal([]byte(`{"a":1,"b":{"c":1,"c":2}}`))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = Marshal([]byte(``))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = Marshal([]byte(`[1,]`))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)

	_, err = Marshal(make(chan int))
	require.ErrorIs(t, err, drmerr.ErrMalformedInput)
}

func TestMarshal_EquivalentInputsAgree(t *testing.T) {
	t.Parallel()
	fromStruct, err := Marshal(transfer{To: "drmabc", Amount: 5})
	require.NoError(t, err)
	fromRaw, err := Marshal(json.RawMessage("{\n  \"to\": \"drmabc\",\n  \"amount\": 5\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, fromStruct, fromRaw)
}

func TestDigest_KeyOrderMatters(t *testing.T) {
	t.Parallel()
	d1, err := Digest(json.RawMessage(`{"to":"drmabc","amount":"10"}`))
	require.NoError(t, err)
	d2, err := Digest(json.RawMessage(`{"amount":"10","to":"drmabc"}`))
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)

	// Whitespace alone does not.
	d3, err := Digest([]byte(` { "to" : "drmabc" , "amount" : "10" } `))
	require.NoError(t, err)
	assert.Equal(t, d1, d3)
}

func TestDigest(t *testing.T) {
	t.Parallel()
	d1, err := Digest(map[string]int{"b": 1, "a": 2})
	require.NoError(t, err)
	d2, err := Digest(json.RawMessage(`{"a":2,"b":1}`))
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	assert.Equal(t, "d3626ac30a87e6f7a6428233b3c68299976865fa5508e4267c5415c76af7a772", hex.EncodeToString(d1[:]))

	_, err = Digest(json.RawMessage(`nope`))
	require.Error(t, err)
}

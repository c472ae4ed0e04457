package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/drachma/internal/output"
)

var errWriteFailed = errors.New("write failed")

// failingWriter implements io.Writer but always returns an error.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWriteFailed
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected output.Format
	}{
		{"json", output.FormatJSON},
		{" JSON ", output.FormatJSON},
		{"text", output.FormatText},
		{"auto", output.FormatAuto},
		{"", output.FormatAuto},
		{"yaml", output.FormatAuto},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, output.ParseFormat(tt.input))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatJSON))
	// Non-TTY resolves to JSON
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, ""))
	assert.False(t, output.IsTerminal(&buf))
	assert.False(t, output.IsTerminal(nil))
}

func TestFormatter_Result(t *testing.T) {
	t.Parallel()
	v := map[string]string{"address": "drm00"}
	text := func(w io.Writer) error {
		_, err := io.WriteString(w, "Address: drm00\n")
		return err
	}

	var jsonBuf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &jsonBuf)
	require.NoError(t, f.Result(v, text))
	assert.True(t, f.IsJSON())
	assert.JSONEq(t, `{"address":"drm00"}`, jsonBuf.String())
	assert.Contains(t, jsonBuf.String(), "\n  \"address\"")

	var textBuf bytes.Buffer
	f = output.NewFormatter(output.FormatText, &textBuf)
	require.NoError(t, f.Result(v, text))
	assert.Equal(t, "Address: drm00\n", textBuf.String())
	assert.Equal(t, output.FormatText, f.Format())
	assert.Equal(t, &textBuf, f.Writer())

	// Without a text renderer JSON is used.
	textBuf.Reset()
	require.NoError(t, f.Result(v, nil))
	assert.JSONEq(t, `{"address":"drm00"}`, textBuf.String())
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&buf, "wallet deleted", output.FormatJSON))
	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "wallet deleted", result["message"])

	buf.Reset()
	require.NoError(t, output.FormatSuccess(&buf, "wallet deleted", output.FormatText))
	assert.Equal(t, "wallet deleted\n", buf.String())

	require.ErrorIs(t, output.FormatSuccess(failingWriter{}, "x", output.FormatText), errWriteFailed)
}

func TestMessages(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	output.Warnf(&buf, "store at %s", "/tmp")
	output.Successf(&buf, "created account %d", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "store at /tmp")
	assert.Contains(t, lines[1], "created account 1")
}

func TestTable(t *testing.T) {
	t.Parallel()
	table := output.NewTable("#", "Address", "Current")
	table.AlignRight(0)
	table.AddRow("0", "drmcc11", "*")
	table.AddRow("10", "drmd2e8")

	assert.Equal(t,
		" #  Address  Current\n"+
			"--  -------  -------\n"+
			" 0  drmcc11  *\n"+
			"10  drmd2e8\n",
		table.String())
}

func TestTable_UnicodeWidth(t *testing.T) {
	t.Parallel()
	table := output.NewTable("Name", "X")
	table.AddRow("αβγδεζ", "1")
	table.AddRow("ab", "2")

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "αβγδεζ  1", lines[2])
	assert.Equal(t, "ab      2", lines[3])
}

func TestTable_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, output.NewTable().String())
}

func TestTable_WriterError(t *testing.T) {
	t.Parallel()
	table := output.NewTable("a")
	table.AddRow("b")
	require.ErrorIs(t, table.Render(failingWriter{}), errWriteFailed)
}

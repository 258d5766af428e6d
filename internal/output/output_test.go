package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/cosmez/redisflow/internal/resp"
	"github.com/cosmez/redisflow/internal/serializer"
)

func bulk(s string) resp.BulkString { return resp.BulkString{Data: []byte(s)} }

func seqOf(vals ...resp.Value) func(func(resp.Value, error) bool) {
	return func(yield func(resp.Value, error) bool) {
		for _, v := range vals {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func TestPrintValue(t *testing.T) {
	tests := []struct {
		name     string
		value    resp.Value
		opts     PrintOpts
		expected string
	}{
		{"Simple", resp.SimpleString{Value: "OK"}, PrintOpts{Newline: true}, "OK\n"},
		{"Integer", resp.Integer{Value: 42}, PrintOpts{Newline: true}, "(integer) 42\n"},
		{"Bulk", bulk("hello"), PrintOpts{Newline: true}, "\"hello\"\n"},
		{"NullBulk", resp.NullBulk(), PrintOpts{Newline: true}, "(nil)\n"},
		{"NullArray", resp.NullArray(), PrintOpts{Newline: true}, "(nil)\n"},
		{"Error", resp.Error{Message: "ERR unknown command"}, PrintOpts{Newline: true}, "(error) ERR unknown command\n"},
		{"NoNewline", resp.Integer{Value: 1}, PrintOpts{}, "(integer) 1"},
		{
			"Array",
			resp.Array{Values: []resp.Value{resp.SimpleString{Value: "one"}, resp.SimpleString{Value: "two"}}},
			PrintOpts{Newline: true},
			"1) one\n2) two\n",
		},
		{
			"Hash",
			resp.Array{Values: []resp.Value{
				resp.SimpleString{Value: "f1"}, resp.SimpleString{Value: "v1"},
				resp.SimpleString{Value: "f2"}, resp.SimpleString{Value: "v2"},
			}},
			PrintOpts{TypeHint: "hash", Newline: true},
			"#f1=v1\n#f2=v2\n",
		},
		{
			"Stream",
			resp.Array{Values: []resp.Value{resp.SimpleString{Value: "f1"}, resp.SimpleString{Value: "v1"}}},
			PrintOpts{TypeHint: "stream", Newline: true},
			"@f1=v1\n",
		},
		{
			"Nested",
			resp.Array{Values: []resp.Value{
				resp.SimpleString{Value: "one"},
				resp.Array{Values: []resp.Value{resp.SimpleString{Value: "two"}, resp.SimpleString{Value: "three"}}},
			}},
			PrintOpts{Newline: true},
			"1) one\n2) 1) two\n   2) three\n",
		},
		{"Empty", resp.Array{}, PrintOpts{Newline: true}, "(empty array)\n"},
		{
			"Aligned",
			resp.Array{Values: []resp.Value{
				resp.Integer{Value: 1}, resp.Integer{Value: 2}, resp.Integer{Value: 3}, resp.Integer{Value: 4},
				resp.Integer{Value: 5}, resp.Integer{Value: 6}, resp.Integer{Value: 7}, resp.Integer{Value: 8},
				resp.Integer{Value: 9}, resp.Integer{Value: 10},
			}},
			PrintOpts{Newline: true},
			" 1) (integer) 1\n 2) (integer) 2\n 3) (integer) 3\n 4) (integer) 4\n 5) (integer) 5\n" +
				" 6) (integer) 6\n 7) (integer) 7\n 8) (integer) 8\n 9) (integer) 9\n10) (integer) 10\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintValue(&buf, tt.value, tt.opts)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestPrintValueDeserializes(t *testing.T) {
	codec, err := serializer.Get("base64")
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintValue(&buf, bulk("aGVsbG8="), PrintOpts{Serializer: codec, Newline: true})
	assert.Equal(t, "\"hello\"\n", buf.String())

	buf.Reset()
	PrintValue(&buf, bulk("not base64!"), PrintOpts{Serializer: codec, Newline: true})
	assert.Equal(t, "\"not base64!\"\n", buf.String())
}

func TestPrintValueCharset(t *testing.T) {
	var buf bytes.Buffer
	PrintValue(&buf, bulk("caf\xe9"), PrintOpts{Charset: charmap.Windows1252, Newline: true})
	assert.Equal(t, "\"café\"\n", buf.String())
}

func TestPrintValues(t *testing.T) {
	var buf bytes.Buffer
	err := PrintValues(&buf, strings.NewReader(""), seqOf(bulk("one"), bulk("two")), PrintOpts{Newline: true}, 100)
	require.NoError(t, err)
	assert.Equal(t, "1) \"one\"\n2) \"two\"\n", buf.String())
}

func TestPrintValuesPagination(t *testing.T) {
	vals := seqOf(resp.SimpleString{Value: "one"}, resp.SimpleString{Value: "two"}, resp.SimpleString{Value: "three"})

	var buf bytes.Buffer
	require.NoError(t, PrintValues(&buf, strings.NewReader("Y\n"), vals, PrintOpts{Newline: true}, 2))
	assert.Equal(t, "1) one\n2) two\nContinue Listing? (Y/N) 3) three\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintValues(&buf, strings.NewReader("n\n"), vals, PrintOpts{Newline: true}, 2))
	assert.Equal(t, "1) one\n2) two\nContinue Listing? (Y/N) ", buf.String())
}

func TestPrintValuesHashPairs(t *testing.T) {
	pair := resp.Array{Values: []resp.Value{bulk("name"), bulk("Ada")}}
	var buf bytes.Buffer
	require.NoError(t, PrintValues(&buf, strings.NewReader(""), seqOf(pair), PrintOpts{TypeHint: "hash"}, 0))
	assert.Equal(t, "#\"name\"=\"Ada\"\n", buf.String())
}

func TestPrintValuesErrors(t *testing.T) {
	broken := errors.New("connection reset")
	seq := func(yield func(resp.Value, error) bool) {
		if !yield(nil, resp.Error{Message: "WRONGTYPE"}) {
			return
		}
		if !yield(nil, broken) {
			return
		}
		yield(bulk("unreachable"), nil)
	}

	var buf bytes.Buffer
	err := PrintValues(&buf, strings.NewReader(""), seq, PrintOpts{Newline: true}, 0)
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, "1) (error) WRONGTYPE\n", buf.String())
}

func TestConfirm(t *testing.T) {
	in := strings.NewReader("yes\nrest")
	assert.True(t, Confirm(in))

	rest := make([]byte, 4)
	n, _ := in.Read(rest)
	assert.Equal(t, "rest", string(rest[:n]))

	assert.False(t, Confirm(strings.NewReader("\n")))
	assert.False(t, Confirm(strings.NewReader("")))
}

func TestExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "export.txt")
	val := resp.Array{Values: []resp.Value{bulk("one"), resp.NullBulk(), resp.Integer{Value: 3}}}
	require.NoError(t, Export(file, val, nil, ""))

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "one\n(null)\n3\n", string(content))
}

func TestExportPairs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "hash.txt")
	seq := seqOf(
		resp.Array{Values: []resp.Value{bulk("f1"), bulk("v1")}},
		resp.Array{Values: []resp.Value{bulk("f2"), bulk("v2")}},
	)
	require.NoError(t, Export(file, nil, seq, "hash"))

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "f1=v1\nf2=v2\n", string(content))
}

func TestExportIterationError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "partial.txt")
	broken := errors.New("lost")
	seq := func(yield func(resp.Value, error) bool) {
		if yield(bulk("first"), nil) {
			yield(nil, broken)
		}
	}
	assert.ErrorIs(t, Export(file, nil, seq, ""), broken)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(content))
}

func TestPipe(t *testing.T) {
	if _, err := os.Stat("/bin/cat"); err != nil {
		t.Skip("cat not available")
	}
	var buf bytes.Buffer
	val := resp.Array{Values: []resp.Value{bulk("a"), resp.Integer{Value: 2}}}
	require.NoError(t, Pipe(&buf, val, "cat"))
	assert.Equal(t, "a\n2\n", buf.String())
}

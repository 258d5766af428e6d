package resp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestEncoderCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		want string
	}{
		{
			name: "Command only",
			cmd:  NewCommand("PING"),
			want: "*1\r\n$4\r\nPING\r\n",
		},
		{
			name: "Command with arguments",
			cmd:  NewCommand("SET", "key", "value"),
			want: "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n",
		},
		{
			name: "Empty argument",
			cmd:  NewCommand("SET", "k", ""),
			want: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n",
		},
		{
			name: "Byte arguments are untouched",
			cmd:  NewCommandBytes("SET", []byte("k"), []byte{0xff, '\r', '\n'}),
			want: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$3\r\n\xff\r\n\r\n",
		},
		{
			name: "Empty name is dropped",
			cmd:  NewEncoder(nil).Command("", "GET", "k"),
			want: "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n",
		},
		{
			name: "Raw inline command",
			cmd:  RawCommandString("PING\r\n"),
			want: "PING\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.cmd.Bytes()))
			assert.Equal(t, len(tt.want), tt.cmd.Len())
			assert.Equal(t, 1, tt.cmd.Replies())
		})
	}
}

func TestEncoderCharset(t *testing.T) {
	latin := NewEncoder(charmap.Windows1252).Command("SET", "k", "é")
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\n\xe9\r\n", string(latin.Bytes()))

	utf8 := NewEncoder(unicode.UTF8).Command("SET", "k", "é")
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$2\r\n\xc3\xa9\r\n", string(utf8.Bytes()))

	// Unrepresentable runes are replaced, not dropped.
	cjk := NewEncoder(charmap.Windows1252).Command("ECHO", "日")
	assert.Equal(t, "*2\r\n$4\r\nECHO\r\n$1\r\n\x1a\r\n", string(cjk.Bytes()))
}

func TestPipeline(t *testing.T) {
	a := NewCommand("INCR", "n")
	b := NewCommand("GET", "n")
	p := Pipeline(a, b, RawCommandString("PING\r\n"))

	assert.Equal(t, 3, p.Replies())
	assert.Equal(t, a.Len()+b.Len()+6, p.Len())
	assert.True(t, bytes.HasPrefix(p.Bytes(), a.Bytes()))

	multi := RawCommandString("PING\r\nPING\r\n").WithReplies(2)
	assert.Equal(t, 2, multi.Replies())
	assert.Equal(t, 1, multi.WithReplies(0).Replies())
}

func TestPipelineOfNothing(t *testing.T) {
	assert.Nil(t, Pipeline())
	assert.Nil(t, Pipeline(nil, nil))

	p := Pipeline(nil, NewCommand("PING"))
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Replies())
}

func TestCommandWriteTo(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewCommand("GET", "k")

	n, err := cmd.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(cmd.Len()), n)
	assert.Equal(t, cmd.Bytes(), buf.Bytes())
}

func TestCommandBytesIsCopy(t *testing.T) {
	cmd := NewCommand("GET", "k")
	b := cmd.Bytes()
	b[0] = '!'
	assert.Equal(t, byte('*'), cmd.Bytes()[0])
}

package resp

import (
	"bytes"
	"io"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultEncoding converts string arguments to bytes when no other encoding
// is configured. It is a single-byte, ASCII-compatible charset.
var DefaultEncoding encoding.Encoding = charmap.Windows1252

var crlf = []byte{'\r', '\n'}

// Command is one encoded request, ready to be written to the wire.
//
// A Command never changes after it is built. Replies is the number of
// top-level replies the server sends back for it: one for a single command,
// more for a pipelined batch.
type Command struct {
	b       []byte
	replies int
}

// NewCommand encodes name and args with DefaultEncoding.
func NewCommand(name string, args ...string) *Command {
	return NewEncoder(nil).Command(name, args...)
}

// NewCommandBytes encodes name with DefaultEncoding and passes args through
// untouched.
func NewCommandBytes(name string, args ...[]byte) *Command {
	return NewEncoder(nil).CommandBytes(name, args...)
}

// RawCommand wraps bytes that are already in wire form, such as an inline
// "PING\r\n" or a hand-built batch. The bytes are copied.
func RawCommand(b []byte) *Command {
	return &Command{b: bytes.Clone(b), replies: 1}
}

// RawCommandString is RawCommand for a string.
func RawCommandString(s string) *Command {
	return &Command{b: []byte(s), replies: 1}
}

// Pipeline joins several commands into one frame. The result expects the sum
// of their replies, in order. Nil commands are skipped; with nothing left to
// send Pipeline returns nil.
func Pipeline(cmds ...*Command) *Command {
	size, n := 0, 0
	for _, c := range cmds {
		if c != nil {
			size += len(c.b)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	p := &Command{b: make([]byte, 0, size)}
	for _, c := range cmds {
		if c == nil {
			continue
		}
		p.b = append(p.b, c.b...)
		p.replies += c.replies
	}
	return p
}

// Bytes returns a copy of the encoded request.
func (c *Command) Bytes() []byte { return bytes.Clone(c.b) }

// AppendTo appends the encoded request to dst.
func (c *Command) AppendTo(dst []byte) []byte { return append(dst, c.b...) }

// Len returns the encoded size in bytes.
func (c *Command) Len() int { return len(c.b) }

// Replies returns the number of top-level replies expected for c.
func (c *Command) Replies() int { return c.replies }

// WithReplies returns a copy of c that expects n top-level replies. It is
// meant for raw frames holding several pipelined commands.
func (c *Command) WithReplies(n int) *Command {
	if n < 1 {
		n = 1
	}
	return &Command{b: c.b, replies: n}
}

// WriteTo writes the encoded request to w.
func (c *Command) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.b)
	return int64(n), err
}

func (c *Command) String() string { return strconv.Quote(string(c.b)) }

// Encoder builds commands, converting string arguments with a configurable
// encoding. It is safe for concurrent use.
type Encoder struct {
	charset encoding.Encoding
}

// NewEncoder returns an Encoder using charset, or DefaultEncoding when
// charset is nil.
func NewEncoder(charset encoding.Encoding) *Encoder {
	if charset == nil {
		charset = DefaultEncoding
	}
	return &Encoder{charset: charset}
}

// Charset returns the encoding used for string arguments.
func (e *Encoder) Charset() encoding.Encoding { return e.charset }

// Command encodes a command name followed by string arguments. An empty name
// is left out of the frame.
func (e *Encoder) Command(name string, args ...string) *Command {
	parts := make([][]byte, 0, len(args)+1)
	if name != "" {
		parts = append(parts, e.Encode(name))
	}
	for _, a := range args {
		parts = append(parts, e.Encode(a))
	}
	return &Command{b: appendFrame(nil, parts), replies: 1}
}

// CommandBytes encodes a command name followed by raw byte arguments. An
// empty name is left out of the frame.
func (e *Encoder) CommandBytes(name string, args ...[]byte) *Command {
	parts := make([][]byte, 0, len(args)+1)
	if name != "" {
		parts = append(parts, e.Encode(name))
	}
	parts = append(parts, args...)
	return &Command{b: appendFrame(nil, parts), replies: 1}
}

// Args frames raw arguments with no separate command name.
func (e *Encoder) Args(args ...[]byte) *Command {
	return &Command{b: appendFrame(nil, args), replies: 1}
}

// Encode converts s with the encoder's charset. It never fails: runes the
// charset cannot represent are replaced.
func (e *Encoder) Encode(s string) []byte {
	// Encoders carry transform state, so a fresh one is used per call.
	enc := encoding.ReplaceUnsupported(e.charset.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}

// appendFrame appends the array-of-bulk-strings form of args to dst:
// *<N>\r\n then $<len>\r\n<bytes>\r\n per argument.
func appendFrame(dst []byte, args [][]byte) []byte {
	size := 16
	for _, a := range args {
		size += len(a) + 16
	}
	if dst == nil {
		dst = make([]byte, 0, size)
	}

	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, crlf...)
	for _, a := range args {
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(a)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, a...)
		dst = append(dst, crlf...)
	}
	return dst
}

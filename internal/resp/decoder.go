package resp

import (
	"io"
	"strconv"

	"github.com/cosmez/redisflow/internal/bytesutil"
)

// BufferSize is the capacity of the receive buffer owned by a Decoder.
const BufferSize = 1000

// MaxBulkSize is the largest bulk string length the decoder accepts.
const MaxBulkSize = 512 << 20

// MaxLineSize is the longest header or simple line, CRLF excluded.
const MaxLineSize = 64 << 10

// MaxDepth is the deepest array nesting the decoder accepts.
const MaxDepth = 128

// preallocation cap for declared lengths, so a hostile header cannot make us
// allocate gigabytes before any data arrives.
const maxPrealloc = 64 << 10

type opKind uint8

const (
	opFrameTag   opKind = iota // read one marker byte
	opLine                     // accumulate up to CRLF
	opFixed                    // accumulate exactly n bytes of bulk body
	opArray                    // collect n elements
	opTerminator               // consume the CRLF after a bulk body
	opErrorBody                // waiting for the text of an error frame
)

// lineKind records what a completed line is for.
type lineKind uint8

const (
	lineStatus lineKind = iota
	lineInteger
	lineBulkLen
	lineArrayLen
	lineError
)

// op is one pending parse operation. Only the fields of its kind are used.
type op struct {
	kind  opKind
	line  lineKind
	sized bool    // opFixed, opArray: header has been read
	n     int     // opFixed: body size; opArray: element count
	buf   []byte  // opLine, opFixed
	elems []Value // opArray
	cr    bool    // opTerminator: CR already consumed
}

// Decoder turns a byte stream, fed in chunks of any size, into complete
// top-level replies.
//
// It keeps an explicit stack of pending operations so that Feed can stop at
// any byte and resume on the next call: a header line split across reads, a
// bulk body larger than one read, or a CRLF split between two reads are all
// picked up where they were left.
//
// A Decoder is not safe for concurrent use; it belongs to the single
// goroutine reading the connection.
type Decoder struct {
	stack   []op
	out     []Value
	deliver func(Value)
	err     error

	buf [BufferSize]byte
}

// NewDecoder returns a Decoder that hands every completed top-level reply to
// deliver, in order, from inside Feed. If deliver is nil, replies accumulate
// until Drain is called.
func NewDecoder(deliver func(Value)) *Decoder {
	return &Decoder{
		stack:   make([]op, 0, 8),
		deliver: deliver,
	}
}

// Feed consumes every byte of p.
//
// A protocol violation is fatal: it is returned now and from every later
// call, and no further replies are produced.
func (d *Decoder) Feed(p []byte) error {
	if d.err != nil {
		return d.err
	}

	i := 0
	for i < len(p) {
		if len(d.stack) == 0 {
			d.push(op{kind: opFrameTag})
		}

		var err error
		switch d.top().kind {
		case opFrameTag:
			err = d.frameTag(p[i], i)
			i++
		case opLine:
			i, err = d.readLine(p, i)
		case opFixed:
			i = d.readFixed(p, i)
		case opArray:
			// Consumes nothing: start decoding the next element.
			d.push(op{kind: opFrameTag})
		case opTerminator:
			i, err = d.readTerminator(p, i)
		default:
			err = protocolErrorf(i, "unexpected parser state %d", d.top().kind)
		}
		if err != nil {
			d.err = err
			return err
		}

		d.collapse()
		if len(d.stack) == 0 {
			d.flush()
		}
	}
	return nil
}

// ReadOnce performs a single Read from r into the decoder's receive buffer
// and feeds whatever was read. A protocol violation takes precedence over the
// read error.
func (d *Decoder) ReadOnce(r io.Reader) (int, error) {
	n, err := r.Read(d.buf[:])
	if n > 0 {
		if ferr := d.Feed(d.buf[:n]); ferr != nil {
			return n, ferr
		}
	}
	return n, err
}

// Drain returns the completed replies that have not been delivered and
// forgets them. It is only useful when the decoder has no deliver callback.
func (d *Decoder) Drain() []Value {
	out := d.out
	d.out = nil
	return out
}

// InProgress reports whether a frame has been started but not finished.
func (d *Decoder) InProgress() bool { return len(d.stack) > 0 }

// Err returns the protocol violation that stopped the decoder, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) top() *op { return &d.stack[len(d.stack)-1] }

func (d *Decoder) push(o op) { d.stack = append(d.stack, o) }

func (d *Decoder) arrayDepth() int {
	n := 0
	for _, o := range d.stack {
		if o.kind == opArray {
			n++
		}
	}
	return n
}

func (d *Decoder) pop() {
	d.stack[len(d.stack)-1] = op{}
	d.stack = d.stack[:len(d.stack)-1]
}

// frameTag replaces the frame-tag operation with the ones needed to decode
// the frame announced by marker b. Header lines always go on top.
func (d *Decoder) frameTag(b byte, offset int) error {
	d.pop()
	switch b {
	case '+':
		d.push(op{kind: opLine, line: lineStatus})
	case '-':
		d.push(op{kind: opErrorBody})
		d.push(op{kind: opLine, line: lineError})
	case ':':
		d.push(op{kind: opLine, line: lineInteger})
	case '$':
		d.push(op{kind: opFixed})
		d.push(op{kind: opLine, line: lineBulkLen})
	case '*':
		if d.arrayDepth() >= MaxDepth {
			return protocolErrorf(offset, "arrays nested deeper than %d", MaxDepth)
		}
		d.push(op{kind: opArray})
		d.push(op{kind: opLine, line: lineArrayLen})
	default:
		return protocolErrorf(offset, "unknown frame marker %q", b)
	}
	return nil
}

// readLine accumulates bytes until CRLF. If no terminator is available the
// bytes are kept and the operation stays on the stack.
func (d *Decoder) readLine(p []byte, i int) (int, error) {
	top := d.top()

	var line []byte
	if n := len(top.buf); n > 0 && top.buf[n-1] == '\r' && p[i] == '\n' {
		// CR ended the previous chunk.
		line = top.buf[:n-1]
		i++
	} else {
		k := bytesutil.IndexOf(p[i:], crlf, 0, false)
		if k < 0 {
			if len(top.buf)+len(p)-i > MaxLineSize+1 {
				return i, protocolErrorf(i, "line longer than %d bytes", MaxLineSize)
			}
			top.buf = append(top.buf, p[i:]...)
			return len(p), nil
		}
		if len(top.buf)+k > MaxLineSize {
			return i, protocolErrorf(i, "line longer than %d bytes", MaxLineSize)
		}
		line = append(top.buf, p[i:i+k]...)
		i += k + len(crlf)
	}

	kind := top.line
	d.pop()
	return i, d.completeLine(kind, line, i)
}

// completeLine routes a finished line to whatever requested it.
func (d *Decoder) completeLine(kind lineKind, line []byte, offset int) error {
	switch kind {
	case lineStatus:
		d.emit(SimpleString{Value: string(line)})

	case lineError:
		if len(d.stack) == 0 || d.top().kind != opErrorBody {
			return protocolErrorf(offset, "error text without error frame")
		}
		d.pop()
		d.emit(Error{Message: string(line)})

	case lineInteger:
		v, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return protocolErrorf(offset, "invalid integer %q", line)
		}
		d.emit(Integer{Value: v})

	case lineBulkLen:
		n, err := parseLength(line, offset)
		if err != nil {
			return err
		}
		if n > MaxBulkSize {
			return protocolErrorf(offset, "bulk string length %d exceeds limit", n)
		}
		if len(d.stack) == 0 || d.top().kind != opFixed {
			return protocolErrorf(offset, "bulk length without bulk frame")
		}
		if n < 0 {
			d.pop()
			d.emit(NullBulk())
			return nil
		}
		top := d.top()
		top.sized = true
		top.n = n
		top.buf = make([]byte, 0, min(n, maxPrealloc))
		if n == 0 {
			d.finishFixed()
		}

	case lineArrayLen:
		n, err := parseLength(line, offset)
		if err != nil {
			return err
		}
		if len(d.stack) == 0 || d.top().kind != opArray {
			return protocolErrorf(offset, "array length without array frame")
		}
		if n < 0 {
			d.pop()
			d.emit(NullArray())
			return nil
		}
		top := d.top()
		top.sized = true
		top.n = n
		top.elems = make([]Value, 0, min(n, maxPrealloc))
	}
	return nil
}

// readFixed accumulates the declared number of body bytes, possibly over
// several calls.
func (d *Decoder) readFixed(p []byte, i int) int {
	top := d.top()
	take := min(top.n-len(top.buf), len(p)-i)
	top.buf = append(top.buf, p[i:i+take]...)
	i += take
	if len(top.buf) == top.n {
		d.finishFixed()
	}
	return i
}

// finishFixed pops a complete bulk body, emits it, and expects the trailing
// CRLF next.
func (d *Decoder) finishFixed() {
	data := d.top().buf
	d.pop()
	d.emit(BulkString{Data: data})
	d.push(op{kind: opTerminator})
}

func (d *Decoder) readTerminator(p []byte, i int) (int, error) {
	top := d.top()
	if !top.cr {
		if p[i] != '\r' {
			return i, protocolErrorf(i, "expected CR after bulk string, got %q", p[i])
		}
		top.cr = true
		i++
		if i == len(p) {
			return i, nil
		}
	}
	if p[i] != '\n' {
		return i, protocolErrorf(i, "expected LF after bulk string, got %q", p[i])
	}
	d.pop()
	return i + 1, nil
}

// emit adds v to the innermost array still collecting elements, or to the
// output when no array encloses it.
func (d *Decoder) emit(v Value) {
	if n := len(d.stack); n > 0 {
		top := &d.stack[n-1]
		if top.kind == opArray && top.sized && len(top.elems) < top.n {
			top.elems = append(top.elems, v)
			return
		}
	}
	d.out = append(d.out, v)
}

// collapse pops every completed array on top of the stack, folding each into
// its parent.
func (d *Decoder) collapse() {
	for len(d.stack) > 0 {
		top := d.top()
		if top.kind != opArray || !top.sized || len(top.elems) < top.n {
			return
		}
		elems := top.elems
		d.pop()
		d.emit(Array{Values: elems})
	}
}

// flush delivers finished top-level replies.
func (d *Decoder) flush() {
	if d.deliver == nil || len(d.out) == 0 {
		return
	}
	out := d.out
	d.out = nil
	for _, v := range out {
		d.deliver(v)
	}
}

func parseLength(line []byte, offset int) (int, error) {
	n, err := strconv.Atoi(string(line))
	if err != nil {
		return 0, protocolErrorf(offset, "invalid length %q", line)
	}
	if n < -1 {
		return 0, protocolErrorf(offset, "invalid length %d", n)
	}
	return n, nil
}

// Package output renders reply values for the terminal, for shell pipes and
// for export files.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding"

	"github.com/cosmez/redisflow/internal/resp"
	"github.com/cosmez/redisflow/internal/serializer"
)

// PrintOpts configures how a value is printed.
type PrintOpts struct {
	Color      bool
	Serializer serializer.Serializer
	Charset    encoding.Encoding // decodes bulk payloads for display, nil leaves bytes as is
	Padding    string
	TypeHint   string // "hash" or "stream" switch to field=value layout
	Newline    bool
}

var (
	colorString  = color.New(color.FgHiBlue)
	colorInteger = color.New(color.FgHiGreen)
	colorError   = color.New(color.FgRed, color.Bold)
	colorNull    = color.New(color.FgHiBlack)
	colorPrompt  = color.New(color.FgHiYellow)
	colorIndex   = color.New(color.FgHiBlack)
)

func digitWidth(n int) int {
	w := 1
	for n >= 10 {
		w++
		n /= 10
	}
	return w
}

func fprint(w io.Writer, c *color.Color, useColor bool, s string) {
	if useColor && c != nil {
		c.Fprint(w, s)
		return
	}
	fmt.Fprint(w, s)
}

// Confirm reads one line from r without buffering past it and reports
// whether it starts with y or Y. Reading byte by byte keeps the rest of the
// input for the line editor.
func Confirm(r io.Reader) bool {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if err != nil {
			break
		}
	}
	ans := strings.TrimSpace(string(line))
	return ans != "" && (ans[0] == 'Y' || ans[0] == 'y')
}

// PrintValues prints every value of seq, asking on r whether to go on after
// each warningAt entries. Server errors are printed in place; any other
// error ends the listing and is returned.
func PrintValues(w io.Writer, r io.Reader, seq iter.Seq2[resp.Value, error], opts PrintOpts, warningAt int) error {
	i := 0
	for v, err := range seq {
		if err != nil {
			var serverErr resp.Error
			if !errors.As(err, &serverErr) {
				return err
			}
			v = serverErr
		}
		i++

		switch opts.TypeHint {
		case "stream":
			entry, ok := v.(resp.Array)
			if !ok || len(entry.Values) < 2 {
				PrintValue(w, v, opts)
				break
			}
			idOpts := opts
			idOpts.TypeHint = ""
			idOpts.Newline = false
			PrintValue(w, entry.Values[0], idOpts)

			fieldOpts := opts
			fieldOpts.Padding = " "
			fieldOpts.Newline = false
			PrintValue(w, entry.Values[1], fieldOpts)
		case "hash", "zset":
			pairOpts := opts
			pairOpts.TypeHint = "hash"
			pairOpts.Newline = false
			PrintValue(w, v, pairOpts)
		default:
			fprint(w, colorIndex, opts.Color, fmt.Sprintf("%d) ", i))
			PrintValue(w, v, opts)
		}

		if warningAt > 0 && i%warningAt == 0 {
			fmt.Fprint(w, "Continue Listing? ")
			fprint(w, colorPrompt, opts.Color, "(Y/N) ")
			if !Confirm(r) {
				break
			}
		}
	}
	return nil
}

// PrintValue writes v to w the way redis-cli does: quoted bulk strings,
// "(integer)" prefixes and right-aligned indices for arrays.
func PrintValue(w io.Writer, v resp.Value, opts PrintOpts) {
	if v == nil {
		return
	}

	arr, isArray := v.(resp.Array)
	if !isArray || arr.Null {
		printScalar(w, v, opts)
		return
	}

	if len(arr.Values) == 0 {
		fprint(w, colorNull, opts.Color, "(empty array)")
		if opts.Newline {
			fmt.Fprintln(w)
		}
		return
	}

	if opts.TypeHint == "hash" || opts.TypeHint == "stream" {
		printPairs(w, arr, opts)
		return
	}

	digits := digitWidth(len(arr.Values))
	for i, elem := range arr.Values {
		// The first element sits on the line the parent already started.
		if i > 0 {
			fmt.Fprint(w, opts.Padding)
		}
		fprint(w, colorIndex, opts.Color, fmt.Sprintf("%*d) ", digits, i+1))

		child := opts
		child.Padding = opts.Padding + strings.Repeat(" ", digits+2)
		child.Newline = false
		child.TypeHint = ""
		PrintValue(w, elem, child)

		// A non-empty nested array already ended its last line.
		if nested, ok := elem.(resp.Array); ok && !nested.Null && len(nested.Values) > 0 {
			continue
		}
		fmt.Fprintln(w)
	}
}

func printPairs(w io.Writer, arr resp.Array, opts PrintOpts) {
	marker := "#"
	if opts.TypeHint == "stream" {
		marker = "@"
	}
	if opts.Padding != "" {
		fmt.Fprintln(w)
	}

	child := opts
	child.Padding = opts.Padding + "  "
	child.Newline = false
	child.TypeHint = ""
	for i := 0; i < len(arr.Values); i += 2 {
		fmt.Fprint(w, opts.Padding+marker)
		PrintValue(w, arr.Values[i], child)
		if i+1 < len(arr.Values) {
			fmt.Fprint(w, "=")
			PrintValue(w, arr.Values[i+1], child)
		}
		fmt.Fprintln(w)
	}
}

func printScalar(w io.Writer, v resp.Value, opts PrintOpts) {
	var (
		text string
		c    *color.Color
	)
	switch val := v.(type) {
	case resp.SimpleString:
		text, c = decodeWith(opts.Serializer, nil, []byte(val.Value)), colorString
	case resp.BulkString:
		if val.Null {
			text, c = "(nil)", colorNull
		} else {
			text, c = `"`+decodeWith(opts.Serializer, opts.Charset, val.Data)+`"`, colorString
		}
	case resp.Array:
		text, c = "(nil)", colorNull
	case resp.Integer:
		text, c = "(integer) "+val.StringValue(), colorInteger
	case resp.Error:
		text, c = "(error) "+val.Message, colorError
	default:
		text = v.StringValue()
	}

	fprint(w, c, opts.Color, text)
	if opts.Newline {
		fmt.Fprintln(w)
	}
}

// decodeWith runs the payload through s, then through charset. A step that
// fails leaves the payload as it was.
func decodeWith(s serializer.Serializer, charset encoding.Encoding, data []byte) string {
	if s != nil {
		if out, err := s.Deserialize(data); err == nil {
			data = out
		}
	}
	if charset != nil {
		if out, err := charset.NewDecoder().Bytes(data); err == nil {
			data = out
		}
	}
	return string(data)
}

// PrintError writes a client-side failure in the error colour.
func PrintError(w io.Writer, err error, opts PrintOpts) {
	fprint(w, colorError, opts.Color, "(error) "+err.Error())
	fmt.Fprintln(w)
}

// Pipe feeds the raw text of v to shellCmd and copies its output to w.
func Pipe(w io.Writer, v resp.Value, shellCmd string) error {
	args := strings.Fields(shellCmd)
	if len(args) == 0 {
		return nil
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = w
	cmd.Stderr = w
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}

	bw := bufio.NewWriter(stdin)
	writeRaw(bw, v)
	err = multierr.Combine(bw.Flush(), stdin.Close())
	return multierr.Append(err, cmd.Wait())
}

func writeRaw(w io.Writer, v resp.Value) {
	switch val := v.(type) {
	case nil:
	case resp.Array:
		for _, elem := range val.Values {
			writeRaw(w, elem)
		}
	case resp.BulkString:
		w.Write(val.Data)
		fmt.Fprintln(w)
	default:
		fmt.Fprintln(w, v.StringValue())
	}
}

// Export writes v, then every value of values, to filename as plain text.
// Hash and sorted-set pairs are written as field=value lines.
func Export(filename string, v resp.Value, values iter.Seq2[resp.Value, error], typeHint string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	bw := bufio.NewWriter(f)
	if v != nil {
		writeExport(bw, v, typeHint)
	}
	if values != nil {
		for val, iterErr := range values {
			if iterErr != nil {
				return multierr.Append(iterErr, bw.Flush())
			}
			writeExport(bw, val, typeHint)
		}
	}
	return bw.Flush()
}

func writeExport(w io.Writer, v resp.Value, typeHint string) {
	arr, ok := v.(resp.Array)
	if !ok || arr.Null {
		fmt.Fprintln(w, exportText(v))
		return
	}

	pairs := typeHint == "hash" || typeHint == "zset"
	for i := 0; i < len(arr.Values); i++ {
		fmt.Fprint(w, exportText(arr.Values[i]))
		if pairs && i+1 < len(arr.Values) {
			i++
			fmt.Fprint(w, "="+exportText(arr.Values[i]))
		}
		fmt.Fprintln(w)
	}
}

func exportText(v resp.Value) string {
	if resp.IsNull(v) {
		return "(null)"
	}
	if arr, ok := v.(resp.Array); ok {
		parts := make([]string, 0, len(arr.Values))
		for _, elem := range arr.Values {
			parts = append(parts, exportText(elem))
		}
		return strings.Join(parts, " ")
	}
	return v.StringValue()
}

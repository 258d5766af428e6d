package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cosmez/redisflow/internal/command"
	"github.com/cosmez/redisflow/internal/conn"
	"github.com/cosmez/redisflow/internal/serializer"
)

// completer completes the command word and, after "#:", a codec name.
type completer struct {
	reg *command.Registry
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	if i := strings.LastIndex(text, "#:"); i != -1 {
		prefix := text[i+2:]
		var out [][]rune
		for _, name := range serializer.Names() {
			if strings.HasPrefix(name, strings.ToLower(prefix)) {
				out = append(out, []rune(name[len(prefix):]))
			}
		}
		return out, len([]rune(prefix))
	}

	if strings.ContainsAny(text, " \t") {
		return nil, 0
	}
	// Compound names complete one word at a time.
	var words []string
	for _, name := range c.reg.GetCommands(text) {
		rest, _, _ := strings.Cut(name[len(text):], " ")
		words = append(words, rest+" ")
	}
	var out [][]rune
	for _, w := range slices.Compact(words) {
		out = append(out, []rune(w))
	}
	return out, len([]rune(text))
}

// hinter draws "<COMMAND> <args> - <summary>" below the input line. Paint
// clears a stale hint; OnChange writes the new one straight to the terminal
// after readline has positioned the cursor, so readline's own cursor
// bookkeeping is left alone.
type hinter struct {
	reg       *command.Registry
	promptLen int
	termWidth int
}

func (h *hinter) Paint(line []rune, _ int) []rune {
	out := make([]rune, len(line), len(line)+3)
	copy(out, line)
	return append(out, []rune("\033[J")...)
}

func (h *hinter) OnChange(line []rune, pos int, _ rune) ([]rune, int, bool) {
	if len(line) == 0 {
		return nil, 0, false
	}
	text := string(line)
	name, rest, hasArgs := strings.Cut(text, " ")

	// Upper-case a known command word as it is typed.
	if upper := strings.ToUpper(name); name != upper && h.reg.Get(upper) != nil {
		return []rune(upper + text[len(name):]), pos, true
	}
	if !hasArgs || name == "" {
		return nil, 0, false
	}

	doc := h.reg.Lookup(strings.ToUpper(name), strings.Fields(rest))
	if doc == nil {
		return nil, 0, false
	}
	hint := doc.Command + " " + doc.Arguments

	rows := 1
	if width := 2 + len(hint) + 3 + len(doc.Summary); h.termWidth > 0 {
		rows = (width + h.termWidth - 1) / h.termWidth
	}
	// newline, clear line, hint, then back up and over to the cursor.
	fmt.Fprintf(os.Stdout, "\n\r\033[K  \033[36m%s\033[0m\033[34m - %s\033[0m\033[%dA\r\033[%dC",
		hint, doc.Summary, rows, h.promptLen+pos)
	return nil, 0, false
}

func prompt(c *conn.Connection) string {
	return c.Config().Addr() + "> "
}

func runRepl(ctx context.Context, f *flags, log *zap.Logger) error {
	c, err := conn.Dial(ctx, f.cfg, conn.WithLogger(log))
	if err != nil {
		return err
	}
	s := newSession(c, command.NewRegistry(), log)
	s.color = !f.noColor
	defer func() { s.c.Close() }()

	s.mergeServerCommands(ctx)
	s.printConnectionInfo(ctx)

	home, _ := os.UserHomeDir()
	width, _, _ := term.GetSize(int(os.Stdout.Fd()))
	h := &hinter{reg: s.reg, promptLen: len(prompt(c)), termWidth: width}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(c),
		HistoryFile:     filepath.Join(home, ".redisflow_history"),
		AutoComplete:    &completer{reg: s.reg},
		Painter:         h,
		Listener:        h,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	s.onConnect = func(next *conn.Connection) {
		rl.SetPrompt(prompt(next))
		h.promptLen = len(prompt(next))
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parsed, err := command.Parse(line, s.reg, s.c.Encoder())
		if err != nil {
			s.fail("Parse error: %v", err)
			continue
		}
		if !s.handle(ctx, parsed) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		// The window may have been resized.
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			h.termWidth = w
		}
	}
}

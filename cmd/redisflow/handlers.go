package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cosmez/redisflow/internal/command"
	"github.com/cosmez/redisflow/internal/conn"
	"github.com/cosmez/redisflow/internal/output"
	"github.com/cosmez/redisflow/internal/resp"
)

// pageSize is how many entries are listed before asking to continue.
const pageSize = 100

// handle runs one parsed line. It returns false when the REPL should exit.
func (s *session) handle(ctx context.Context, parsed *command.ParsedCommand) bool {
	switch parsed.Name {
	case "":
	case "EXIT":
		return false
	case "CLEAR":
		fmt.Fprint(s.out, "\033[2J\033[H")
	case "HELP":
		s.handleHelp(parsed)
	case "CONNECT":
		s.handleConnect(ctx, parsed)
	case "SAFEKEYS":
		s.handleSafeKeys(ctx, parsed)
	case "VIEW":
		s.handleView(ctx, parsed)
	case "EXPORT":
		s.handleExport(ctx, parsed)
	case "PIPE":
		s.handlePipe(ctx, parsed)
	case "STATS":
		s.handleStats()
	default:
		s.handleStandard(ctx, parsed)
	}
	return true
}

func (s *session) handleHelp(parsed *command.ParsedCommand) {
	if len(parsed.Args) == 0 {
		s.warn("Usage: HELP <command>")
		for _, doc := range s.reg.Search("") {
			if doc.Group == "application" {
				s.say(colorInfo, "  %-9s %s", doc.Command, doc.Summary)
			}
		}
		return
	}

	doc := s.reg.Lookup(strings.ToUpper(parsed.Args[0]), parsed.Args[1:])
	if doc == nil {
		s.fail("Unknown command: %s", strings.ToUpper(parsed.Args[0]))
		return
	}
	s.say(colorInfo, "%s %s", doc.Command, doc.Arguments)
	if doc.Summary != "" {
		fmt.Fprintln(s.out, doc.Summary)
	}
	if doc.Since != "" {
		s.say(colorNote, "Since: %s", doc.Since)
	}
}

// handleConnect switches to another server. Missing arguments keep the
// current value; three arguments mean host port password.
func (s *session) handleConnect(ctx context.Context, parsed *command.ParsedCommand) {
	cfg := s.c.Config()
	args := parsed.Args
	if len(args) > 0 {
		cfg.Host = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			s.fail("Invalid port %q", args[1])
			return
		}
		cfg.Port = port
	}
	switch {
	case len(args) == 3:
		cfg.Username, cfg.Password = "", args[2]
	case len(args) >= 4:
		cfg.Username, cfg.Password = args[2], args[3]
	}
	if err := cfg.Validate(); err != nil {
		s.fail("Invalid connection settings: %v", err)
		return
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	next, err := conn.Dial(dialCtx, cfg, s.connOpts...)
	if err != nil {
		s.fail("Connection failed: %v", err)
		return
	}

	if err := s.c.Close(); err != nil {
		s.log.Debug("closing previous connection", zap.Error(err))
	}
	s.c = next
	s.mergeServerCommands(ctx)
	if s.onConnect != nil {
		s.onConnect(next)
	}
	s.printConnectionInfo(ctx)
}

func (s *session) handleSafeKeys(ctx context.Context, parsed *command.ParsedCommand) {
	pattern := "*"
	if len(parsed.Args) > 0 {
		pattern = parsed.Args[0]
	}
	opts, _ := s.printOpts("")
	if err := output.PrintValues(s.out, s.in, s.c.SafeKeys(ctx, pattern), opts, pageSize); err != nil {
		s.fail("Error: %v", err)
	}
}

func (s *session) handleView(ctx context.Context, parsed *command.ParsedCommand) {
	if len(parsed.Args) == 0 {
		s.fail("Usage: VIEW <key>")
		return
	}
	opts, err := s.printOpts(parsed.Modifier)
	if err != nil {
		s.fail("Serializer error: %v", err)
		return
	}

	kv, err := s.c.GetKeyValue(ctx, parsed.Args[0])
	if err != nil {
		s.fail("Error: %v", err)
		return
	}
	if kv.Single != nil {
		output.PrintValue(s.out, kv.Single, opts)
		return
	}
	opts.TypeHint = kv.Type
	if err := output.PrintValues(s.out, s.in, kv.Collection, opts, pageSize); err != nil {
		s.fail("Error: %v", err)
	}
}

func (s *session) handleExport(ctx context.Context, parsed *command.ParsedCommand) {
	if len(parsed.Args) < 2 {
		s.fail("Usage: EXPORT <filename> <command> [args...]")
		return
	}
	filename := parsed.Args[0]
	sub, err := command.Parse(joinArgs(parsed.Args[1:]), s.reg, s.c.Encoder())
	if err != nil {
		s.fail("Parse error: %v", err)
		return
	}

	if sub.Name == "VIEW" {
		if len(sub.Args) == 0 {
			s.fail("Usage: EXPORT <filename> VIEW <key>")
			return
		}
		kv, err := s.c.GetKeyValue(ctx, sub.Args[0])
		if err != nil {
			s.fail("Error: %v", err)
			return
		}
		s.exported(filename, output.Export(filename, kv.Single, kv.Collection, kv.Type))
		return
	}
	if s.reg.IsApplication(sub.Name) {
		s.fail("%s cannot be exported", sub.Name)
		return
	}

	vals, err := s.exec(ctx, sub)
	if err != nil {
		s.fail("Error: %v", err)
		return
	}
	s.exported(filename, output.Export(filename, vals[0], nil, ""))
}

func (s *session) exported(filename string, err error) {
	if err != nil {
		s.fail("Export failed: %v", err)
		return
	}
	s.say(colorOK, "Exported to %s", filename)
}

// handlePipe sends every statement after PIPE in one write and prints the
// replies in order.
func (s *session) handlePipe(ctx context.Context, parsed *command.ParsedCommand) {
	_, rest, _ := strings.Cut(strings.TrimSpace(parsed.Text), " ")
	stmts, frame, err := command.ParsePipeline(rest, s.reg, s.c.Encoder())
	if err != nil {
		s.fail("Usage: PIPE <command> [; <command> ...]: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	vals, err := s.c.Exec(ctx, frame)
	if err != nil {
		s.fail("Error: %v", err)
		return
	}
	for i, v := range vals {
		s.say(colorNote, "[%d] %s", i+1, strings.TrimSpace(stmts[i].Text))
		opts, err := s.printOpts(stmts[i].Modifier)
		if err != nil {
			s.fail("Serializer error: %v", err)
			continue
		}
		output.PrintValue(s.out, v, opts)
	}
}

func (s *session) handleStats() {
	st := s.c.Stats()
	s.say(colorInfo, "Commands:          %d", st.Commands)
	s.say(colorInfo, "Replies:           %d", st.Replies)
	s.say(colorInfo, "Server errors:     %d", st.ServerErrors)
	s.say(colorInfo, "Connection errors: %d", st.ConnectionErrors)
	s.say(colorInfo, "Pending:           %d", st.Pending)
}

func (s *session) handleStandard(ctx context.Context, parsed *command.ParsedCommand) {
	if s.reg.IsDangerous(parsed.Name) {
		s.warn("The command %s is considered dangerous to execute, execute anyway? (Y/N)", parsed.Name)
		if parsed.Name == "KEYS" {
			s.say(colorInfo, "Hint: You can execute SAFEKEYS or SCAN instead.")
		}
		if !output.Confirm(s.in) {
			s.warn("Aborted.")
			return
		}
	}

	opts, err := s.printOpts(parsed.Modifier)
	if err != nil {
		s.fail("Serializer error: %v", err)
		return
	}
	vals, err := s.exec(ctx, parsed)
	if err != nil {
		s.fail("Error: %v", err)
		return
	}

	if parsed.Pipe != "" {
		if err := output.Pipe(s.out, vals[0], parsed.Pipe); err != nil {
			s.fail("Pipe error: %v", err)
		}
		return
	}
	output.PrintValue(s.out, vals[0], opts)
}

// exec sends one command, bounded by the reply timeout unless it blocks
// server side.
func (s *session) exec(ctx context.Context, parsed *command.ParsedCommand) ([]resp.Value, error) {
	if !s.reg.IsBlocking(parsed.Name) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	vals, err := s.c.Exec(ctx, parsed.Frame)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("no reply within %s", s.timeout)
	}
	return vals, err
}

// joinArgs rebuilds a command line from tokens, quoting the ones the
// tokenizer would otherwise split.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"\\") {
			a = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(a) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

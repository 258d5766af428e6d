package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/cosmez/redisflow/internal/command"
	"github.com/cosmez/redisflow/internal/conn"
	"github.com/cosmez/redisflow/internal/output"
	"github.com/cosmez/redisflow/internal/serializer"
)

// replyTimeout bounds how long the REPL waits for a non-blocking command.
const replyTimeout = 5 * time.Second

var (
	colorFail = color.New(color.FgRed)
	colorWarn = color.New(color.FgYellow)
	colorOK   = color.New(color.FgGreen)
	colorInfo = color.New(color.FgCyan)
	colorNote = color.New(color.FgBlue)
)

// session is the state shared by the REPL handlers.
type session struct {
	c        *conn.Connection
	reg      *command.Registry
	log      *zap.Logger
	out      io.Writer
	in       io.Reader
	color    bool
	timeout  time.Duration
	connOpts []conn.Option

	// onConnect runs after CONNECT switches servers.
	onConnect func(*conn.Connection)
}

func newSession(c *conn.Connection, reg *command.Registry, log *zap.Logger, opts ...conn.Option) *session {
	return &session{
		c:        c,
		reg:      reg,
		log:      log,
		out:      os.Stdout,
		in:       os.Stdin,
		color:    true,
		timeout:  replyTimeout,
		connOpts: append([]conn.Option{conn.WithLogger(log)}, opts...),
	}
}

func (s *session) say(c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.color {
		c.Fprintln(s.out, msg)
		return
	}
	fmt.Fprintln(s.out, msg)
}

func (s *session) fail(format string, args ...any) { s.say(colorFail, format, args...) }
func (s *session) warn(format string, args ...any) { s.say(colorWarn, format, args...) }

func (s *session) printOpts(modifier string) (output.PrintOpts, error) {
	opts := output.PrintOpts{
		Color:   s.color,
		Charset: s.c.Encoder().Charset(),
		Newline: true,
	}
	if modifier != "" {
		ser, err := serializer.Get(modifier)
		if err != nil {
			return opts, err
		}
		opts.Serializer = ser
	}
	return opts, nil
}

// mergeServerCommands adds the server's COMMAND list to the registry for
// completion. Failures only warn.
func (s *session) mergeServerCommands(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmds, err := s.c.FetchServerCommands(ctx)
	if err != nil {
		s.warn("Warning: Could not fetch server commands: %v", err)
		return
	}
	s.reg.MergeServerCommands(cmds)
	s.log.Debug("merged server commands", zap.Int("count", len(cmds)))
}

func (s *session) printConnectionInfo(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.c.ServerInfo(ctx)
	if err != nil {
		s.warn("Warning: Could not fetch server info: %v", err)
		return
	}

	mode := info["redis_mode"]
	if mode == "" {
		mode = "standalone"
	}
	s.say(colorOK, "Connected to Redis %s %s", info["redis_version"], mode)

	if used, ok := info["used_memory_human"]; ok {
		total := info["total_system_memory_human"]
		if total == "" {
			total = "Unknown"
		}
		s.say(colorInfo, "Memory: %s / %s", used, total)
	}
	if clients, ok := info["connected_clients"]; ok {
		s.say(colorInfo, "Connected Clients: %s", clients)
	}

	// db0:keys=150,expires=0,avg_ttl=0
	var dbs []string
	for k := range info {
		if strings.HasPrefix(k, "db") {
			dbs = append(dbs, k)
		}
	}
	slices.Sort(dbs)
	for _, db := range dbs {
		first, _, _ := strings.Cut(info[db], ",")
		if _, keys, ok := strings.Cut(first, "="); ok {
			s.say(colorInfo, "%s (%s Total Keys)", db, keys)
		}
	}
	fmt.Fprintln(s.out)
}

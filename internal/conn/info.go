package conn

import (
	"context"
	"errors"
	"strings"

	"github.com/cosmez/redisflow/internal/command"
	"github.com/cosmez/redisflow/internal/resp"
)

// ServerInfo runs INFO and returns its key:value lines. Section headers and
// blank lines are skipped.
func (c *Connection) ServerInfo(ctx context.Context) (map[string]string, error) {
	text, err := c.String(ctx, c.enc.Command("INFO"))
	if err != nil {
		return nil, err
	}
	return parseInfo(text), nil
}

func parseInfo(text string) map[string]string {
	info := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			info[k] = v
		}
	}
	return info
}

// FetchServerCommands runs COMMAND and converts the reply for registry
// merging. A server that refuses COMMAND (old version, restricted ACL)
// yields nil, nil.
func (c *Connection) FetchServerCommands(ctx context.Context) ([]command.ServerCommand, error) {
	vals, err := c.Array(ctx, c.enc.Command("COMMAND"))
	var serverErr resp.Error
	if errors.As(err, &serverErr) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cmds := make([]command.ServerCommand, 0, len(vals))
	for _, entry := range vals {
		if sc, ok := parseCommandEntry(entry); ok {
			cmds = append(cmds, sc)
		}
	}
	return cmds, nil
}

// parseCommandEntry reads one COMMAND entry: [0] name, [1] arity,
// [6] ACL categories, [9] subcommands. Older servers send fewer fields.
func parseCommandEntry(v resp.Value) (command.ServerCommand, bool) {
	arr, ok := v.(resp.Array)
	if !ok || len(arr.Values) < 2 {
		return command.ServerCommand{}, false
	}

	// Subcommands come as "container|sub".
	sc := command.ServerCommand{
		Name: strings.ToUpper(strings.ReplaceAll(arr.Values[0].StringValue(), "|", " ")),
	}
	if n, ok := arr.Values[1].(resp.Integer); ok {
		sc.Arity = n.Value
	}
	if len(arr.Values) > 6 {
		sc.ACLCats = stringsOf(arr.Values[6])
	}
	if len(arr.Values) > 9 {
		if subs, ok := arr.Values[9].(resp.Array); ok {
			for _, s := range subs.Values {
				if sub, ok := parseCommandEntry(s); ok {
					sc.Subcommands = append(sc.Subcommands, sub)
				}
			}
		}
	}
	return sc, true
}

func stringsOf(v resp.Value) []string {
	arr, ok := v.(resp.Array)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr.Values))
	for _, e := range arr.Values {
		out = append(out, e.StringValue())
	}
	return out
}

package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cosmez/redisflow/internal/resp"
	"github.com/cosmez/redisflow/internal/serializer"
)

// Parse splits one line of REPL input and frames it with enc. A trailing
// " | cmd" becomes Pipe and a trailing "#:codec" becomes Modifier; with a
// modifier, the value argument of SET is stored through that codec.
func Parse(input string, reg *Registry, enc *resp.Encoder) (*ParsedCommand, error) {
	parsed := &ParsedCommand{Text: input}
	if strings.TrimSpace(input) == "" {
		return parsed, nil
	}

	// The pipe goes first so "GET k #:gzip | jq ." does not read "gzip | jq ."
	// as the codec.
	if i := strings.Index(input, " | "); i != -1 {
		parsed.Pipe = strings.TrimSpace(input[i+3:])
		input = input[:i]
	}
	if i := strings.LastIndex(input, "#:"); i != -1 {
		parsed.Modifier = strings.TrimSpace(input[i+2:])
		input = input[:i]
	}

	tokens := tokenize(input)
	if len(tokens) == 0 {
		return parsed, nil
	}
	parsed.Name = strings.ToUpper(tokens[0])
	if len(tokens) > 1 {
		parsed.Args = tokens[1:]
	}
	if reg != nil {
		parsed.Doc = reg.Lookup(parsed.Name, parsed.Args)
	}

	var codec serializer.Serializer
	if parsed.Modifier != "" {
		var err error
		if codec, err = serializer.Get(parsed.Modifier); err != nil {
			return nil, err
		}
	}

	args := make([][]byte, len(parsed.Args))
	for i, a := range parsed.Args {
		args[i] = enc.Encode(a)
	}
	if codec != nil && parsed.Name == "SET" && len(args) >= 2 {
		stored, err := codec.Serialize(args[1])
		if err != nil {
			return nil, fmt.Errorf("%s: serialize value: %w", parsed.Modifier, err)
		}
		args[1] = stored
	}
	parsed.Frame = enc.CommandBytes(tokens[0], args...)
	return parsed, nil
}

// ParsePipeline parses semicolon-separated statements and joins their frames
// into one request expecting one reply per statement.
func ParsePipeline(input string, reg *Registry, enc *resp.Encoder) ([]*ParsedCommand, *resp.Command, error) {
	stmts := splitStatements(input)
	if len(stmts) == 0 {
		return nil, nil, errors.New("no commands to pipeline")
	}

	parsed := make([]*ParsedCommand, 0, len(stmts))
	frames := make([]*resp.Command, 0, len(stmts))
	for _, s := range stmts {
		p, err := Parse(s, reg, enc)
		if err != nil {
			return nil, nil, fmt.Errorf("%q: %w", s, err)
		}
		if p.Frame == nil {
			return nil, nil, fmt.Errorf("%q: empty statement", s)
		}
		if reg != nil && reg.IsApplication(p.Name) {
			return nil, nil, fmt.Errorf("%s cannot be pipelined", p.Name)
		}
		if p.Pipe != "" {
			return nil, nil, fmt.Errorf("%q: shell pipes cannot be pipelined", s)
		}
		parsed = append(parsed, p)
		frames = append(frames, p.Frame)
	}
	return parsed, resp.Pipeline(frames...), nil
}

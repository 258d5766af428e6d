package command

import "github.com/cosmez/redisflow/internal/resp"

// ParsedCommand is one line of REPL input, split and framed for sending.
type ParsedCommand struct {
	Text     string        // input as typed
	Name     string        // upper-cased command name, empty for blank input
	Args     []string      // arguments after the name
	Frame    *resp.Command // encoded request, nil for blank input
	Modifier string        // codec name after "#:", empty if none
	Pipe     string        // shell command after " | ", empty if none
	Doc      *CommandDoc   // nil when the command is unknown
}

// CommandDoc describes a single command for help and hints.
type CommandDoc struct {
	Command   string
	Summary   string
	Arguments string
	Since     string
	Group     string
}

// ServerCommand is one entry of the server's COMMAND reply. It lives here so
// that conn can produce it and Registry can consume it without an import
// cycle.
type ServerCommand struct {
	Name        string          // upper-cased, "CONFIG SET" for subcommands
	Arity       int64           // positive is exact, negative is a minimum
	ACLCats     []string        // e.g. "@string", "@read"
	Subcommands []ServerCommand
}

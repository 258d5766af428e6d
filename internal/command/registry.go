package command

import (
	"fmt"
	"slices"
	"strings"
)

// Registry holds the documentation for every command the REPL knows about.
type Registry struct {
	docs      []CommandDoc
	index     map[string]int // command name -> position in docs
	dangerous map[string]bool
	blocking  map[string]bool
}

// NewRegistry returns a registry seeded with the built-in server commands and
// the REPL's own commands.
func NewRegistry() *Registry {
	docs := make([]CommandDoc, 0, len(builtin)+len(application))
	docs = append(docs, builtin...)
	docs = append(docs, application...)
	slices.SortFunc(docs, func(a, b CommandDoc) int { return strings.Compare(a.Command, b.Command) })

	r := &Registry{
		docs:      docs,
		index:     make(map[string]int, len(docs)),
		dangerous: setOf(dangerous),
		blocking:  setOf(blocking),
	}
	for i, doc := range docs {
		r.index[doc.Command] = i
	}
	return r
}

func setOf(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Get returns the documentation for cmd, or nil. Compound names such as
// "CLIENT INFO" are looked up as one entry.
func (r *Registry) Get(cmd string) *CommandDoc {
	if i, ok := r.index[strings.ToUpper(cmd)]; ok {
		return &r.docs[i]
	}
	return nil
}

// Lookup finds the most specific entry for a command name and its
// arguments, preferring "NAME SUB" over "NAME".
func (r *Registry) Lookup(name string, args []string) *CommandDoc {
	if len(args) > 0 {
		if doc := r.Get(name + " " + args[0]); doc != nil {
			return doc
		}
	}
	return r.Get(name)
}

// GetCommands returns the names starting with prefix, for tab completion.
func (r *Registry) GetCommands(prefix string) []string {
	var matches []string
	for _, doc := range r.Search(prefix) {
		matches = append(matches, doc.Command)
	}
	return matches
}

// Search returns the entries whose names start with prefix.
func (r *Registry) Search(prefix string) []CommandDoc {
	prefix = strings.ToUpper(prefix)
	var matches []CommandDoc
	for _, doc := range r.docs {
		if strings.HasPrefix(doc.Command, prefix) {
			matches = append(matches, doc)
		}
	}
	return matches
}

// IsDangerous reports whether cmd needs confirmation before it is sent.
func (r *Registry) IsDangerous(cmd string) bool {
	return r.dangerous[strings.ToUpper(cmd)]
}

// IsBlocking reports whether cmd may wait server side for data.
func (r *Registry) IsBlocking(cmd string) bool {
	return r.blocking[strings.ToUpper(cmd)]
}

// IsApplication reports whether cmd is handled by the REPL itself.
func (r *Registry) IsApplication(cmd string) bool {
	doc := r.Get(cmd)
	return doc != nil && doc.Group == "application"
}

// MergeServerCommands adds commands reported by the server's COMMAND reply.
// Entries that already exist keep their built-in docs; new ones get a
// minimal entry so they complete.
func (r *Registry) MergeServerCommands(cmds []ServerCommand) {
	for _, sc := range cmds {
		r.mergeOne(sc)
		for _, sub := range sc.Subcommands {
			r.mergeOne(sub)
		}
	}
}

func (r *Registry) mergeOne(sc ServerCommand) {
	if _, exists := r.index[sc.Name]; exists || sc.Name == "" {
		return
	}
	r.index[sc.Name] = len(r.docs)
	r.docs = append(r.docs, CommandDoc{
		Command:   sc.Name,
		Arguments: arityHint(sc.Arity),
		Group:     primaryACLGroup(sc.ACLCats),
	})
}

// arityHint builds an argument placeholder from a COMMAND arity, which counts
// the command name itself. Negative arity is a minimum.
func arityHint(arity int64) string {
	n := arity
	if n < 0 {
		n = -n
	}
	parts := make([]string, 0, n)
	for i := int64(1); i < n; i++ {
		parts = append(parts, fmt.Sprintf("arg%d", i))
	}
	if arity < 0 {
		parts = append(parts, "[arg ...]")
	}
	return strings.Join(parts, " ")
}

// primaryACLGroup picks a group name from ACL categories, skipping the
// meta categories that say nothing about the data type.
func primaryACLGroup(cats []string) string {
	skip := map[string]bool{
		"@read": true, "@write": true, "@fast": true, "@slow": true,
		"@admin": true, "@dangerous": true, "@keyspace": true,
	}
	for _, cat := range cats {
		if !skip[cat] && strings.HasPrefix(cat, "@") {
			return cat[1:]
		}
	}
	for _, cat := range cats {
		if cat == "@admin" {
			return "admin"
		}
	}
	return ""
}

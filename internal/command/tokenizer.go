package command

import (
	"strings"
	"unicode"
)

// tokenize splits input on unquoted whitespace. Double quotes group words
// and a backslash takes the next rune literally.
func tokenize(input string) []string {
	var (
		tokens   []string
		cur      strings.Builder
		quoted   bool
		escaped  bool
		hasToken bool
	)
	flush := func() {
		if hasToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			hasToken = false
		}
	}

	for _, r := range input {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped, hasToken = true, true
		case r == '"':
			// "" is an empty argument, so a quote alone starts a token.
			quoted, hasToken = !quoted, true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			cur.WriteRune(r)
			hasToken = true
		}
	}
	flush()
	return tokens
}

// splitStatements cuts input at unquoted semicolons. Empty statements are
// dropped.
func splitStatements(input string) []string {
	var (
		out     []string
		start   int
		quoted  bool
		escaped bool
	)
	push := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	for i, r := range input {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ';' && !quoted:
			push(input[start:i])
			start = i + 1
		}
	}
	push(input[start:])
	return out
}

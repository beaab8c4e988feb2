package parse

import (
	"strings"

	"github.com/carto-dev/carto/internal/lang"
)

// extractImports applies the language's import vocabulary to one clean
// line and returns the raw tokens it found, in order.
func extractImports(l *lang.Language, line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var out []string
	for _, p := range l.Imports {
		for _, m := range p.Regex.FindAllStringSubmatch(line, -1) {
			if p.List {
				for _, part := range strings.Split(m[1], ",") {
					out = appendToken(out, part)
				}
				continue
			}
			out = appendToken(out, m[1])
		}
	}
	return out
}

func appendToken(out []string, raw string) []string {
	tok := cleanToken(raw)
	if tok == "" {
		return out
	}
	for _, seen := range out {
		if seen == tok {
			return out
		}
	}
	return append(out, tok)
}

// cleanToken normalizes one raw token: alias clauses, wildcard tails, and
// group-open residue are trimmed. Pure-dot relative tokens pass through
// untouched so the resolver can still see them.
func cleanToken(raw string) string {
	tok := strings.TrimSpace(raw)
	if tok == "" {
		return ""
	}
	if strings.Trim(tok, ".") == "" {
		return tok
	}
	if base, _, found := strings.Cut(tok, " as "); found {
		tok = strings.TrimSpace(base)
	}
	tok = strings.TrimSuffix(tok, ".*")
	tok = strings.TrimRight(tok, ".:*")
	return strings.TrimSpace(tok)
}

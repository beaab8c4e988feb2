package parse

import (
	"regexp"
	"strings"
)

// maxSignatureJoin bounds how many continuation lines a declaration header
// may span before the parser gives up on its parameter list.
const maxSignatureJoin = 8

var identRe = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

// captureParens collects the balanced parenthesis group opening at the
// first "(" at or after column from on lines[i].code, joining continuation
// lines when the header wraps. It returns the inner text, the line index
// the group closed on, the remainder of that line after the close, and
// whether the group balanced within maxSignatureJoin lines.
func captureParens(lines []scannedLine, i, from int) (inner string, endLine int, rest string, ok bool) {
	line := lines[i].code
	if from > len(line) {
		from = len(line)
	}
	open := strings.IndexByte(line[from:], '(')
	if open < 0 {
		return "", i, "", false
	}
	pos := from + open + 1

	var b strings.Builder
	depth := 1
	for j := i; j < len(lines) && j <= i+maxSignatureJoin; j++ {
		text := lines[j].code
		if j > i {
			pos = 0
			b.WriteByte(' ')
		}
		for ; pos < len(text); pos++ {
			switch text[pos] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return b.String(), j, text[pos+1:], true
				}
			}
			b.WriteByte(text[pos])
		}
	}
	return b.String(), i, "", false
}

// splitParams extracts best-effort parameter names from the inside of a
// declaration's paren group. typeLeading selects C-style "Type name" order,
// where the name is the trailing identifier of each piece.
func splitParams(inner string, typeLeading bool) []string {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil
	}

	var params []string
	for _, piece := range splitTopLevel(inner, ',') {
		piece = strings.TrimSpace(piece)
		if piece == "" || piece[0] == '{' || piece[0] == '[' {
			continue
		}
		if eq := topLevelIndex(piece, '='); eq >= 0 {
			piece = strings.TrimSpace(piece[:eq])
		}
		if !typeLeading {
			if colon := topLevelIndex(piece, ':'); colon >= 0 && !strings.HasPrefix(piece[colon:], "::") {
				piece = strings.TrimSpace(piece[:colon])
			}
		}
		piece = strings.TrimPrefix(piece, "&")
		piece = strings.TrimPrefix(piece, "mut ")

		tokens := identRe.FindAllString(piece, -1)
		if len(tokens) == 0 {
			continue
		}
		name := tokens[0]
		if typeLeading {
			name = tokens[len(tokens)-1]
		} else if name == "_" && len(tokens) > 1 {
			name = tokens[1]
		}
		if name == "void" && len(tokens) == 1 {
			continue
		}
		params = append(params, name)
	}
	return params
}

// splitTopLevel splits on sep occurrences that sit outside every kind of
// bracket pair.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// parseBases flattens captured base-type groups into a clean ordered list:
// access keywords dropped, generic arguments cut, keyword-value pieces
// (metaclass=...) skipped.
func parseBases(groups []string) []string {
	var bases []string
	for _, group := range groups {
		for _, piece := range splitTopLevel(group, ',') {
			piece = strings.TrimSpace(piece)
			if piece == "" || strings.ContainsRune(piece, '=') {
				continue
			}
			for _, kw := range []string{"public ", "protected ", "private ", "virtual "} {
				piece = strings.TrimPrefix(piece, kw)
			}
			if cut := strings.IndexAny(piece, "<("); cut >= 0 {
				piece = piece[:cut]
			}
			piece = strings.TrimSpace(piece)
			if piece != "" {
				bases = append(bases, piece)
			}
		}
	}
	return bases
}

func topLevelIndex(s string, target byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case target:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

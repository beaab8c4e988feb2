package parse

import (
	"strings"

	"github.com/carto-dev/carto/internal/lang"
)

// parseIndent recognizes declarations in indentation-scoped languages.
// Class bodies are delimited by indentation: a def at the class's first
// body indent is a method, anything deeper is nested and ignored for the
// method count. Ruby fits the same shape because its end keyword dedents
// back to the opening indent in conventional code.
func parseIndent(l *lang.Language, rec *FileRecord, lines []scannedLine) {
	type openClass struct {
		idx        int
		indent     int
		bodyIndent int
	}
	var stack []openClass
	importSeen := map[string]bool{}
	skipUntil := 0

	for i := range lines {
		sl := lines[i]
		codeTrim := strings.TrimSpace(sl.code)
		if codeTrim == "" {
			continue
		}
		indent := indentWidth(sl.code)

		for _, tok := range extractImports(l, sl.clean) {
			if !importSeen[tok] {
				importSeen[tok] = true
				rec.Imports = append(rec.Imports, tok)
			}
		}

		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && stack[len(stack)-1].bodyIndent < 0 {
			stack[len(stack)-1].bodyIndent = indent
		}

		if i < skipUntil {
			continue
		}

		lead := len(sl.code) - len(strings.TrimLeft(sl.code, " \t"))

		matched := false
		for _, re := range l.ClassPatterns {
			if m := re.FindStringSubmatch(codeTrim); m != nil {
				rec.Classes = append(rec.Classes, ClassEntry{
					Name:  m[1],
					File:  rec.Path,
					Line:  i + 1,
					Bases: parseBases(m[2:]),
				})
				stack = append(stack, openClass{idx: len(rec.Classes) - 1, indent: indent, bodyIndent: -1})
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		for _, re := range l.FuncPatterns {
			loc := re.FindStringSubmatchIndex(codeTrim)
			if loc == nil {
				continue
			}
			name := codeTrim[loc[2]:loc[3]]
			var params []string
			endLine := i
			if inner, end, _, ok := captureParens(lines, i, loc[3]+lead); ok {
				params = splitParams(inner, false)
				endLine = end
			}
			rec.Functions = append(rec.Functions, FunctionEntry{
				Name:   name,
				File:   rec.Path,
				Line:   i + 1,
				Params: params,
			})
			if len(stack) > 0 && indent == stack[len(stack)-1].bodyIndent {
				rec.Classes[stack[len(stack)-1].idx].Methods++
			}
			skipUntil = endLine + 1
			break
		}
	}
}

// indentWidth measures leading whitespace, expanding tabs to the next
// 8-column stop.
func indentWidth(line string) int {
	width := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width += 8 - width%8
		default:
			return width
		}
	}
	return width
}

package parse

import (
	"strings"

	"github.com/carto-dev/carto/internal/lang"
)

// parseKeyword handles line-oriented languages with no nesting worth
// tracking: shell functions and Makefile targets. Column position stands in
// for structure where the language gives it meaning (Make recipe lines are
// indented, targets are not).
func parseKeyword(l *lang.Language, rec *FileRecord, lines []scannedLine) {
	importSeen := map[string]bool{}

	for i := range lines {
		sl := lines[i]
		for _, tok := range extractImports(l, sl.clean) {
			if !importSeen[tok] {
				importSeen[tok] = true
				rec.Imports = append(rec.Imports, tok)
			}
		}

		target := sl.code
		lead := 0
		if !l.ColumnZeroFuncs {
			target = strings.TrimLeft(sl.code, " \t")
			lead = len(sl.code) - len(target)
		}
		if strings.TrimSpace(target) == "" {
			continue
		}

		for _, re := range l.FuncPatterns {
			loc := re.FindStringSubmatchIndex(target)
			if loc == nil {
				continue
			}
			name := target[loc[2]:loc[3]]
			var params []string
			if inner, _, _, ok := captureParens(lines, i, loc[3]+lead); ok {
				params = splitParams(inner, false)
			}
			rec.Functions = append(rec.Functions, FunctionEntry{
				Name:   name,
				File:   rec.Path,
				Line:   i + 1,
				Params: params,
			})
			break
		}
	}
}

package parse

import (
	"strings"

	"github.com/carto-dev/carto/internal/lang"
)

// container is an open class body (or Rust-style impl span) whose inner
// function headers count as methods of the owning type.
type container struct {
	owner    string
	classIdx int // index into rec.Classes, -1 for impl-style spans
	bodyAt   int // brace depth inside the body
	opened   bool
	pushLine int
}

// braceParser recognizes declarations in brace-scoped languages. It tracks
// brace depth on the blanked code view; declarations are only accepted at
// the current body depth, which keeps closures, nested callbacks, and
// statement-level calls out of the results.
type braceParser struct {
	lang  *lang.Language
	rec   *FileRecord
	lines []scannedLine

	depth         int
	stack         []container
	inImports     bool
	skipDeclUntil int
	importSeen    map[string]bool
}

func parseBrace(l *lang.Language, rec *FileRecord, lines []scannedLine) {
	p := &braceParser{lang: l, rec: rec, lines: lines, importSeen: map[string]bool{}}
	p.scan()
}

func (p *braceParser) scan() {
	for i := range p.lines {
		sl := p.lines[i]
		codeTrim := strings.TrimSpace(sl.code)
		cleanTrim := strings.TrimSpace(sl.clean)

		if p.inImports {
			if strings.HasPrefix(codeTrim, ")") {
				p.inImports = false
			} else if m := p.lang.ImportBlockItem.FindStringSubmatch(cleanTrim); m != nil {
				p.addImport(m[1])
			}
			continue
		}
		if p.lang.ImportBlockOpen != nil && p.lang.ImportBlockOpen.MatchString(codeTrim) {
			p.inImports = true
			continue
		}

		for _, tok := range extractImports(p.lang, cleanTrim) {
			p.addImport(tok)
		}

		if codeTrim != "" && i >= p.skipDeclUntil && p.depth == p.bodyDepth() {
			p.tryDeclaration(i, codeTrim)
		}

		p.bumpDepth(sl.code)
		p.settleContainers(i)
	}
}

func (p *braceParser) addImport(raw string) {
	tok := cleanToken(raw)
	if tok == "" || p.importSeen[tok] {
		return
	}
	p.importSeen[tok] = true
	p.rec.Imports = append(p.rec.Imports, tok)
}

func (p *braceParser) bodyDepth() int {
	if len(p.stack) == 0 {
		return 0
	}
	return p.stack[len(p.stack)-1].bodyAt
}

func (p *braceParser) bumpDepth(code string) {
	p.depth += strings.Count(code, "{") - strings.Count(code, "}")
	if p.depth < 0 {
		p.depth = 0
	}
}

// settleContainers opens pending spans once their brace arrives, abandons
// headers whose body never materialized, and pops spans the depth has left.
func (p *braceParser) settleContainers(line int) {
	for len(p.stack) > 0 {
		top := &p.stack[len(p.stack)-1]
		if !top.opened {
			if p.depth >= top.bodyAt {
				top.opened = true
				return
			}
			if line-top.pushLine > 3 || p.depth < top.bodyAt-1 {
				p.stack = p.stack[:len(p.stack)-1]
				continue
			}
			return
		}
		if p.depth < top.bodyAt {
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}
		return
	}
}

func (p *braceParser) tryDeclaration(i int, codeTrim string) {
	lineNo := i + 1
	lead := len(p.lines[i].code) - len(strings.TrimLeft(p.lines[i].code, " \t"))

	for _, re := range p.lang.ClassPatterns {
		if m := re.FindStringSubmatch(codeTrim); m != nil {
			p.rec.Classes = append(p.rec.Classes, ClassEntry{
				Name:  m[1],
				File:  p.rec.Path,
				Line:  lineNo,
				Bases: parseBases(m[2:]),
			})
			p.stack = append(p.stack, container{
				owner:    m[1],
				classIdx: len(p.rec.Classes) - 1,
				bodyAt:   p.depth + 1,
				pushLine: i,
			})
			return
		}
	}

	if re := p.lang.MethodContainer; re != nil {
		if m := re.FindStringSubmatch(codeTrim); m != nil {
			p.stack = append(p.stack, container{
				owner:    m[1],
				classIdx: -1,
				bodyAt:   p.depth + 1,
				pushLine: i,
			})
			return
		}
	}

	for _, re := range p.lang.FuncPatterns {
		loc := re.FindStringSubmatchIndex(codeTrim)
		if loc == nil {
			continue
		}
		name := codeTrim[loc[2]:loc[3]]
		matched := codeTrim[loc[0]:loc[1]]
		inner, endLine, rest, ok := captureParens(p.lines, i, loc[3]+lead)
		if needsArrow(matched) && !p.arrowFollows(rest, endLine) {
			continue
		}
		var params []string
		if ok {
			params = splitParams(inner, false)
		}
		p.emitFunc(name, lineNo, params, codeTrim)
		p.skipDeclUntil = endLine + 1
		return
	}

	if len(p.stack) > 0 {
		for _, re := range p.lang.MethodPatterns {
			loc := re.FindStringSubmatchIndex(codeTrim)
			if loc == nil {
				continue
			}
			name := codeTrim[loc[2]:loc[3]]
			if methodStopWords[name] {
				continue
			}
			inner, endLine, _, ok := captureParens(p.lines, i, loc[3]+lead)
			var params []string
			if ok {
				params = splitParams(inner, false)
			}
			p.emitFunc(name, lineNo, params, codeTrim)
			p.skipDeclUntil = endLine + 1
			return
		}
	}

	if p.lang.CStyleFuncs {
		p.tryCStyleFunc(i, codeTrim, lead)
	}
}

func (p *braceParser) emitFunc(name string, lineNo int, params []string, codeTrim string) {
	p.rec.Functions = append(p.rec.Functions, FunctionEntry{
		Name:   name,
		File:   p.rec.Path,
		Line:   lineNo,
		Params: params,
	})

	if re := p.lang.MethodReceiver; re != nil {
		if m := re.FindStringSubmatch(codeTrim); m != nil {
			p.bumpClass(m[1])
			return
		}
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		if top.classIdx >= 0 {
			p.rec.Classes[top.classIdx].Methods++
		} else {
			p.bumpClass(top.owner)
		}
	}
}

func (p *braceParser) bumpClass(name string) {
	for idx := range p.rec.Classes {
		if p.rec.Classes[idx].Name == name {
			p.rec.Classes[idx].Methods++
			return
		}
	}
}

// arrowFollows reports whether "=>" begins the text after a captured paren
// group, looking at the next non-blank line when the header wraps.
func (p *braceParser) arrowFollows(rest string, endLine int) bool {
	if t := strings.TrimSpace(rest); t != "" {
		return strings.HasPrefix(t, "=>") || strings.HasPrefix(t, ":") && strings.Contains(t, "=>")
	}
	for j := endLine + 1; j < len(p.lines) && j <= endLine+2; j++ {
		if t := strings.TrimSpace(p.lines[j].code); t != "" {
			return strings.HasPrefix(t, "=>")
		}
	}
	return false
}

func needsArrow(matched string) bool {
	if strings.Contains(matched, "function") {
		return false
	}
	return strings.HasPrefix(matched, "const") || strings.HasPrefix(matched, "let") ||
		strings.HasPrefix(matched, "var") || strings.Contains(matched, " const ") ||
		strings.Contains(matched, " let ") || strings.Contains(matched, " var ") ||
		strings.HasPrefix(matched, "export")
}

var cStopWords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "return": true, "goto": true,
	"sizeof": true, "new": true, "delete": true, "throw": true,
	"catch": true, "try": true, "using": true, "typedef": true,
	"operator": true, "defined": true, "assert": true,
}

var methodStopWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"super": true, "function": true, "return": true,
}

// tryCStyleFunc recognizes keyword-less declaration headers of the
// "ReturnType name(args)" shape. The header must carry a type (or be a
// constructor named after the enclosing class), must not read like a
// statement, and must be followed by a body brace rather than a semicolon.
func (p *braceParser) tryCStyleFunc(i int, codeTrim string, lead int) {
	if strings.HasPrefix(codeTrim, "#") || strings.HasPrefix(codeTrim, "@") {
		return
	}
	paren := strings.IndexByte(codeTrim, '(')
	if paren <= 0 {
		return
	}
	head := strings.TrimSpace(codeTrim[:paren])
	if head == "" || strings.ContainsAny(head, "=;\"") {
		return
	}
	tokens := identRe.FindAllString(head, -1)
	if len(tokens) == 0 {
		return
	}
	for _, tok := range tokens {
		if cStopWords[tok] {
			return
		}
	}
	name := tokens[len(tokens)-1]
	if !strings.HasSuffix(head, name) {
		return
	}
	if len(tokens) == 1 && !p.isConstructor(name) {
		return
	}

	inner, endLine, rest, ok := captureParens(p.lines, i, paren+lead)
	if !ok || !p.bodyFollows(rest, endLine) {
		return
	}
	p.emitFunc(name, i+1, splitParams(inner, true), codeTrim)
	p.skipDeclUntil = endLine + 1
}

func (p *braceParser) isConstructor(name string) bool {
	if len(p.stack) == 0 {
		return false
	}
	return p.stack[len(p.stack)-1].owner == name
}

// bodyFollows reports whether a "{" arrives before any ";" after the
// closing paren, peeking a couple of lines past a wrapped header.
func (p *braceParser) bodyFollows(rest string, endLine int) bool {
	if verdict, decided := braceBeforeSemi(rest); decided {
		return verdict
	}
	for j := endLine + 1; j < len(p.lines) && j <= endLine+3; j++ {
		if verdict, decided := braceBeforeSemi(p.lines[j].code); decided {
			return verdict
		}
	}
	return false
}

func braceBeforeSemi(s string) (verdict, decided bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			return true, true
		case ';':
			return false, true
		}
	}
	return false, false
}

package parse

import (
	"strings"

	"github.com/carto-dev/carto/internal/lang"
)

// scannedLine is one source line in two views. clean has comments removed
// but string literals intact, for import extraction. code additionally
// blanks string contents, so braces and keywords inside literals cannot
// fool the structural recognizers. Leading whitespace survives in both.
type scannedLine struct {
	clean string
	code  string
}

// lineScanner strips comments and strings according to one language's
// syntax, carrying block-comment, raw-string, and triple-quote state across
// lines.
type lineScanner struct {
	lang *lang.Language

	inBlock  bool
	inRaw    bool
	inTriple bool
	tripleCh byte
}

func newLineScanner(l *lang.Language) *lineScanner {
	return &lineScanner{lang: l}
}

// scanAll splits content into lines and runs every line through the
// scanner, so recognizers get free lookahead over a consistent view.
func scanAll(l *lang.Language, content []byte) []scannedLine {
	raw := strings.Split(string(content), "\n")
	s := newLineScanner(l)
	out := make([]scannedLine, len(raw))
	for i, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		out[i] = s.split(line)
	}
	return out
}

func (s *lineScanner) split(line string) scannedLine {
	var clean, code strings.Builder
	clean.Grow(len(line))
	code.Grow(len(line))

	i := 0
	n := len(line)
	for i < n {
		switch {
		case s.inBlock:
			end := strings.Index(line[i:], s.lang.BlockComment[1])
			if end < 0 {
				i = n
				break
			}
			s.inBlock = false
			i += end + len(s.lang.BlockComment[1])

		case s.inTriple:
			marker := strings.Repeat(string(s.tripleCh), 3)
			end := strings.Index(line[i:], marker)
			if end < 0 {
				i = n
				break
			}
			s.inTriple = false
			i += end + 3

		case s.inRaw:
			end := strings.IndexByte(line[i:], s.lang.RawQuote)
			if end < 0 {
				i = n
				break
			}
			s.inRaw = false
			clean.WriteByte(s.lang.RawQuote)
			code.WriteByte(s.lang.RawQuote)
			i += end + 1

		default:
			c := line[i]

			if s.lineCommentAt(line, i) {
				i = n
				break
			}
			if s.lang.BlockComment[0] != "" && strings.HasPrefix(line[i:], s.lang.BlockComment[0]) {
				s.inBlock = true
				i += len(s.lang.BlockComment[0])
				continue
			}
			if s.lang.TripleQuote && (c == '"' || c == '\'') && strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)) {
				s.inTriple = true
				s.tripleCh = c
				i += 3
				continue
			}
			if s.lang.RawQuote != 0 && c == s.lang.RawQuote {
				s.inRaw = true
				clean.WriteByte(c)
				code.WriteByte(c)
				i++
				continue
			}
			if strings.IndexByte(s.lang.Quotes, c) >= 0 {
				i = s.consumeString(line, i, c, &clean, &code)
				continue
			}

			clean.WriteByte(c)
			code.WriteByte(c)
			i++
		}
	}

	return scannedLine{clean: clean.String(), code: code.String()}
}

// consumeString copies a quoted literal into clean and its bare quotes into
// code, honoring backslash escapes. An unterminated literal swallows the
// rest of the line; the scanner resets at the next line.
func (s *lineScanner) consumeString(line string, start int, quote byte, clean, code *strings.Builder) int {
	clean.WriteByte(quote)
	code.WriteByte(quote)
	i := start + 1
	for i < len(line) {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			clean.WriteByte(c)
			clean.WriteByte(line[i+1])
			i += 2
			continue
		}
		if c == quote {
			clean.WriteByte(quote)
			code.WriteByte(quote)
			return i + 1
		}
		clean.WriteByte(c)
		i++
	}
	return i
}

func (s *lineScanner) lineCommentAt(line string, i int) bool {
	for _, marker := range s.lang.LineComments {
		if strings.HasPrefix(line[i:], marker) {
			return true
		}
	}
	return false
}

package parse

import (
	"github.com/carto-dev/carto/internal/lang"
)

// Parse builds the structural record for one file. It is a total function:
// malformed content produces a sparser record, never an error. Lines that
// match no recognizer contribute nothing.
func Parse(path string, content []byte, l *lang.Language) *FileRecord {
	rec := baseRecord(path, content, l)
	if !l.Parseable() {
		return rec
	}

	lines := scanAll(l, content)
	switch l.Family {
	case lang.FamilyBrace:
		parseBrace(l, rec, lines)
	case lang.FamilyIndent:
		parseIndent(l, rec, lines)
	case lang.FamilyKeyword:
		parseKeyword(l, rec, lines)
	}
	return rec
}

// baseRecord carries the facts every file gets regardless of parsing:
// identity, size, line count, fingerprint, and the language tag when the
// classifier knows one.
func baseRecord(path string, content []byte, l *lang.Language) *FileRecord {
	rec := &FileRecord{
		Path:        path,
		Size:        int64(len(content)),
		Lines:       CountLines(content),
		Fingerprint: Fingerprint(content),
	}
	if l != nil {
		rec.Language = l.Tag
	}
	return rec
}

package lang

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Family selects which structural recognizer handles a language.
type Family string

const (
	// FamilyNone marks files that are classified for statistics but never
	// parsed (data, markup, unknown).
	FamilyNone    Family = ""
	FamilyBrace   Family = "brace"
	FamilyIndent  Family = "indent"
	FamilyKeyword Family = "keyword"
)

// ImportPattern extracts one raw import token per match. Group 1 is the
// token; when List is set, group 1 is a comma-separated token list instead.
type ImportPattern struct {
	Regex *regexp.Regexp
	List  bool
}

// Language describes everything the recognizers and the resolver need to
// know about one language: comment/string syntax to skip, declaration
// vocabulary, and how its import tokens map onto file paths.
type Language struct {
	Tag    string
	Name   string
	Family Family

	// Resolution hints.
	Extensions   []string // candidate source extensions, preferred order
	IndexStems   []string // directory-index stems (index, __init__, mod)
	Separator    string   // token separator rewritten to "/" ("." , "::" , "\\")
	RelativeDots bool     // leading dots mean importer-relative (Python style)

	// Comment and string syntax for the line scanner.
	LineComments []string
	BlockComment [2]string // open, close; zero value when absent
	Quotes       string    // string-opening characters, escapes honored
	RawQuote     byte      // quote with no escape processing, 0 if none
	TripleQuote  bool      // ''' and """ spans

	// Import vocabulary, tried in order against each clean line.
	Imports []ImportPattern
	// Grouped import form: Open starts a block, Item matches one token per
	// line inside it, a lone ")" ends it. Only Go sets these.
	ImportBlockOpen *regexp.Regexp
	ImportBlockItem *regexp.Regexp

	// Declaration vocabulary. Function and class patterns capture the name
	// in group 1; class patterns may capture base type lists in groups 2+.
	FuncPatterns  []*regexp.Regexp
	ClassPatterns []*regexp.Regexp
	// MethodPatterns match declaration headers that are only valid inside a
	// class body (JS/TS method shorthand). Group 1 is the method name.
	MethodPatterns []*regexp.Regexp
	// CStyleFuncs enables the shared recognizer for keyword-less function
	// headers ("ReturnType name(args) {"), used where no FuncPatterns can
	// anchor on a declaration keyword.
	CStyleFuncs bool
	// ColumnZeroFuncs restricts function patterns to unindented lines
	// (Makefile targets).
	ColumnZeroFuncs bool
	// MethodReceiver marks a function declaration that belongs to a named
	// type even though it sits outside the type's body (Go receivers).
	// Group 1 is the owning type.
	MethodReceiver *regexp.Regexp
	// MethodContainer opens a brace span whose inner functions count as
	// methods of the named type without declaring a new type (Rust impl).
	// Group 1 is the owning type.
	MethodContainer *regexp.Regexp
}

// Parseable reports whether the language has a structural recognizer.
func (l *Language) Parseable() bool {
	return l != nil && l.Family != FamilyNone
}

var (
	byTag      = map[string]*Language{}
	byExt      = map[string]*Language{}
	byBasename = map[string]*Language{}
)

func init() {
	for _, l := range languages {
		byTag[l.Tag] = l
		for _, ext := range l.Extensions {
			if _, taken := byExt[ext]; !taken {
				byExt[ext] = l
			}
		}
	}
	byBasename["makefile"] = byTag["makefile"]
	byBasename["gnumakefile"] = byTag["makefile"]
	byBasename["dockerfile"] = byTag["dockerfile"]
	byBasename["gemfile"] = byTag["ruby"]
	byBasename["rakefile"] = byTag["ruby"]
}

// Classify maps a file path to its language. It is a pure function of the
// extension, with a small basename fallback for extension-less files.
// Unrecognized paths return nil; callers record those files as inert.
func Classify(path string) *Language {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if l, ok := byExt[ext]; ok {
			return l
		}
		return nil
	}
	if l, ok := byBasename[strings.ToLower(filepath.Base(path))]; ok {
		return l
	}
	return nil
}

// ByTag returns the language registered under tag, or nil.
func ByTag(tag string) *Language {
	return byTag[tag]
}

// Tags returns all registered language tags in registration order.
func Tags() []string {
	tags := make([]string, 0, len(languages))
	for _, l := range languages {
		tags = append(tags, l.Tag)
	}
	return tags
}

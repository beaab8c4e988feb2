package parse

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FunctionEntry is one function or method declaration header.
type FunctionEntry struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Params []string `json:"params,omitempty"`
}

// ClassEntry is one class/type declaration header.
type ClassEntry struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Line    int      `json:"line"`
	Bases   []string `json:"bases,omitempty"`
	Methods int      `json:"methods"`
}

// FileRecord is the parsed structural view of one file. It is immutable for
// a given fingerprint: the same bytes always produce the same record.
type FileRecord struct {
	Path        string          `json:"path"`
	Language    string          `json:"language,omitempty"`
	Size        int64           `json:"size"`
	Lines       int             `json:"lines"`
	Fingerprint string          `json:"fingerprint"`
	Imports     []string        `json:"imports,omitempty"`
	Functions   []FunctionEntry `json:"functions,omitempty"`
	Classes     []ClassEntry    `json:"classes,omitempty"`
}

// Issue is a contained per-file problem. Issues never abort a run; they are
// collected and reported in aggregate.
type Issue struct {
	File     string `json:"file"`
	Language string `json:"language,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Fingerprint hashes file bytes into the cache key. The key is a pure
// function of content: renames still hit, touched-but-identical files still
// hit, any byte change misses.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// CountLines reports the number of source lines in content. A trailing
// newline does not open an extra line.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := 0
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}
	if content[len(content)-1] != '\n' {
		lines++
	}
	return lines
}

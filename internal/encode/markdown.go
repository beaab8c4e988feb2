package encode

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carto-dev/carto/internal/index"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

const keyFileCap = 5

// Markdown renders the human-readable report: stats header, key files,
// entry points, navigation paths, and a per-file declaration index.
func Markdown(idx *index.Index, opts Options) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Code Map: %s\n\n", filepath.Base(idx.Root))
	fmt.Fprintf(&b, "%d files, %d lines, %d functions, %d classes\n",
		idx.Stats.Files, idx.Stats.Lines, idx.Stats.Functions, idx.Stats.Classes)
	fmt.Fprintf(&b, "%d import edges: %d resolved, %d unresolved\n",
		idx.Stats.Edges, idx.Stats.Resolved, idx.Stats.Unresolved)

	writeLanguages(&b, idx)
	writeKeyFiles(&b, idx)
	writeEntryPoints(&b, idx)
	writeNavPaths(&b, idx)
	writeFiles(&b, idx, opts)
	writeIssues(&b, idx)

	return []byte(b.String())
}

func writeLanguages(b *strings.Builder, idx *index.Index) {
	if len(idx.Stats.Languages) == 0 {
		return
	}
	type langCount struct {
		name  string
		count int
	}
	counts := make([]langCount, 0, len(idx.Stats.Languages))
	for name, count := range idx.Stats.Languages {
		counts = append(counts, langCount{name, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})

	b.WriteString("\n## Languages\n\n")
	for _, lc := range counts {
		fmt.Fprintf(b, "- %s: %d files\n", lc.name, lc.count)
	}
}

func writeKeyFiles(b *strings.Builder, idx *index.Index) {
	key := idx.Graph.MostReferenced(keyFileCap)
	if len(key) == 0 {
		return
	}
	b.WriteString("\n## Key Files\n\nMost referenced by other files:\n\n")
	for _, path := range key {
		fmt.Fprintf(b, "- `%s` (%d inbound)\n", path, idx.Graph.InDegree(path))
	}
}

func writeEntryPoints(b *strings.Builder, idx *index.Index) {
	if len(idx.Entries) == 0 {
		return
	}
	b.WriteString("\n## Entry Points\n\n")
	for _, entry := range idx.Entries {
		fmt.Fprintf(b, "- `%s` (%s): %s\n", entry.Path, strings.Join(entry.Reasons, ", "), entry.Detail)
	}
}

func writeNavPaths(b *strings.Builder, idx *index.Index) {
	if len(idx.Paths) == 0 {
		return
	}
	b.WriteString("\n## Navigation Paths\n\n")
	for _, p := range idx.Paths {
		quoted := make([]string, len(p.Files))
		for i, f := range p.Files {
			quoted[i] = "`" + f + "`"
		}
		fmt.Fprintf(b, "- %s: %s\n", p.Label, strings.Join(quoted, " -> "))
	}
}

func writeFiles(b *strings.Builder, idx *index.Index, opts Options) {
	if len(idx.Files) == 0 {
		return
	}
	edgesByFrom := make(map[string][]resolve.Edge)
	for _, edge := range idx.Edges {
		edgesByFrom[edge.From] = append(edgesByFrom[edge.From], edge)
	}

	b.WriteString("\n## Files\n")
	for i := range idx.Files {
		rec := &idx.Files[i]
		fmt.Fprintf(b, "\n### `%s`\n\n", rec.Path)
		language := rec.Language
		if language == "" {
			language = "unknown"
		}
		fmt.Fprintf(b, "%s, %d lines\n", language, rec.Lines)

		if len(rec.Functions) > 0 {
			b.WriteString("\nFunctions:\n\n")
			for _, fn := range rec.Functions {
				fmt.Fprintf(b, "- `%s(%s)` line %d\n", fn.Name, strings.Join(fn.Params, ", "), fn.Line)
				writeSnippet(b, rec, fn.Line, opts)
			}
		}
		if len(rec.Classes) > 0 {
			b.WriteString("\nClasses:\n\n")
			for _, cls := range rec.Classes {
				if len(cls.Bases) > 0 {
					fmt.Fprintf(b, "- `%s(%s)` line %d, %d methods\n", cls.Name, strings.Join(cls.Bases, ", "), cls.Line, cls.Methods)
				} else {
					fmt.Fprintf(b, "- `%s` line %d, %d methods\n", cls.Name, cls.Line, cls.Methods)
				}
				writeSnippet(b, rec, cls.Line, opts)
			}
		}
		if edges := edgesByFrom[rec.Path]; len(edges) > 0 {
			b.WriteString("\nImports:\n\n")
			for _, edge := range edges {
				if edge.To != "" {
					fmt.Fprintf(b, "- `%s` -> `%s`\n", edge.Raw, edge.To)
				} else {
					fmt.Fprintf(b, "- `%s` (unresolved)\n", edge.Raw)
				}
			}
		}
	}
}

// writeSnippet adds the declaration line with two lines of context.
func writeSnippet(b *strings.Builder, rec *parse.FileRecord, line int, opts Options) {
	if !opts.Snippets {
		return
	}
	content, ok := opts.Content[rec.Path]
	if !ok || line <= 0 {
		return
	}
	lines := strings.Split(string(content), "\n")
	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return
	}
	fmt.Fprintf(b, "\n```%s\n", rec.Language)
	for _, l := range lines[start:end] {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
}

func writeIssues(b *strings.Builder, idx *index.Index) {
	if len(idx.Issues) == 0 {
		return
	}
	b.WriteString("\n## Issues\n\n")
	for _, issue := range idx.Issues {
		fmt.Fprintf(b, "- `%s`: %s (%s)\n", issue.File, issue.Message, issue.Severity)
	}
}

package llm

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/carto-dev/carto/internal/index"
)

const promptVersion = "prompt-v1"

var modeInstructions = map[string]string{
	"overview":     "Summarize what this codebase is and does: its purpose, the main components, and how they fit together.",
	"components":   "Describe each major component: its responsibility, its key files, and which components it depends on.",
	"architecture": "Describe the architecture: layers and boundaries, the direction dependencies flow, and any notable structural patterns.",
	"flows":        "Trace the main execution flows: start from each entry point and follow the import edges through the files it reaches.",
}

// Excerpt bounds keep prompt size stable regardless of tree size.
const (
	excerptFileCap = 5
	excerptHead    = 12
	excerptTail    = 6
)

// PromptInput selects what goes into the analysis prompt.
type PromptInput struct {
	Index     *index.Index
	Mode      string
	Focus     string            // optional path narrowing the excerpt to a subtree
	Reasoning int               // 0..9, scales requested depth
	Content   map[string][]byte // raw bytes by path; enables source excerpts
}

// BuildPrompt renders the structural excerpt plus the mode instruction.
// With a focus path, only that subtree and its direct graph neighbors are
// included.
func BuildPrompt(in PromptInput) (string, error) {
	instruction, ok := modeInstructions[in.Mode]
	if !ok {
		return "", fmt.Errorf("unknown analysis mode %q", in.Mode)
	}

	selected, err := selectFiles(in.Index, in.Focus)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are given the structural index of a source repository. Work only from this index; do not invent files or behavior.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", filepath.Base(in.Index.Root))
	fmt.Fprintf(&b, "Stats: %d files, %d lines, %d functions, %d classes, %d import edges (%d resolved).\n",
		in.Index.Stats.Files, in.Index.Stats.Lines, in.Index.Stats.Functions,
		in.Index.Stats.Classes, in.Index.Stats.Edges, in.Index.Stats.Resolved)

	if len(in.Index.Entries) > 0 {
		b.WriteString("\nEntry points:\n")
		for _, entry := range in.Index.Entries {
			fmt.Fprintf(&b, "- %s (%s): %s\n", entry.Path, strings.Join(entry.Reasons, ", "), entry.Detail)
		}
	}

	if key := in.Index.Graph.MostReferenced(5); len(key) > 0 {
		b.WriteString("\nKey files by inbound references:\n")
		for _, p := range key {
			fmt.Fprintf(&b, "- %s (%d)\n", p, in.Index.Graph.InDegree(p))
		}
	}

	b.WriteString("\nFiles (path|language|functions|classes):\n")
	for i := range in.Index.Files {
		rec := &in.Index.Files[i]
		if !selected[rec.Path] {
			continue
		}
		b.WriteString(rec.Path)
		b.WriteByte('|')
		if rec.Language != "" {
			b.WriteString(rec.Language)
		} else {
			b.WriteString("unknown")
		}
		if len(rec.Functions) > 0 {
			names := make([]string, len(rec.Functions))
			for j, fn := range rec.Functions {
				names[j] = fn.Name
			}
			b.WriteString("|fn:" + strings.Join(names, ","))
		}
		if len(rec.Classes) > 0 {
			names := make([]string, len(rec.Classes))
			for j, cls := range rec.Classes {
				names[j] = cls.Name
			}
			b.WriteString("|cls:" + strings.Join(names, ","))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nImport edges (source>target, ? marks unresolved):\n")
	for _, edge := range in.Index.Edges {
		if !selected[edge.From] {
			continue
		}
		if edge.To != "" {
			if !selected[edge.To] {
				continue
			}
			fmt.Fprintf(&b, "%s>%s\n", edge.From, edge.To)
		} else {
			fmt.Fprintf(&b, "%s>?%s\n", edge.From, edge.Raw)
		}
	}

	writeExcerpts(&b, in, selected)

	if in.Focus != "" {
		fmt.Fprintf(&b, "\nFocus: center the commentary on %s; surrounding files are included only as context.\n", in.Focus)
	}

	b.WriteString("\nTask: " + instruction + "\n")
	b.WriteString(depthWording(in.Reasoning) + "\n")
	b.WriteString("Format the answer as markdown with clear section headings.\n")
	return b.String(), nil
}

// writeExcerpts appends bounded source excerpts for the most relevant
// selected files: entry points first, then the most referenced. Skipped
// entirely when no raw content was provided.
func writeExcerpts(b *strings.Builder, in PromptInput, selected map[string]bool) {
	if len(in.Content) == 0 {
		return
	}
	var order []string
	seen := make(map[string]bool)
	add := func(p string) {
		if len(order) >= excerptFileCap || seen[p] || !selected[p] {
			return
		}
		if _, ok := in.Content[p]; !ok {
			return
		}
		seen[p] = true
		order = append(order, p)
	}
	for _, entry := range in.Index.Entries {
		add(entry.Path)
	}
	for _, p := range in.Index.Graph.MostReferenced(excerptFileCap) {
		add(p)
	}
	for i := range in.Index.Files {
		add(in.Index.Files[i].Path)
	}
	if len(order) == 0 {
		return
	}

	b.WriteString("\nSource excerpts:\n")
	for _, p := range order {
		fmt.Fprintf(b, "--- %s ---\n", p)
		b.WriteString(excerpt(in.Content[p]))
	}
}

// excerpt keeps the first and last lines of a file, eliding the middle.
func excerpt(content []byte) string {
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) <= excerptHead+excerptTail {
		return strings.Join(lines, "\n") + "\n"
	}
	var b strings.Builder
	for _, line := range lines[:excerptHead] {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "... (%d lines elided) ...\n", len(lines)-excerptHead-excerptTail)
	for _, line := range lines[len(lines)-excerptTail:] {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// selectFiles returns the excerpt set: everything without focus, or the
// focus subtree plus its direct graph neighbors.
func selectFiles(idx *index.Index, focus string) (map[string]bool, error) {
	selected := make(map[string]bool, len(idx.Files))
	if focus == "" {
		for i := range idx.Files {
			selected[idx.Files[i].Path] = true
		}
		return selected, nil
	}

	focus = strings.TrimSuffix(path.Clean(filepath.ToSlash(focus)), "/")
	for i := range idx.Files {
		p := idx.Files[i].Path
		if p == focus || strings.HasPrefix(p, focus+"/") {
			selected[p] = true
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("focus path %q matches no indexed files", focus)
	}

	for p := range copySet(selected) {
		for _, out := range idx.Graph.Out(p) {
			selected[out] = true
		}
		for _, in := range idx.Graph.In(p) {
			selected[in] = true
		}
	}
	return selected, nil
}

func copySet(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}

func depthWording(reasoning int) string {
	switch {
	case reasoning <= 2:
		return "Keep the commentary brief: a few sentences per section."
	case reasoning <= 6:
		return "Give a moderately detailed commentary with short justifications."
	default:
		return "Give a thorough commentary: reason carefully about the structure and justify your conclusions."
	}
}

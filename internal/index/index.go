// Package index assembles one run's records, edges, entry points, and
// navigation paths into the immutable snapshot consumed by encoders and
// analysis. Assembly is the single place where internal-consistency
// violations surface as hard errors; irregular input never reaches here
// as anything other than degraded records and unresolved edges.
package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/carto-dev/carto/internal/graph"
	"github.com/carto-dev/carto/internal/nav"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

// ErrInvariant marks an internal-consistency fault: a bug in an upstream
// component, not irregular input.
var ErrInvariant = errors.New("index invariant violated")

// Stats aggregates the per-file and per-edge outcomes of a run.
type Stats struct {
	Files      int            `json:"files"`
	Lines      int            `json:"lines"`
	Functions  int            `json:"functions"`
	Classes    int            `json:"classes"`
	Edges      int            `json:"edges"`
	Resolved   int            `json:"resolved_edges"`
	Unresolved int            `json:"unresolved_edges"`
	Degraded   int            `json:"degraded_files"`
	Languages  map[string]int `json:"languages"`
}

// Index is the navigation index: a frozen snapshot, read-only to every
// downstream consumer. Files sort by path and edges by source, token, and
// target, so identical input yields byte-identical serialized output.
type Index struct {
	Root    string             `json:"root"`
	Files   []parse.FileRecord `json:"files"`
	Edges   []resolve.Edge     `json:"edges"`
	Entries []nav.EntryPoint   `json:"entry_points"`
	Paths   []nav.Path         `json:"navigation_paths"`
	Issues  []parse.Issue      `json:"issues,omitempty"`
	Stats   Stats              `json:"stats"`

	// Graph carries the derived adjacency so consumers never recompute
	// graph facts from the serialized form.
	Graph *graph.Graph `json:"-"`
}

// Input collects everything Assemble folds into a snapshot.
type Input struct {
	Root    string
	Records []parse.FileRecord
	Edges   []resolve.Edge
	Entries []nav.EntryPoint
	Paths   []nav.Path
	Issues  []parse.Issue
}

// Assemble validates the invariants and freezes the snapshot. Entry and
// path ordering is semantic (confidence order) and preserved as given.
func Assemble(in Input) (*Index, error) {
	known := make(map[string]bool, len(in.Records))
	for _, rec := range in.Records {
		if rec.Path == "" {
			return nil, fmt.Errorf("%w: file record with empty path", ErrInvariant)
		}
		if known[rec.Path] {
			return nil, fmt.Errorf("%w: duplicate file record %q", ErrInvariant, rec.Path)
		}
		known[rec.Path] = true
	}

	for _, e := range in.Edges {
		if !known[e.From] {
			return nil, fmt.Errorf("%w: edge source %q has no file record", ErrInvariant, e.From)
		}
		switch e.Confidence {
		case resolve.ConfidenceExact, resolve.ConfidenceHeuristic:
			if e.To == "" {
				return nil, fmt.Errorf("%w: %s edge from %q has no target", ErrInvariant, e.Confidence, e.From)
			}
			if !known[e.To] {
				return nil, fmt.Errorf("%w: edge target %q has no file record", ErrInvariant, e.To)
			}
		case resolve.ConfidenceUnresolved:
			if e.To != "" {
				return nil, fmt.Errorf("%w: unresolved edge from %q carries target %q", ErrInvariant, e.From, e.To)
			}
		default:
			return nil, fmt.Errorf("%w: edge from %q has unknown confidence %q", ErrInvariant, e.From, e.Confidence)
		}
	}

	for _, entry := range in.Entries {
		if !known[entry.Path] {
			return nil, fmt.Errorf("%w: entry point %q has no file record", ErrInvariant, entry.Path)
		}
	}
	for _, p := range in.Paths {
		for _, member := range p.Files {
			if !known[member] {
				return nil, fmt.Errorf("%w: navigation path member %q has no file record", ErrInvariant, member)
			}
		}
	}

	idx := &Index{
		Root:    in.Root,
		Files:   append([]parse.FileRecord(nil), in.Records...),
		Edges:   append([]resolve.Edge(nil), in.Edges...),
		Entries: append([]nav.EntryPoint(nil), in.Entries...),
		Paths:   append([]nav.Path(nil), in.Paths...),
		Issues:  append([]parse.Issue(nil), in.Issues...),
	}
	sort.Slice(idx.Files, func(i, j int) bool { return idx.Files[i].Path < idx.Files[j].Path })
	sort.Slice(idx.Edges, func(i, j int) bool {
		a, b := idx.Edges[i], idx.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Raw != b.Raw {
			return a.Raw < b.Raw
		}
		return a.To < b.To
	})
	sort.Slice(idx.Issues, func(i, j int) bool {
		a, b := idx.Issues[i], idx.Issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Message < b.Message
	})

	idx.Stats = buildStats(idx)
	idx.Graph = graph.Build(idx.Files, idx.Edges)
	return idx, nil
}

func buildStats(idx *Index) Stats {
	stats := Stats{
		Files:     len(idx.Files),
		Edges:     len(idx.Edges),
		Languages: make(map[string]int),
	}
	for _, rec := range idx.Files {
		stats.Lines += rec.Lines
		stats.Functions += len(rec.Functions)
		stats.Classes += len(rec.Classes)
		tag := rec.Language
		if tag == "" {
			tag = "unknown"
		}
		stats.Languages[tag]++
	}
	for _, e := range idx.Edges {
		if e.To != "" {
			stats.Resolved++
		} else {
			stats.Unresolved++
		}
	}
	degraded := make(map[string]bool)
	for _, issue := range idx.Issues {
		degraded[issue.File] = true
	}
	stats.Degraded = len(degraded)
	return stats
}

// Record returns the file record for path, or nil.
func (idx *Index) Record(path string) *parse.FileRecord {
	i := sort.Search(len(idx.Files), func(i int) bool { return idx.Files[i].Path >= path })
	if i < len(idx.Files) && idx.Files[i].Path == path {
		return &idx.Files[i]
	}
	return nil
}

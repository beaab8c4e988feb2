// Package graph aggregates parse records and resolved edges into the
// file-level import graph. Degrees and neighbor sets are derived from the
// edge set alone, so they cannot drift from it, and cycles are ordinary:
// a file may appear in its own transitive closure.
package graph

import (
	"sort"

	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

// Graph is an immutable aggregation of one run's records and edges.
type Graph struct {
	Records map[string]*parse.FileRecord
	Edges   []resolve.Edge

	paths []string
	out   map[string][]string // resolved targets per source, deduped
	in    map[string][]string // sources per resolved target, deduped
}

// Build aggregates records and edges. Unresolved edges stay in Edges but
// contribute nothing to adjacency or degrees.
func Build(records []parse.FileRecord, edges []resolve.Edge) *Graph {
	g := &Graph{
		Records: make(map[string]*parse.FileRecord, len(records)),
		Edges:   edges,
		out:     make(map[string][]string),
		in:      make(map[string][]string),
	}
	for i := range records {
		rec := records[i]
		g.Records[rec.Path] = &rec
	}
	for _, e := range edges {
		if e.To == "" {
			continue
		}
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
	}
	for from, targets := range g.out {
		g.out[from] = dedupeAndSort(targets)
	}
	for to, sources := range g.in {
		g.in[to] = dedupeAndSort(sources)
	}

	g.paths = make([]string, 0, len(g.Records))
	for p := range g.Records {
		g.paths = append(g.paths, p)
	}
	sort.Strings(g.paths)
	return g
}

// Paths returns every file path in lexical order.
func (g *Graph) Paths() []string {
	return append([]string(nil), g.paths...)
}

// Out returns the distinct resolved import targets of path, sorted.
func (g *Graph) Out(path string) []string {
	return append([]string(nil), g.out[path]...)
}

// In returns the distinct files that import path, sorted.
func (g *Graph) In(path string) []string {
	return append([]string(nil), g.in[path]...)
}

// OutDegree counts resolved edges leaving path. Parallel imports of the
// same target count separately.
func (g *Graph) OutDegree(path string) int {
	n := 0
	for _, e := range g.Edges {
		if e.From == path && e.To != "" {
			n++
		}
	}
	return n
}

// InDegree counts resolved edges arriving at path.
func (g *Graph) InDegree(path string) int {
	n := 0
	for _, e := range g.Edges {
		if e.To == path {
			n++
		}
	}
	return n
}

// MostReferenced returns up to n paths ordered by in-degree descending,
// ties broken lexically. Files nothing imports are excluded.
func (g *Graph) MostReferenced(n int) []string {
	counts := make(map[string]int)
	for _, e := range g.Edges {
		if e.To != "" {
			counts[e.To]++
		}
	}
	paths := make([]string, 0, len(counts))
	for p := range counts {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if counts[paths[i]] != counts[paths[j]] {
			return counts[paths[i]] > counts[paths[j]]
		}
		return paths[i] < paths[j]
	})
	if n >= 0 && n < len(paths) {
		paths = paths[:n]
	}
	return paths
}

// Components returns the weakly connected clusters, treating resolved
// edges as undirected. Members are sorted; since traversal seeds from the
// sorted path list, components come out ordered by their first member.
func (g *Graph) Components() [][]string {
	visited := make(map[string]bool)
	var components [][]string
	for _, start := range g.paths {
		if visited[start] {
			continue
		}
		visited[start] = true
		members := []string{}
		queue := []string{start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			members = append(members, current)
			for _, next := range g.neighbors(current) {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Strings(members)
		components = append(components, members)
	}
	return components
}

func (g *Graph) neighbors(path string) []string {
	joined := append(append([]string(nil), g.out[path]...), g.in[path]...)
	return dedupeAndSort(joined)
}

func dedupeAndSort(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

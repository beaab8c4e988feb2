// Package nav infers likely entry points and synthesizes short
// representative traversal paths through the import graph. Everything here
// is deterministic: candidate ordering, traversal order, and tie-breaks
// all reduce to degree comparisons and lexical path order.
package nav

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/carto-dev/carto/internal/graph"
)

// Reason codes attached to entry-point candidates. A candidate may carry
// both.
const (
	ReasonNamePattern = "name-pattern"
	ReasonGraphShape  = "graph-shape"
)

// Path labels.
const (
	LabelEntryPath = "entry -> most-referenced"
	LabelIsolated  = "isolated component"
)

// EntryPoint is one candidate with every signal that fired for it.
type EntryPoint struct {
	Path    string   `json:"path"`
	Reasons []string `json:"reasons"`
	Detail  string   `json:"detail"`
}

// Path is an ordered file sequence with a label describing its purpose.
type Path struct {
	Label string   `json:"label"`
	Files []string `json:"files"`
}

// Options bound inference and synthesis.
type Options struct {
	EntryCap   int // entry points considered for path synthesis
	HopLimit   int // forward BFS depth per entry
	ClusterCap int // members listed per isolated component
	Fanout     int // minimum out-degree for the graph-shape signal
}

func DefaultOptions() Options {
	return Options{EntryCap: 5, HopLimit: 3, ClusterCap: 8, Fanout: 1}
}

// entryStems are conventional entry-point file stems, matched
// case-insensitively against the extension-stripped basename.
var entryStems = map[string]bool{
	"main":     true,
	"index":    true,
	"app":      true,
	"cli":      true,
	"server":   true,
	"run":      true,
	"start":    true,
	"manage":   true,
	"__main__": true,
}

// InferEntryPoints returns every candidate, ordered by descending
// confidence: both signals, then graph shape, then name pattern, with
// out-degree and lexical path breaking ties.
func InferEntryPoints(g *graph.Graph, opts Options) []EntryPoint {
	var out []EntryPoint
	for _, p := range g.Paths() {
		stem := strings.ToLower(strings.TrimSuffix(path.Base(p), path.Ext(p)))
		nameHit := entryStems[stem]
		in, outDeg := g.InDegree(p), g.OutDegree(p)
		shapeHit := in == 0 && outDeg >= opts.Fanout

		if !nameHit && !shapeHit {
			continue
		}
		ep := EntryPoint{Path: p}
		var details []string
		if nameHit {
			ep.Reasons = append(ep.Reasons, ReasonNamePattern)
			details = append(details, fmt.Sprintf("filename stem %q is a conventional entry name", stem))
		}
		if shapeHit {
			ep.Reasons = append(ep.Reasons, ReasonGraphShape)
			details = append(details, fmt.Sprintf("imports %d file(s) but nothing imports it", outDeg))
		}
		ep.Detail = strings.Join(details, "; ")
		out = append(out, ep)
	}

	rank := func(ep EntryPoint) int {
		switch {
		case len(ep.Reasons) == 2:
			return 0
		case ep.Reasons[0] == ReasonGraphShape:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		oi, oj := g.OutDegree(out[i].Path), g.OutDegree(out[j].Path)
		if oi != oj {
			return oi > oj
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Synthesize derives the navigation paths: one bounded forward traversal
// per leading entry point, plus one path per connected cluster that
// contains no entry candidate at all.
func Synthesize(g *graph.Graph, entries []EntryPoint, opts Options) []Path {
	var paths []Path

	limit := opts.EntryCap
	if limit > len(entries) {
		limit = len(entries)
	}
	for _, entry := range entries[:limit] {
		if p, ok := entryPath(g, entry.Path, opts.HopLimit); ok {
			paths = append(paths, p)
		}
	}

	isEntry := make(map[string]bool, len(entries))
	for _, entry := range entries {
		isEntry[entry.Path] = true
	}
	for _, members := range g.Components() {
		if len(members) < 2 {
			continue
		}
		hasEntry := false
		for _, member := range members {
			if isEntry[member] {
				hasEntry = true
				break
			}
		}
		if hasEntry {
			continue
		}
		if len(members) > opts.ClusterCap {
			members = members[:opts.ClusterCap]
		}
		paths = append(paths, Path{Label: LabelIsolated, Files: members})
	}

	return paths
}

// entryPath walks forward from start up to hopLimit hops and returns the
// discovery path to the most-referenced file reached. The visited set
// makes cyclic graphs terminate; ties go to the lexically smaller path.
func entryPath(g *graph.Graph, start string, hopLimit int) (Path, bool) {
	type item struct {
		path  string
		depth int
	}
	visited := map[string]bool{start: true}
	parent := map[string]string{}
	queue := []item{{start, 0}}

	best := ""
	bestIn := -1
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.path != start {
			in := g.InDegree(current.path)
			if in > bestIn || (in == bestIn && current.path < best) {
				best, bestIn = current.path, in
			}
		}
		if current.depth >= hopLimit {
			continue
		}
		for _, next := range g.Out(current.path) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current.path
			queue = append(queue, item{next, current.depth + 1})
		}
	}
	if best == "" {
		return Path{}, false
	}
	return Path{Label: LabelEntryPath, Files: reconstruct(parent, start, best)}, true
}

func reconstruct(parent map[string]string, from, to string) []string {
	out := []string{to}
	for current := to; current != from; {
		prev, ok := parent[current]
		if !ok {
			return nil
		}
		out = append(out, prev)
		current = prev
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

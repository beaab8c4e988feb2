// Package resolve turns raw import tokens into concrete files within the
// scanned tree. Every token yields exactly one edge: a located target with
// its confidence, or a retained unresolved edge, so "imports something we
// can't see" stays distinguishable from "imports nothing".
package resolve

import (
	"context"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/carto-dev/carto/internal/lang"
	"github.com/carto-dev/carto/internal/parse"
)

// Resolution confidence, carried through to the final index.
const (
	ConfidenceExact      = "exact"
	ConfidenceHeuristic  = "heuristic"
	ConfidenceUnresolved = "unresolved"
)

// Edge is one import occurrence. To is empty when resolution failed.
type Edge struct {
	From       string `json:"from"`
	Raw        string `json:"raw"`
	To         string `json:"to,omitempty"`
	Confidence string `json:"confidence"`
}

// Resolver answers lookups against one immutable snapshot of the tree's
// path set. It never reads outside that set and never touches the
// filesystem beyond the manifest bytes handed to New.
type Resolver struct {
	files map[string]bool
	// stem ("util", ext-stripped basename) -> ext-stripped full paths,
	// for package-token suffix matching. Directory-index files register
	// their parent directory as an extra stem.
	stems map[string][]string
	// dir -> sorted member files, for tokens that name a directory of
	// sources rather than a single file (Go packages, namespace packages).
	dirs  map[string][]string
	roots []*packageRoot
}

// New indexes paths (repo-relative, slash-separated) and discovers package
// roots from manifest files among them. readFile supplies manifest bytes
// for module-name extraction and may be nil.
func New(paths []string, readFile func(string) ([]byte, bool)) *Resolver {
	r := &Resolver{
		files: make(map[string]bool, len(paths)),
		stems: make(map[string][]string),
		dirs:  make(map[string][]string),
	}
	for _, p := range paths {
		p = path.Clean(p)
		r.files[p] = true
		if dir := path.Dir(p); dir != "." {
			r.dirs[dir] = append(r.dirs[dir], p)
		}

		stripped := strings.TrimSuffix(p, path.Ext(p))
		base := path.Base(stripped)
		r.stems[base] = append(r.stems[base], stripped)
		if indexStems[base] {
			dir := path.Dir(stripped)
			if dir != "." {
				r.stems[path.Base(dir)] = append(r.stems[path.Base(dir)], dir)
			}
		}
	}
	for _, paths := range r.stems {
		sort.Strings(paths)
	}
	for _, members := range r.dirs {
		sort.Strings(members)
	}
	r.roots = discoverRoots(paths, readFile)
	return r
}

// indexStems are file stems that stand in for their directory when a
// package token names the directory itself.
var indexStems = map[string]bool{
	"index":    true,
	"__init__": true,
	"mod":      true,
	"lib":      true,
}

// sourceDirs are conventional source subdirectories tried under each
// package root.
var sourceDirs = []string{"", "src", "lib", "src/main/java"}

// Resolve maps one raw token from one importing file onto an edge.
// Relative tokens resolve exactly or not at all; package-style tokens go
// through root and suffix heuristics; everything else stays unresolved.
func (r *Resolver) Resolve(raw, from string, l *lang.Language) Edge {
	edge := Edge{From: from, Raw: raw, Confidence: ConfidenceUnresolved}
	token := strings.TrimSpace(raw)
	if token == "" {
		return edge
	}
	fromDir := path.Dir(from)

	if rel, ok := relativeTarget(token, l); ok {
		if target, found := r.tryFile(path.Join(fromDir, rel), l); found && target != from {
			edge.To = target
			edge.Confidence = ConfidenceExact
		}
		return edge
	}

	if target, found := r.heuristicTarget(token, from, l); found {
		edge.To = target
		edge.Confidence = ConfidenceHeuristic
	}
	return edge
}

// relativeTarget normalizes explicitly relative tokens: "./x", "../x", and
// leading-dot forms in languages where dots mean the importer's package.
func relativeTarget(token string, l *lang.Language) (string, bool) {
	if strings.HasPrefix(token, "./") || strings.HasPrefix(token, "../") {
		return token, true
	}
	if token == "." || token == ".." {
		return token, true
	}
	if l != nil && l.RelativeDots && strings.HasPrefix(token, ".") {
		dots := 0
		for dots < len(token) && token[dots] == '.' {
			dots++
		}
		rest := pathForm(token[dots:], l)
		up := strings.Repeat("../", dots-1)
		if rest == "" {
			if up == "" {
				return ".", true
			}
			return strings.TrimSuffix(up, "/"), true
		}
		return up + rest, true
	}
	return "", false
}

// heuristicTarget resolves a package-style token: the importer's own
// directory first, then every discovered root (with module-name stripping
// and conventional source subdirectories), then path-suffix matching over
// the whole tree. Ties prefer the importer's top-level directory, then the
// shortest path, then lexical order.
func (r *Resolver) heuristicTarget(token, from string, l *lang.Language) (string, bool) {
	q := pathForm(token, l)
	if q == "" {
		return "", false
	}
	fromDir := path.Dir(from)

	// self/super/crate are module-path syntax, not directory names
	if l != nil && l.Separator == "::" {
		switch first, rest, _ := strings.Cut(q, "/"); first {
		case "self":
			q = rest
			if target, ok := r.tryPackage(path.Join(fromDir, rest), l); ok && target != from {
				return target, true
			}
		case "super":
			if target, ok := r.tryPackage(path.Join(fromDir, "..", rest), l); ok && target != from {
				return target, true
			}
			return "", false
		case "crate":
			q = rest
		}
	}

	seen := map[string]bool{}
	var candidates []string
	add := func(target string, ok bool) {
		if ok && target != from && !seen[target] {
			seen[target] = true
			candidates = append(candidates, target)
		}
	}

	add(r.tryPackage(path.Join(fromDir, q), l))

	for _, root := range r.roots {
		queries := []string{q}
		if trimmed, ok := root.trimModule(q); ok {
			queries = append(queries, trimmed)
		}
		for _, query := range queries {
			for _, sub := range sourceDirs {
				add(r.tryPackage(path.Join(root.dir, sub, query), l))
			}
		}
	}

	stem := q[strings.LastIndex(q, "/")+1:]
	for _, stripped := range r.stems[stem] {
		if stripped == q || strings.HasSuffix(stripped, "/"+q) {
			add(r.restore(stripped, l))
		}
	}

	if len(candidates) == 0 {
		return "", false
	}
	return pickCandidate(from, candidates), true
}

// tryFile locates the concrete file a cleaned base path denotes: the path
// itself, the path under the language's source extensions, or a directory
// index file.
func (r *Resolver) tryFile(base string, l *lang.Language) (string, bool) {
	base = path.Clean(base)
	if base == "" || base == ".." || strings.HasPrefix(base, "../") {
		return "", false
	}
	if base != "." {
		if r.files[base] {
			return base, true
		}
		for _, ext := range extensions(l) {
			if r.files[base+ext] {
				return base + ext, true
			}
		}
	}
	if l != nil {
		for _, stemName := range l.IndexStems {
			for _, ext := range extensions(l) {
				candidate := path.Join(base, stemName+ext)
				if r.files[candidate] {
					return candidate, true
				}
			}
		}
	}
	// dir/dir.ext convention (store/store.go, widget/widget.cpp)
	if bn := path.Base(base); bn != "." && bn != "/" {
		for _, ext := range extensions(l) {
			candidate := path.Join(base, bn+ext)
			if r.files[candidate] {
				return candidate, true
			}
		}
	}
	return "", false
}

// tryPackage extends tryFile to tokens that name a whole source directory:
// when no single file matches, the lexically first member with one of the
// language's extensions stands in for the package.
func (r *Resolver) tryPackage(base string, l *lang.Language) (string, bool) {
	if target, ok := r.tryFile(base, l); ok {
		return target, true
	}
	for _, member := range r.dirs[path.Clean(base)] {
		for _, ext := range extensions(l) {
			if strings.HasSuffix(member, ext) {
				return member, true
			}
		}
	}
	return "", false
}

// restore maps an ext-stripped path from the stem index back to a real
// file, retrying extensions and index stems.
func (r *Resolver) restore(stripped string, l *lang.Language) (string, bool) {
	return r.tryFile(stripped, l)
}

func extensions(l *lang.Language) []string {
	if l == nil {
		return nil
	}
	return l.Extensions
}

// pathForm rewrites a token's separators into path separators.
func pathForm(token string, l *lang.Language) string {
	sep := "/"
	if l != nil && l.Separator != "" {
		sep = l.Separator
	}
	q := token
	if sep != "/" {
		q = strings.ReplaceAll(q, sep, "/")
	}
	q = strings.Trim(q, "/")
	return q
}

func pickCandidate(from string, candidates []string) string {
	fromTop := topDir(from)
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		sameI, sameJ := topDir(ci) == fromTop, topDir(cj) == fromTop
		if sameI != sameJ {
			return sameI
		}
		if len(ci) != len(cj) {
			return len(ci) < len(cj)
		}
		return ci < cj
	})
	return candidates[0]
}

func topDir(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// ResolveAll resolves every record's tokens. Records are independent once
// the path set is frozen, so they fan out across workers; edge order
// stays deterministic because each record owns a slot.
func ResolveAll(ctx context.Context, r *Resolver, records []parse.FileRecord, workers int) []Edge {
	if workers <= 0 {
		workers = parse.DefaultWorkers()
	}
	perRecord := make([][]Edge, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx := range records {
		idx := idx
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rec := records[idx]
			l := lang.ByTag(rec.Language)
			edges := make([]Edge, 0, len(rec.Imports))
			for _, token := range rec.Imports {
				edges = append(edges, r.Resolve(token, rec.Path, l))
			}
			perRecord[idx] = edges
			return nil
		})
	}
	_ = g.Wait()

	var out []Edge
	for _, edges := range perRecord {
		out = append(out, edges...)
	}
	return out
}

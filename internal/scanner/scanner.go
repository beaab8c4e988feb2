// Package scanner walks a source tree and collects the file set the
// indexing pipeline works on: exclusion rules, size and count limits, and
// binary detection all happen here, so downstream stages only ever see
// in-scope text files.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/carto-dev/carto/internal/lang"
	"github.com/carto-dev/carto/internal/logging"
)

// defaultExcludes are ignored on every run, before .gitignore and
// .cartoignore are merged in. Patterns follow gitignore syntax.
var defaultExcludes = []string{
	"node_modules", ".git", "__pycache__", "*.pyc", "*.pyo", "*.pyd",
	"*.so", "*.dll", "*.exe", "*.bin", "*.obj", "*.o", "*.a", "*.lib",
	"*.dylib", "*.pdb", "venv", "env", ".env", ".venv", ".pytest_cache",
	".mypy_cache", ".ruff_cache", "build", "dist", "*.egg-info", "*.egg",
	".tox", ".nox", ".coverage", ".DS_Store", "*.min.js", "*.min.css",
	"*.map", "package-lock.json", "yarn.lock", ".vscode", ".idea",
	"*.swp", "*.swo", ".ipynb_checkpoints", "target", "vendor", ".carto",
}

// File is one collected file. Path is repo-relative and slash-separated;
// Size is the on-disk size, which exceeds len(Content) when Truncated.
type File struct {
	Path      string
	Size      int64
	Content   []byte
	Truncated bool
}

// Options bound a scan.
type Options struct {
	MaxFiles       int
	MaxFileSize    int64    // bytes; larger files are read truncated
	Excludes       []string // extra glob patterns from configuration
	Extensions     []string // when set, only these extensions are collected
	FollowSymlinks bool
	Logger         logging.Logger
}

func DefaultOptions() Options {
	return Options{
		MaxFiles:    100,
		MaxFileSize: 100 * 1024,
	}
}

// Stats reports what the walk saw and dropped.
type Stats struct {
	Collected int
	Excluded  int
	Binary    int
	Capped    bool
}

// Result is the ordered file set plus walk statistics.
type Result struct {
	Files []File
	Stats Stats
}

var errLimit = errors.New("file limit reached")

// Rules answers exclusion questions for one tree: built-in excludes,
// .gitignore/.cartoignore lines, and configured glob patterns. The
// watcher shares them so change events follow the same decisions as the
// walk.
type Rules struct {
	ignore   *gitignore.GitIgnore
	excludes []string
}

// LoadRules merges the built-in excludes with the tree's ignore files
// and the configured patterns.
func LoadRules(root string, excludes []string, log logging.Logger) *Rules {
	if log == nil {
		log = logging.Nop()
	}
	lines := append([]string(nil), defaultExcludes...)
	for _, name := range []string{".gitignore", ".cartoignore"} {
		lines = append(lines, loadIgnoreFile(filepath.Join(root, name), log)...)
	}
	return &Rules{
		ignore:   gitignore.CompileIgnoreLines(lines...),
		excludes: excludes,
	}
}

// SkipDir reports whether a directory (repo-relative, slash form) is out
// of scope.
func (r *Rules) SkipDir(rel string) bool {
	return r.ignore.MatchesPath(rel+"/") || r.matchesExcludes(rel)
}

// SkipFile reports whether a file path is out of scope.
func (r *Rules) SkipFile(rel string) bool {
	return r.ignore.MatchesPath(rel) || r.matchesExcludes(rel)
}

func (r *Rules) matchesExcludes(rel string) bool {
	base := path.Base(rel)
	for _, pattern := range r.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

type walker struct {
	ctx     context.Context
	root    string
	opts    Options
	log     logging.Logger
	rules   *Rules
	exts    map[string]bool
	visited map[string]bool
	files   []File
	stats   Stats
}

// Scan walks root and returns every in-scope file, sorted by path.
// Per-file problems are logged and skipped; only an unusable root or a
// cancelled context fails the scan.
func Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultOptions().MaxFiles
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultOptions().MaxFileSize
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", absRoot)
	}

	w := &walker{
		ctx:     ctx,
		root:    absRoot,
		opts:    opts,
		log:     log,
		rules:   LoadRules(absRoot, opts.Excludes, log),
		exts:    normalizeExtensions(opts.Extensions),
		visited: map[string]bool{},
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		w.visited[resolved] = true
	}

	if err := w.walk(absRoot, ""); err != nil && !errors.Is(err, errLimit) {
		return nil, err
	}
	sort.Slice(w.files, func(i, j int) bool { return w.files[i].Path < w.files[j].Path })
	w.stats.Collected = len(w.files)
	return &Result{Files: w.files, Stats: w.stats}, nil
}

func loadIgnoreFile(path string, log logging.Logger) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Debug("no ignore file at %s: %v", path, err)
		return nil
	}
	var lines []string
	for _, line := range bytes.Split(content, []byte{'\n'}) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 && !bytes.HasPrefix(trimmed, []byte{'#'}) {
			lines = append(lines, string(trimmed))
		}
	}
	return lines
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[strings.ToLower(ext)] = true
	}
	return out
}

func (w *walker) walk(dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Warn("cannot read directory %s: %v", dir, err)
		return nil
	}
	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if w.stats.Capped {
			return errLimit
		}
		name := entry.Name()
		rel := path.Join(prefix, name)
		abs := filepath.Join(dir, name)

		if entry.Type()&fs.ModeSymlink != 0 {
			if err := w.walkSymlink(abs, rel); err != nil {
				return err
			}
			continue
		}
		if entry.IsDir() {
			if w.skipDir(rel) {
				w.log.Debug("skipping ignored directory: %s", rel)
				continue
			}
			if err := w.walk(abs, rel); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			w.log.Warn("cannot stat %s: %v", rel, err)
			continue
		}
		w.addFile(abs, rel, info.Size())
	}
	return nil
}

func (w *walker) walkSymlink(abs, rel string) error {
	if !w.opts.FollowSymlinks {
		w.log.Debug("skipping symlink: %s", rel)
		return nil
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		w.log.Warn("cannot resolve symlink %s: %v", rel, err)
		return nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		w.log.Warn("cannot stat symlink target %s: %v", rel, err)
		return nil
	}
	if info.IsDir() {
		if w.visited[resolved] {
			w.log.Debug("skipping already-visited symlink target: %s", rel)
			return nil
		}
		w.visited[resolved] = true
		if w.skipDir(rel) {
			return nil
		}
		return w.walk(resolved, rel)
	}
	w.addFile(resolved, rel, info.Size())
	return nil
}

func (w *walker) skipDir(rel string) bool {
	return w.rules.SkipDir(rel)
}

func (w *walker) addFile(abs, rel string, size int64) {
	if w.rules.SkipFile(rel) {
		w.stats.Excluded++
		return
	}
	if w.exts != nil && !w.exts[strings.ToLower(path.Ext(rel))] {
		w.stats.Excluded++
		return
	}

	content, truncated, err := readBounded(abs, size, w.opts.MaxFileSize)
	if err != nil {
		w.log.Warn("cannot read %s: %v", rel, err)
		return
	}
	if truncated {
		w.log.Debug("truncated read for %s (%d bytes on disk)", rel, size)
	}
	if lang.Classify(rel) == nil && looksBinary(content) {
		w.log.Debug("skipping binary file: %s", rel)
		w.stats.Binary++
		return
	}

	w.files = append(w.files, File{Path: rel, Size: size, Content: content, Truncated: truncated})
	if len(w.files) >= w.opts.MaxFiles {
		w.log.Warn("reached maximum file count %d, stopping collection", w.opts.MaxFiles)
		w.stats.Capped = true
	}
}

// readBounded reads the whole file, or its first limit bytes when the file
// is larger.
func readBounded(abs string, size, limit int64) ([]byte, bool, error) {
	if size <= limit {
		content, err := os.ReadFile(abs)
		return content, false, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	content := make([]byte, limit)
	n, err := io.ReadFull(f, content)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, false, err
	}
	return content[:n], true, nil
}

// looksBinary flags content whose leading bytes contain a NUL, which text
// files essentially never do.
func looksBinary(content []byte) bool {
	probe := content
	if len(probe) > 4096 {
		probe = probe[:4096]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

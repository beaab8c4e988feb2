package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/carto-dev/carto/internal/encode"
	"github.com/carto-dev/carto/internal/index"
	"github.com/carto-dev/carto/internal/state"
)

func TestIndexWritesEveryArtifact(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	runCarto(t, "index", root, "--format", "all", "--quiet")

	outDir := filepath.Join(root, ".carto")
	assertExists(t, filepath.Join(outDir, encode.IndexFile))
	assertExists(t, filepath.Join(outDir, encode.ReportFile))
	assertExists(t, filepath.Join(outDir, encode.CompactFile))
	assertExists(t, filepath.Join(outDir, "diagram.dot"))
	assertExists(t, filepath.Join(outDir, state.FileName))

	idx := readIndexFile(t, root)
	if idx.Stats.Files != 2 {
		t.Fatalf("expected 2 indexed files, got %d", idx.Stats.Files)
	}
	var paths []string
	for _, rec := range idx.Files {
		paths = append(paths, rec.Path)
	}
	if len(paths) != 2 || paths[0] != "main.py" || paths[1] != "util.py" {
		t.Fatalf("unexpected file list: %v", paths)
	}

	found := false
	for _, edge := range idx.Edges {
		if edge.From == "main.py" && edge.To == "util.py" {
			found = true
			if edge.Confidence == "" || edge.Confidence == "unresolved" {
				t.Fatalf("expected the util import to resolve, got confidence %q", edge.Confidence)
			}
		}
	}
	if !found {
		t.Fatalf("expected an edge main.py -> util.py, got %+v", idx.Edges)
	}
}

func TestIndexTwiceIsByteIdentical(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	runCarto(t, "index", root, "--format", "all", "--quiet")
	first := readArtifacts(t, root, encode.IndexFile, encode.ReportFile, "diagram.dot")

	runCarto(t, "index", root, "--format", "all", "--quiet")
	second := readArtifacts(t, root, encode.IndexFile, encode.ReportFile, "diagram.dot")

	for name, data := range first {
		if !bytes.Equal(data, second[name]) {
			t.Fatalf("%s differs between two runs over an unchanged tree", name)
		}
	}
}

func TestIndexSummaryJSON(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	out := runCarto(t, "index", root, "--json", "--quiet")

	var summary RunSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode run summary: %v\noutput: %s", err, out)
	}
	if summary.Mode != "index" {
		t.Fatalf("expected mode index, got %q", summary.Mode)
	}
	if summary.RunID == "" {
		t.Fatalf("expected a run id in the summary")
	}
	if summary.Scanned != 2 {
		t.Fatalf("expected 2 scanned files, got %d", summary.Scanned)
	}
	if summary.Functions != 2 {
		t.Fatalf("expected 2 functions, got %d", summary.Functions)
	}
	if summary.Edges < 1 || summary.Resolved < 1 {
		t.Fatalf("expected at least one resolved edge, got edges=%d resolved=%d", summary.Edges, summary.Resolved)
	}
	if summary.OutputDir != filepath.Join(root, ".carto") {
		t.Fatalf("unexpected output dir %q", summary.OutputDir)
	}
	if len(summary.Artifacts) != 1 || summary.Artifacts[0] != encode.ReportFile {
		t.Fatalf("expected the markdown artifact, got %v", summary.Artifacts)
	}
}

func TestIndexReusesParseCache(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	runCarto(t, "index", root, "--quiet")
	out := runCarto(t, "index", root, "--json", "--quiet")

	var summary RunSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode run summary: %v", err)
	}
	if summary.Reused != 2 {
		t.Fatalf("expected both files to come from the parse cache, got reused=%d", summary.Reused)
	}
	if summary.Parsed != 0 {
		t.Fatalf("expected no fresh parses on the second run, got %d", summary.Parsed)
	}
}

func TestIndexNoCacheParsesEverything(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	runCarto(t, "index", root, "--quiet")
	out := runCarto(t, "index", root, "--no-cache", "--json", "--quiet")

	var summary RunSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode run summary: %v", err)
	}
	if summary.Reused != 0 {
		t.Fatalf("expected no cache reuse with --no-cache, got %d", summary.Reused)
	}
	if summary.Parsed != 2 {
		t.Fatalf("expected both files parsed fresh, got %d", summary.Parsed)
	}
}

func TestIndexExcludeFlag(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)
	mustWriteFile(t, filepath.Join(root, "notes.md"), "# scratch\n")

	runCarto(t, "index", root, "--exclude", "*.md", "--format", "json", "--quiet")

	idx := readIndexFile(t, root)
	for _, rec := range idx.Files {
		if rec.Path == "notes.md" {
			t.Fatalf("expected notes.md to be excluded, got %v", idx.Files)
		}
	}
	if idx.Stats.Files != 2 {
		t.Fatalf("expected 2 files after exclusion, got %d", idx.Stats.Files)
	}
}

func TestIndexRejectsMissingRoot(t *testing.T) {
	err := runCartoErr(t, "index", filepath.Join(t.TempDir(), "missing"))
	if err == nil || !strings.Contains(err.Error(), "failed to access path") {
		t.Fatalf("expected a path error, got %v", err)
	}
}

func TestIndexRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "single.py")
	mustWriteFile(t, file, "x = 1\n")

	err := runCartoErr(t, "index", file)
	if err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Fatalf("expected a directory error, got %v", err)
	}
}

func TestIndexRejectsUnknownFormat(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	err := runCartoErr(t, "index", root, "--format", "pdf")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Fatalf("expected a format error, got %v", err)
	}
}

func TestAnalyzeDryRunPrintsPrompt(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	out := runCarto(t, "analyze", root, "--dry-run", "--quiet")

	if !strings.Contains(out, "Task:") {
		t.Fatalf("expected the prompt to carry a task section, got:\n%s", out)
	}
	if !strings.Contains(out, "main.py") {
		t.Fatalf("expected the prompt to mention main.py, got:\n%s", out)
	}
}

func TestAnalyzeNeedsAPIKey(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	err := runCartoErr(t, "analyze", root)
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected a missing key error, got %v", err)
	}
}

func TestAnalyzeRoundTripAndCache(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CARTO_API_KEY", "test-key")
	root := writeDemoTree(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":"# Overview\n\nA tiny two-file demo."},"finish_reason":"stop"}],"usage":{"total_tokens":42}}`)
	}))
	defer srv.Close()

	out := runCarto(t, "analyze", root, "--base-url", srv.URL, "--quiet")
	if !strings.Contains(out, "tiny two-file demo") {
		t.Fatalf("expected the analysis on stdout, got:\n%s", out)
	}
	analysisPath := filepath.Join(root, ".carto", encode.AnalysisFile)
	data, err := os.ReadFile(analysisPath)
	if err != nil {
		t.Fatalf("failed to read analysis artifact: %v", err)
	}
	if !strings.Contains(string(data), "tiny two-file demo") {
		t.Fatalf("unexpected analysis artifact:\n%s", data)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one upstream call, got %d", n)
	}

	out = runCarto(t, "analyze", root, "--base-url", srv.URL, "--quiet")
	if !strings.Contains(out, "tiny two-file demo") {
		t.Fatalf("expected the cached analysis on stdout, got:\n%s", out)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected the second run to hit the analysis cache, got %d upstream calls", n)
	}
}

func TestStatusTracksDrift(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	runCarto(t, "index", root, "--quiet")

	report := statusReport(t, root)
	if !report.Fresh {
		t.Fatalf("expected a fresh report right after indexing, got %+v", report)
	}
	if report.Tracked != 2 || report.OnDisk != 2 {
		t.Fatalf("expected 2 tracked and 2 on-disk files, got %+v", report)
	}

	mustWriteFile(t, filepath.Join(root, "main.py"), "import util\nimport sys\n\ndef main():\n    util.run()\n")

	report = statusReport(t, root)
	if report.Fresh {
		t.Fatalf("expected a stale report after editing main.py")
	}
	if report.Changed != 1 || len(report.ChangedFiles) != 1 || report.ChangedFiles[0] != "main.py" {
		t.Fatalf("expected main.py to be reported changed, got %+v", report)
	}

	if err := os.Remove(filepath.Join(root, ".carto", encode.ReportFile)); err != nil {
		t.Fatalf("failed to remove artifact: %v", err)
	}

	report = statusReport(t, root)
	if len(report.MissingArtifacts) != 1 || report.MissingArtifacts[0] != encode.ReportFile {
		t.Fatalf("expected index.md to be reported missing, got %+v", report)
	}
}

func TestStatusBeforeFirstIndex(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	report := statusReport(t, root)
	if report.Fresh {
		t.Fatalf("expected an unindexed tree to report stale")
	}
	if report.Tracked != 0 || report.OnDisk != 2 {
		t.Fatalf("expected 0 tracked and 2 on-disk files, got %+v", report)
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	isolateEnv(t)
	root := writeDemoTree(t)

	runCarto(t, "index", root, "--quiet")

	stats := cacheStats(t)
	if stats.ParseEntries < 2 {
		t.Fatalf("expected at least 2 parse entries after indexing, got %d", stats.ParseEntries)
	}
	if stats.SizeBytes <= 0 {
		t.Fatalf("expected a non-empty cache, got %d bytes", stats.SizeBytes)
	}

	out := runCarto(t, "cache", "clear")
	if !strings.Contains(out, "cache cleared") {
		t.Fatalf("unexpected clear output: %s", out)
	}

	stats = cacheStats(t)
	if stats.ParseEntries != 0 || stats.SizeBytes != 0 {
		t.Fatalf("expected an empty cache after clear, got %+v", stats)
	}
}

func TestVersionCommand(t *testing.T) {
	out := runCarto(t, "version")
	if out != "carto test\n" {
		t.Fatalf("unexpected version output %q", out)
	}
}

// isolateEnv points HOME at a throwaway directory so cache state cannot
// leak between tests or from the host, and strips any ambient API key.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CARTO_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

// writeDemoTree lays out a two-file python project with one resolvable
// import between the files.
func writeDemoTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "main.py"), "import util\n\ndef main():\n    util.run()\n")
	mustWriteFile(t, filepath.Join(root, "util.py"), "def run():\n    return 1\n")
	return root
}

// runCarto executes the root command with the given arguments and
// returns everything it printed to stdout. Failures are fatal.
func runCarto(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCommand("test")
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	return captureStdout(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("carto %s failed: %v", strings.Join(args, " "), err)
		}
	})
}

// runCartoErr executes the root command and returns its error without
// letting cobra print to the test output.
func runCartoErr(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand("test")
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func statusReport(t *testing.T, root string) StatusReport {
	t.Helper()
	out := runCarto(t, "status", root, "--json", "--quiet")
	var report StatusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("failed to decode status report: %v\noutput: %s", err, out)
	}
	return report
}

func cacheStats(t *testing.T) CacheStats {
	t.Helper()
	out := runCarto(t, "cache", "stats", "--json")
	var stats CacheStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("failed to decode cache stats: %v\noutput: %s", err, out)
	}
	return stats
}

func readIndexFile(t *testing.T, root string) index.Index {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, ".carto", encode.IndexFile))
	if err != nil {
		t.Fatalf("failed to read index artifact: %v", err)
	}
	var idx index.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatalf("failed to decode index artifact: %v", err)
	}
	return idx
}

func readArtifacts(t *testing.T, root string, names ...string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(root, ".carto", name))
		if err != nil {
			t.Fatalf("failed to read artifact %s: %v", name, err)
		}
		out[name] = data
	}
	return out
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read captured stdout: %v", err)
	}
	return string(data)
}

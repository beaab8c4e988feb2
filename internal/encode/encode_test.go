package encode

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carto-dev/carto/internal/index"
	"github.com/carto-dev/carto/internal/nav"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

func buildIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.Assemble(index.Input{
		Root: "/repo/demo",
		Records: []parse.FileRecord{
			{
				Path: "main.py", Language: "python", Lines: 4, Fingerprint: "f1",
				Imports:   []string{"./util", "requests"},
				Functions: []parse.FunctionEntry{{Name: "main", File: "main.py", Line: 3}},
			},
			{
				Path: "util.py", Language: "python", Lines: 8, Fingerprint: "f2",
				Functions: []parse.FunctionEntry{{Name: "helper", File: "util.py", Line: 6, Params: []string{"x"}}},
				Classes:   []parse.ClassEntry{{Name: "Util", File: "util.py", Line: 1, Methods: 2}},
			},
			{
				Path: "lib/extra.py", Language: "python", Lines: 2, Fingerprint: "f3",
				Imports:   []string{"util"},
				Functions: []parse.FunctionEntry{{Name: "wide", File: "lib/extra.py", Line: 1}},
			},
		},
		Edges: []resolve.Edge{
			{From: "main.py", Raw: "./util", To: "util.py", Confidence: resolve.ConfidenceExact},
			{From: "main.py", Raw: "requests", Confidence: resolve.ConfidenceUnresolved},
			{From: "lib/extra.py", Raw: "util", To: "util.py", Confidence: resolve.ConfidenceHeuristic},
		},
		Entries: []nav.EntryPoint{{
			Path:    "main.py",
			Reasons: []string{nav.ReasonNamePattern, nav.ReasonGraphShape},
			Detail:  `filename stem "main" is a conventional entry name; imports 2 file(s) but nothing imports it`,
		}},
		Paths: []nav.Path{{Label: nav.LabelEntryPath, Files: []string{"main.py", "util.py"}}},
	})
	require.NoError(t, err)
	return idx
}

func TestJSONIsStable(t *testing.T) {
	idx := buildIndex(t)

	first, err := JSON(idx)
	require.NoError(t, err)
	second, err := JSON(idx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(string(first), "\n"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(first, &decoded))
	assert.Equal(t, "/repo/demo", decoded["root"])
	assert.NotContains(t, decoded, "Graph")
}

func TestMarkdownSections(t *testing.T) {
	idx := buildIndex(t)
	report := string(Markdown(idx, Options{}))

	assert.Contains(t, report, "# Code Map: demo")
	assert.Contains(t, report, "3 files, 14 lines, 3 functions, 1 classes")
	assert.Contains(t, report, "3 import edges: 2 resolved, 1 unresolved")
	assert.Contains(t, report, "- python: 3 files")
	assert.Contains(t, report, "## Key Files")
	assert.Contains(t, report, "- `util.py` (2 inbound)")
	assert.Contains(t, report, "## Entry Points")
	assert.Contains(t, report, "- `main.py` (name-pattern, graph-shape):")
	assert.Contains(t, report, "## Navigation Paths")
	assert.Contains(t, report, "`main.py` -> `util.py`")
	assert.Contains(t, report, "### `main.py`")
	assert.Contains(t, report, "- `helper(x)` line 6")
	assert.Contains(t, report, "- `Util` line 1, 2 methods")
	assert.Contains(t, report, "- `./util` -> `util.py`")
	assert.Contains(t, report, "- `requests` (unresolved)")
	assert.NotContains(t, report, "```python")
}

func TestMarkdownSnippets(t *testing.T) {
	idx := buildIndex(t)
	opts := Options{
		Snippets: true,
		Content: map[string][]byte{
			"main.py": []byte("import util\n\ndef main():\n    pass\n"),
		},
	}
	report := string(Markdown(idx, opts))

	assert.Contains(t, report, "```python\nimport util\n\ndef main():\n    pass\n")
}

func TestCompactGolden(t *testing.T) {
	idx := buildIndex(t)

	want := strings.Join([]string{
		"files:",
		"lib/extra.py|python|fn:wide",
		"main.py|python|fn:main",
		"util.py|python|fn:helper|cls:Util",
		"edges:",
		"lib/extra.py>util.py",
		"main.py>util.py",
		"main.py>?requests",
		"entries:",
		"main.py",
		"",
	}, "\n")
	assert.Equal(t, want, string(Compact(idx)))
}

func TestDiagramGraphviz(t *testing.T) {
	idx := buildIndex(t)
	out, err := Diagram(idx, "graphviz", 0)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "digraph codemap {"))
	assert.Contains(t, text, `"main.py" -> "util.py";`)
	assert.Contains(t, text, `"lib/extra.py" -> "util.py";`)
	assert.NotContains(t, text, "requests")
}

func TestDiagramMermaidCapsNodesByDegree(t *testing.T) {
	idx := buildIndex(t)
	out, err := Diagram(idx, "mermaid", 2)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "graph LR"))
	assert.Contains(t, text, `n0["main.py"]`)
	assert.Contains(t, text, `n1["util.py"]`)
	assert.NotContains(t, text, "lib/extra.py")
	assert.Contains(t, text, "n0 --> n1")
}

func TestDiagramPlantUML(t *testing.T) {
	idx := buildIndex(t)
	out, err := Diagram(idx, "plantuml", 0)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "@startuml"))
	assert.True(t, strings.HasSuffix(text, "@enduml\n"))
	assert.Contains(t, text, `component "util.py"`)
}

func TestDiagramRejectsUnknownFormat(t *testing.T) {
	idx := buildIndex(t)
	_, err := Diagram(idx, "ascii", 0)
	require.Error(t, err)
}

func TestWriteAllTracksChanges(t *testing.T) {
	idx := buildIndex(t)
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	opts := Options{DiagramFormat: "mermaid"}
	artifacts, err := w.WriteAll(idx, FormatAll, opts)
	require.NoError(t, err)
	require.Len(t, artifacts, 4)

	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = filepath.Base(a.Path)
		assert.True(t, a.Changed, a.Path)
	}
	assert.Equal(t, []string{"index.json", "index.md", "index.compact.txt", "diagram.mmd"}, names)

	again, err := w.WriteAll(idx, FormatAll, opts)
	require.NoError(t, err)
	for _, a := range again {
		assert.False(t, a.Changed, a.Path)
	}
}

func TestWriteAllSkipsDiagramWhenNone(t *testing.T) {
	idx := buildIndex(t)
	w := NewWriter(t.TempDir(), nil)

	artifacts, err := w.WriteAll(idx, FormatAll, Options{DiagramFormat: "none"})
	require.NoError(t, err)
	assert.Len(t, artifacts, 3)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}

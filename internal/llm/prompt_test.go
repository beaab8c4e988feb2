package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carto-dev/carto/internal/index"
	"github.com/carto-dev/carto/internal/nav"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

func promptIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.Assemble(index.Input{
		Root: "/repo/sample",
		Records: []parse.FileRecord{
			{Path: "core/api.py", Language: "python", Lines: 30, Fingerprint: "a",
				Imports:   []string{".db"},
				Functions: []parse.FunctionEntry{{Name: "serve", File: "core/api.py", Line: 3}}},
			{Path: "core/db.py", Language: "python", Lines: 20, Fingerprint: "b",
				Classes: []parse.ClassEntry{{Name: "Store", File: "core/db.py", Line: 1, Methods: 3}}},
			{Path: "main.py", Language: "python", Lines: 10, Fingerprint: "c",
				Imports: []string{"core.db", "flask"}},
			{Path: "tools/gen.py", Language: "python", Lines: 5, Fingerprint: "d"},
		},
		Edges: []resolve.Edge{
			{From: "core/api.py", Raw: ".db", To: "core/db.py", Confidence: resolve.ConfidenceExact},
			{From: "main.py", Raw: "core.db", To: "core/db.py", Confidence: resolve.ConfidenceHeuristic},
			{From: "main.py", Raw: "flask", Confidence: resolve.ConfidenceUnresolved},
		},
		Entries: []nav.EntryPoint{{Path: "main.py", Reasons: []string{nav.ReasonNamePattern}, Detail: "conventional entry name"}},
	})
	require.NoError(t, err)
	return idx
}

func TestBuildPromptIncludesStructure(t *testing.T) {
	idx := promptIndex(t)
	prompt, err := BuildPrompt(PromptInput{Index: idx, Mode: "overview", Reasoning: 5})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Repository: sample")
	assert.Contains(t, prompt, "4 files")
	assert.Contains(t, prompt, "- main.py (name-pattern): conventional entry name")
	assert.Contains(t, prompt, "- core/db.py (2)")
	assert.Contains(t, prompt, "core/api.py|python|fn:serve")
	assert.Contains(t, prompt, "core/db.py|python|cls:Store")
	assert.Contains(t, prompt, "main.py>core/db.py")
	assert.Contains(t, prompt, "main.py>?flask")
	assert.Contains(t, prompt, "Summarize what this codebase is")
	assert.Contains(t, prompt, "moderately detailed")
	assert.NotContains(t, prompt, "Focus:")
}

func TestBuildPromptModeSelectsInstruction(t *testing.T) {
	idx := promptIndex(t)

	prompt, err := BuildPrompt(PromptInput{Index: idx, Mode: "flows", Reasoning: 9})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Trace the main execution flows")
	assert.Contains(t, prompt, "thorough commentary")

	_, err = BuildPrompt(PromptInput{Index: idx, Mode: "deep", Reasoning: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown analysis mode")
}

func TestBuildPromptFocusNarrowsWithNeighbors(t *testing.T) {
	idx := promptIndex(t)
	prompt, err := BuildPrompt(PromptInput{Index: idx, Mode: "components", Focus: "core", Reasoning: 1})
	require.NoError(t, err)

	// The core subtree plus main.py, which imports into it. The isolated
	// tools file stays out.
	assert.Contains(t, prompt, "core/api.py|python")
	assert.Contains(t, prompt, "core/db.py|python")
	assert.Contains(t, prompt, "main.py|python")
	assert.NotContains(t, prompt, "tools/gen.py")
	assert.Contains(t, prompt, "Focus: center the commentary on core")
	assert.Contains(t, prompt, "Keep the commentary brief")
}

func TestBuildPromptExcerptsBoundedByEntryOrder(t *testing.T) {
	idx := promptIndex(t)
	long := strings.Repeat("x = 1\n", 40)
	prompt, err := BuildPrompt(PromptInput{
		Index:     idx,
		Mode:      "overview",
		Reasoning: 5,
		Content: map[string][]byte{
			"main.py":    []byte("import core.db\nimport flask\napp = flask.Flask(__name__)\n"),
			"core/db.py": []byte(long),
		},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Source excerpts:")
	// Entry point first, then the most referenced file.
	mainAt := strings.Index(prompt, "--- main.py ---")
	dbAt := strings.Index(prompt, "--- core/db.py ---")
	require.GreaterOrEqual(t, mainAt, 0)
	require.GreaterOrEqual(t, dbAt, 0)
	assert.Less(t, mainAt, dbAt)
	assert.Contains(t, prompt, "app = flask.Flask(__name__)")
	assert.Contains(t, prompt, "(22 lines elided)")
}

func TestBuildPromptOmitsExcerptsWithoutContent(t *testing.T) {
	idx := promptIndex(t)
	prompt, err := BuildPrompt(PromptInput{Index: idx, Mode: "overview", Reasoning: 5})
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Source excerpts:")
}

func TestBuildPromptFocusMustMatch(t *testing.T) {
	idx := promptIndex(t)
	_, err := BuildPrompt(PromptInput{Index: idx, Mode: "overview", Focus: "missing/dir"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches no indexed files")
}

func TestBuildPromptDeterministic(t *testing.T) {
	idx := promptIndex(t)
	in := PromptInput{Index: idx, Mode: "architecture", Reasoning: 4}

	first, err := BuildPrompt(in)
	require.NoError(t, err)
	second, err := BuildPrompt(in)
	require.NoError(t, err)
	assert.True(t, strings.Compare(first, second) == 0)
}

package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carto-dev/carto/internal/nav"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

func sampleInput() Input {
	return Input{
		Root: "/tmp/tree",
		Records: []parse.FileRecord{
			{Path: "util.py", Language: "python", Lines: 10, Functions: []parse.FunctionEntry{{Name: "helper", File: "util.py", Line: 1}}},
			{Path: "main.py", Language: "python", Lines: 20, Imports: []string{"util", "requests"}},
			{Path: "README.md", Language: "markdown", Lines: 5},
		},
		Edges: []resolve.Edge{
			{From: "main.py", Raw: "util", To: "util.py", Confidence: resolve.ConfidenceHeuristic},
			{From: "main.py", Raw: "requests", Confidence: resolve.ConfidenceUnresolved},
		},
		Entries: []nav.EntryPoint{
			{Path: "main.py", Reasons: []string{nav.ReasonNamePattern, nav.ReasonGraphShape}, Detail: "conventional entry name"},
		},
		Paths: []nav.Path{
			{Label: nav.LabelEntryPath, Files: []string{"main.py", "util.py"}},
		},
		Issues: []parse.Issue{
			{File: "util.py", Language: "python", Severity: parse.SeverityWarning, Message: "truncated read"},
		},
	}
}

func TestAssembleFreezesDeterministically(t *testing.T) {
	idx, err := Assemble(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "main.py", "util.py"}, []string{idx.Files[0].Path, idx.Files[1].Path, idx.Files[2].Path})
	assert.Equal(t, 3, idx.Stats.Files)
	assert.Equal(t, 35, idx.Stats.Lines)
	assert.Equal(t, 1, idx.Stats.Functions)
	assert.Equal(t, 2, idx.Stats.Edges)
	assert.Equal(t, 1, idx.Stats.Resolved)
	assert.Equal(t, 1, idx.Stats.Unresolved)
	assert.Equal(t, 1, idx.Stats.Degraded)
	assert.Equal(t, map[string]int{"python": 2, "markdown": 1}, idx.Stats.Languages)

	require.NotNil(t, idx.Graph)
	assert.Equal(t, 1, idx.Graph.InDegree("util.py"))

	// identical input serializes byte-identically
	first, err := json.Marshal(idx)
	require.NoError(t, err)
	again, err := Assemble(sampleInput())
	require.NoError(t, err)
	second, err := json.Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssembleRejectsDuplicatePaths(t *testing.T) {
	in := sampleInput()
	in.Records = append(in.Records, parse.FileRecord{Path: "main.py", Language: "python"})

	_, err := Assemble(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "main.py")
}

func TestAssembleRejectsDanglingEdges(t *testing.T) {
	in := sampleInput()
	in.Edges = append(in.Edges, resolve.Edge{From: "ghost.py", Raw: "util", To: "util.py", Confidence: resolve.ConfidenceHeuristic})
	_, err := Assemble(in)
	assert.ErrorIs(t, err, ErrInvariant)

	in = sampleInput()
	in.Edges = append(in.Edges, resolve.Edge{From: "main.py", Raw: "gone", To: "gone.py", Confidence: resolve.ConfidenceExact})
	_, err = Assemble(in)
	assert.ErrorIs(t, err, ErrInvariant)

	in = sampleInput()
	in.Edges = append(in.Edges, resolve.Edge{From: "main.py", Raw: "x", To: "util.py", Confidence: resolve.ConfidenceUnresolved})
	_, err = Assemble(in)
	assert.ErrorIs(t, err, ErrInvariant, "unresolved edges must not carry targets")
}

func TestAssembleRejectsUnknownEntryAndPathMembers(t *testing.T) {
	in := sampleInput()
	in.Entries = append(in.Entries, nav.EntryPoint{Path: "ghost.py"})
	_, err := Assemble(in)
	assert.ErrorIs(t, err, ErrInvariant)

	in = sampleInput()
	in.Paths = append(in.Paths, nav.Path{Label: nav.LabelIsolated, Files: []string{"ghost.py"}})
	_, err = Assemble(in)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestRecordLookup(t *testing.T) {
	idx, err := Assemble(sampleInput())
	require.NoError(t, err)

	rec := idx.Record("main.py")
	require.NotNil(t, rec)
	assert.Equal(t, "python", rec.Language)
	assert.Nil(t, idx.Record("missing.py"))
}

package graph

import (
	"reflect"
	"testing"

	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
)

func record(path string) parse.FileRecord {
	return parse.FileRecord{Path: path, Language: "python"}
}

func TestBuildComputesDegreesFromEdges(t *testing.T) {
	records := []parse.FileRecord{record("a.py"), record("b.py"), record("c.py")}
	edges := []resolve.Edge{
		{From: "a.py", Raw: "b", To: "b.py", Confidence: resolve.ConfidenceHeuristic},
		{From: "a.py", Raw: "b.helper", To: "b.py", Confidence: resolve.ConfidenceHeuristic},
		{From: "b.py", Raw: "a", To: "a.py", Confidence: resolve.ConfidenceHeuristic},
	}

	g := Build(records, edges)

	if got := g.InDegree("b.py"); got != 2 {
		t.Fatalf("expected in-degree 2 for b.py (parallel edges count), got %d", got)
	}
	if got := g.OutDegree("a.py"); got != 2 {
		t.Fatalf("expected out-degree 2 for a.py, got %d", got)
	}
	if got := g.Out("a.py"); !reflect.DeepEqual(got, []string{"b.py"}) {
		t.Fatalf("expected deduped neighbor list [b.py], got %v", got)
	}

	// mutual imports are representable, both ends keep nonzero degrees
	if g.InDegree("a.py") < 1 || g.OutDegree("b.py") < 1 {
		t.Fatalf("cycle endpoints lost degrees: in(a)=%d out(b)=%d", g.InDegree("a.py"), g.OutDegree("b.py"))
	}
	if got := g.InDegree("c.py"); got != 0 {
		t.Fatalf("expected in-degree 0 for untouched file, got %d", got)
	}
}

func TestUnresolvedEdgesStayOutOfAdjacency(t *testing.T) {
	records := []parse.FileRecord{record("a.py")}
	edges := []resolve.Edge{
		{From: "a.py", Raw: "requests", Confidence: resolve.ConfidenceUnresolved},
	}

	g := Build(records, edges)

	if len(g.Edges) != 1 {
		t.Fatalf("expected unresolved edge retained, got %d edges", len(g.Edges))
	}
	if got := g.OutDegree("a.py"); got != 0 {
		t.Fatalf("expected unresolved edge excluded from out-degree, got %d", got)
	}
	if got := g.Out("a.py"); len(got) != 0 {
		t.Fatalf("expected no resolved neighbors, got %v", got)
	}
}

func TestMostReferencedOrdersByInDegreeThenPath(t *testing.T) {
	records := []parse.FileRecord{
		record("app.py"), record("util.py"), record("db.py"), record("log.py"),
	}
	edges := []resolve.Edge{
		{From: "app.py", Raw: "util", To: "util.py", Confidence: resolve.ConfidenceHeuristic},
		{From: "db.py", Raw: "util", To: "util.py", Confidence: resolve.ConfidenceHeuristic},
		{From: "app.py", Raw: "db", To: "db.py", Confidence: resolve.ConfidenceHeuristic},
		{From: "app.py", Raw: "log", To: "log.py", Confidence: resolve.ConfidenceHeuristic},
	}

	g := Build(records, edges)

	got := g.MostReferenced(10)
	want := []string{"util.py", "db.py", "log.py"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := g.MostReferenced(1); !reflect.DeepEqual(got, []string{"util.py"}) {
		t.Fatalf("expected capped list [util.py], got %v", got)
	}
}

func TestComponentsSplitConnectedClusters(t *testing.T) {
	records := []parse.FileRecord{
		record("a.py"), record("b.py"),
		record("x.py"), record("y.py"),
		record("lone.py"),
	}
	edges := []resolve.Edge{
		{From: "a.py", Raw: "b", To: "b.py", Confidence: resolve.ConfidenceHeuristic},
		{From: "y.py", Raw: "x", To: "x.py", Confidence: resolve.ConfidenceHeuristic},
	}

	g := Build(records, edges)

	got := g.Components()
	want := [][]string{
		{"a.py", "b.py"},
		{"lone.py"},
		{"x.py", "y.py"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected components %v, got %v", want, got)
	}
}

package encode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carto-dev/carto/internal/index"
)

const defaultDiagramCap = 30

// Diagram renders the file graph as graphviz, mermaid or plantuml text.
// Nodes are capped highest-degree first; only resolved edges between kept
// nodes are drawn.
func Diagram(idx *index.Index, format string, nodeCap int) ([]byte, error) {
	nodes, edges := diagramGraph(idx, nodeCap)
	switch format {
	case "graphviz":
		return renderGraphviz(nodes, edges), nil
	case "mermaid":
		return renderMermaid(nodes, edges), nil
	case "plantuml":
		return renderPlantUML(nodes, edges), nil
	}
	return nil, fmt.Errorf("unknown diagram format %q (valid: graphviz, mermaid, plantuml)", format)
}

func diagramGraph(idx *index.Index, nodeCap int) ([]string, [][2]string) {
	if nodeCap <= 0 {
		nodeCap = defaultDiagramCap
	}
	paths := idx.Graph.Paths()
	sort.SliceStable(paths, func(i, j int) bool {
		di := idx.Graph.InDegree(paths[i]) + idx.Graph.OutDegree(paths[i])
		dj := idx.Graph.InDegree(paths[j]) + idx.Graph.OutDegree(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
	if len(paths) > nodeCap {
		paths = paths[:nodeCap]
	}
	kept := make(map[string]bool, len(paths))
	for _, p := range paths {
		kept[p] = true
	}

	nodes := append([]string(nil), paths...)
	sort.Strings(nodes)

	var edges [][2]string
	seen := make(map[[2]string]bool)
	for _, edge := range idx.Edges {
		if edge.To == "" || !kept[edge.From] || !kept[edge.To] {
			continue
		}
		pair := [2]string{edge.From, edge.To}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		edges = append(edges, pair)
	}
	return nodes, edges
}

func renderGraphviz(nodes []string, edges [][2]string) []byte {
	var b strings.Builder
	b.WriteString("digraph codemap {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontsize=10];\n")
	for _, node := range nodes {
		fmt.Fprintf(&b, "  %s;\n", quoteDot(node))
	}
	for _, edge := range edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", quoteDot(edge[0]), quoteDot(edge[1]))
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

func renderMermaid(nodes []string, edges [][2]string) []byte {
	ids := nodeIDs(nodes)
	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, node := range nodes {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", ids[node], node)
	}
	for _, edge := range edges {
		fmt.Fprintf(&b, "  %s --> %s\n", ids[edge[0]], ids[edge[1]])
	}
	return []byte(b.String())
}

func renderPlantUML(nodes []string, edges [][2]string) []byte {
	ids := nodeIDs(nodes)
	var b strings.Builder
	b.WriteString("@startuml\n")
	for _, node := range nodes {
		fmt.Fprintf(&b, "component \"%s\" as %s\n", node, ids[node])
	}
	for _, edge := range edges {
		fmt.Fprintf(&b, "%s --> %s\n", ids[edge[0]], ids[edge[1]])
	}
	b.WriteString("@enduml\n")
	return []byte(b.String())
}

// nodeIDs assigns short stable identifiers in sorted node order; paths
// contain characters mermaid and plantuml identifiers cannot carry.
func nodeIDs(nodes []string) map[string]string {
	ids := make(map[string]string, len(nodes))
	for i, node := range nodes {
		ids[node] = fmt.Sprintf("n%d", i)
	}
	return ids
}

func quoteDot(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

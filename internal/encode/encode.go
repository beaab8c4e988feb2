// Package encode renders a frozen index snapshot into the on-disk
// artifacts. Encoders only read the snapshot; none of them recompute
// graph facts.
package encode

import (
	"fmt"
	"path/filepath"

	"github.com/carto-dev/carto/internal/fileutil"
	"github.com/carto-dev/carto/internal/index"
	"github.com/carto-dev/carto/internal/logging"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCompact  Format = "compact"
	FormatDiagram  Format = "diagram"
	FormatAll      Format = "all"
)

// Artifact names under the output directory.
const (
	IndexFile    = "index.json"
	ReportFile   = "index.md"
	CompactFile  = "index.compact.txt"
	AnalysisFile = "analysis.md"
)

var diagramExt = map[string]string{
	"graphviz": ".dot",
	"mermaid":  ".mmd",
	"plantuml": ".puml",
}

// DiagramFile returns the artifact name for a diagram format.
func DiagramFile(format string) string {
	ext, ok := diagramExt[format]
	if !ok {
		ext = ".txt"
	}
	return "diagram" + ext
}

// Options tune the markdown and diagram encoders.
type Options struct {
	// Snippets adds fenced declaration excerpts to the markdown report.
	// Content supplies the raw bytes, keyed by record path.
	Snippets bool
	Content  map[string][]byte

	// DiagramFormat selects graphviz, mermaid or plantuml. Empty or
	// "none" skips the diagram artifact.
	DiagramFormat string
	// DiagramCap bounds diagram nodes, highest-degree first. Zero means
	// the default of 30.
	DiagramCap int
}

// Artifact is one written output file.
type Artifact struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
}

// Writer renders artifacts into a directory.
type Writer struct {
	dir string
	log logging.Logger
}

func NewWriter(dir string, log logging.Logger) *Writer {
	if log == nil {
		log = logging.Nop()
	}
	return &Writer{dir: dir, log: log}
}

// WriteAll writes the artifacts for the chosen format and reports each
// artifact with whether its content actually changed on disk.
func (w *Writer) WriteAll(idx *index.Index, format Format, opts Options) ([]Artifact, error) {
	var artifacts []Artifact

	write := func(name string, data []byte) error {
		path := filepath.Join(w.dir, name)
		changed, err := fileutil.WriteIfChangedTracked(path, data)
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		w.log.Debug("artifact %s (changed=%v)", path, changed)
		artifacts = append(artifacts, Artifact{Path: path, Changed: changed})
		return nil
	}

	wantJSON := format == FormatJSON || format == FormatAll
	wantMarkdown := format == FormatMarkdown || format == FormatAll
	wantCompact := format == FormatCompact || format == FormatAll
	wantDiagram := (format == FormatDiagram || format == FormatAll) &&
		opts.DiagramFormat != "" && opts.DiagramFormat != "none"

	if wantJSON {
		data, err := JSON(idx)
		if err != nil {
			return artifacts, err
		}
		if err := write(IndexFile, data); err != nil {
			return artifacts, err
		}
	}
	if wantMarkdown {
		if err := write(ReportFile, Markdown(idx, opts)); err != nil {
			return artifacts, err
		}
	}
	if wantCompact {
		if err := write(CompactFile, Compact(idx)); err != nil {
			return artifacts, err
		}
	}
	if wantDiagram {
		data, err := Diagram(idx, opts.DiagramFormat, opts.DiagramCap)
		if err != nil {
			return artifacts, err
		}
		if err := write(DiagramFile(opts.DiagramFormat), data); err != nil {
			return artifacts, err
		}
	}
	return artifacts, nil
}

// ParseFormat validates a --format value.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatMarkdown, FormatJSON, FormatCompact, FormatDiagram, FormatAll:
		return Format(value), nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (valid: markdown, json, compact, diagram, all)", value)
}

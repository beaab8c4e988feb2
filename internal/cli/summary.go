package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/carto-dev/carto/internal/fileutil"
	"github.com/carto-dev/carto/internal/run"
)

// RunSummary is the end-of-run report for index, analyze and watch
// rebuilds. With --json it goes to stdout verbatim.
type RunSummary struct {
	Mode       string              `json:"mode"`
	RunID      string              `json:"run_id"`
	Root       string              `json:"root"`
	OutputDir  string              `json:"output_dir,omitempty"`
	Format     string              `json:"format,omitempty"`
	Scanned    int                 `json:"scanned"`
	Parsed     int                 `json:"parsed"`
	Reused     int                 `json:"reused"`
	Degraded   int                 `json:"degraded"`
	Unknown    int                 `json:"unknown"`
	Excluded   int                 `json:"excluded"`
	Binary     int                 `json:"binary"`
	Capped     bool                `json:"capped,omitempty"`
	Lines      int                 `json:"lines"`
	Functions  int                 `json:"functions"`
	Classes    int                 `json:"classes"`
	Edges      int                 `json:"edges"`
	Resolved   int                 `json:"resolved_edges"`
	Entries    int                 `json:"entry_points"`
	Rewritten  int                 `json:"rewritten"`
	Artifacts  []string            `json:"artifacts,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
	DurationMS int64               `json:"duration_ms"`
	Phases     []run.PhaseDuration `json:"phases,omitempty"`
}

// PrintRunSummary writes the summary to stdout: indented JSON with
// --json, otherwise a short text block. Phase timings print only when
// verbose.
func PrintRunSummary(summary RunSummary, asJSON, verbose bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf("%s complete in %dms\n", summary.Mode, summary.DurationMS)
	if summary.OutputDir != "" {
		if summary.Format != "" {
			fmt.Printf("output: %s (%s)\n", summary.OutputDir, summary.Format)
		} else {
			fmt.Printf("output: %s\n", summary.OutputDir)
		}
	}
	fmt.Printf("files: scanned=%d parsed=%d reused=%d degraded=%d unknown=%d\n",
		summary.Scanned, summary.Parsed, summary.Reused, summary.Degraded, summary.Unknown)
	fmt.Printf("structure: %d lines, %d functions, %d classes\n",
		summary.Lines, summary.Functions, summary.Classes)
	fmt.Printf("graph: %d edges (%d resolved), %d entry points\n",
		summary.Edges, summary.Resolved, summary.Entries)
	if len(summary.Artifacts) > 0 {
		fmt.Printf("artifacts: %d written, %d rewritten\n", len(summary.Artifacts), summary.Rewritten)
	}
	if summary.Capped {
		fmt.Printf("note: file limit reached, the index covers a partial tree\n")
	}
	if len(summary.Warnings) > 0 {
		fmt.Printf("warnings (%d): %s\n", len(summary.Warnings), summarizeList(summary.Warnings, 5))
	}
	if verbose && len(summary.Phases) > 0 {
		parts := make([]string, len(summary.Phases))
		for i, phase := range summary.Phases {
			parts[i] = fmt.Sprintf("%s=%s", phase.Name, phase.Duration.Round(time.Millisecond))
		}
		fmt.Printf("phases: %s\n", strings.Join(parts, " "))
	}
	return nil
}

func summarizeList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, "; ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(items[:max], "; "), len(items)-max)
}

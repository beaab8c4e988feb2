package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/encode"
	"github.com/carto-dev/carto/internal/graph"
	"github.com/carto-dev/carto/internal/index"
	"github.com/carto-dev/carto/internal/nav"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/resolve"
	"github.com/carto-dev/carto/internal/run"
	"github.com/carto-dev/carto/internal/scanner"
)

// buildResult carries one pipeline run's outputs: the frozen snapshot,
// the raw phase results, and the written artifacts. Content holds the
// scanned bytes for snippet and prompt use.
type buildResult struct {
	Index     *index.Index
	Scan      *scanner.Result
	Parse     *parse.Result
	Artifacts []encode.Artifact
	Content   map[string][]byte
	OutputDir string
}

func RunIndex(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(g.configPath, root)
	if err != nil {
		return err
	}
	if err := applyIndexFlags(cmd, &cfg); err != nil {
		return err
	}
	if g.noCache {
		cfg.Cache.Disabled = true
	}
	log := newLogger(cfg, g)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rc := run.New(root, cfg, log)
	rc.Cache = openStore(cfg, log)
	defer rc.Close()

	prog := newProgress(g.asJSON, g.quiet)
	defer prog.Abort()

	result, err := BuildIndex(ctx, rc, prog)
	if err != nil {
		return err
	}
	prog.Done("indexed %d files", result.Index.Stats.Files)

	return PrintRunSummary(newRunSummary("index", rc, result), g.asJSON, g.verbose)
}

// BuildIndex runs the whole pipeline once against rc.Root and writes the
// artifacts for the configured format: scan, parse, resolve, graph, nav,
// assemble, encode, then the run state.
func BuildIndex(ctx context.Context, rc *run.Context, prog *progress) (*buildResult, error) {
	cfg := rc.Config

	prog.Step("scanning %s", rc.Root)
	stop := rc.Timer.Phase("scan")
	scanRes, err := scanner.Scan(ctx, rc.Root, scanner.Options{
		MaxFiles:       cfg.Scan.MaxFiles,
		MaxFileSize:    cfg.Scan.MaxFileSize,
		Excludes:       cfg.Scan.Exclude,
		Extensions:     cfg.Scan.Extensions,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		Logger:         rc.Log,
	})
	stop()
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if scanRes.Stats.Capped {
		rc.Warn("file limit %d reached, index covers a partial tree", cfg.Scan.MaxFiles)
	}

	inputs := make([]parse.Input, len(scanRes.Files))
	content := make(map[string][]byte, len(scanRes.Files))
	for i, f := range scanRes.Files {
		inputs[i] = parse.Input{Path: f.Path, Content: f.Content}
		content[f.Path] = f.Content
	}

	prog.Step("parsing %d files", len(inputs))
	stop = rc.Timer.Phase("parse")
	parseRes := parse.ParseAll(ctx, inputs, parse.Options{
		Workers: cfg.Scan.Workers,
		Cache:   parsePhaseCache(rc),
	})
	stop()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, issue := range parseRes.Issues {
		rc.Warn("%s: %s", issue.File, issue.Message)
	}

	prog.Step("resolving imports")
	stop = rc.Timer.Phase("resolve")
	resolver := resolve.New(recordPaths(parseRes.Records), func(p string) ([]byte, bool) {
		b, ok := content[p]
		return b, ok
	})
	edges := resolve.ResolveAll(ctx, resolver, parseRes.Records, cfg.Scan.Workers)
	stop()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop = rc.Timer.Phase("graph")
	fileGraph := graph.Build(parseRes.Records, edges)
	stop()

	stop = rc.Timer.Phase("nav")
	navOpts := nav.Options{
		EntryCap:   cfg.Nav.EntryCap,
		HopLimit:   cfg.Nav.HopLimit,
		ClusterCap: cfg.Nav.ClusterCap,
		Fanout:     cfg.Nav.Fanout,
	}
	entries := nav.InferEntryPoints(fileGraph, navOpts)
	navPaths := nav.Synthesize(fileGraph, entries, navOpts)
	stop()

	prog.Step("assembling index")
	stop = rc.Timer.Phase("assemble")
	idx, err := index.Assemble(index.Input{
		Root:    rc.Root,
		Records: parseRes.Records,
		Edges:   edges,
		Entries: entries,
		Paths:   navPaths,
		Issues:  parseRes.Issues,
	})
	stop()
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	prog.Step("writing artifacts")
	outDir := artifactDir(rc.Root, cfg)
	stop = rc.Timer.Phase("encode")
	writer := encode.NewWriter(outDir, rc.Log)
	artifacts, err := writer.WriteAll(idx, encode.Format(cfg.Output.Format), encode.Options{
		Snippets:      cfg.Output.Snippets,
		Content:       content,
		DiagramFormat: cfg.Output.Diagram,
	})
	stop()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	result := &buildResult{
		Index:     idx,
		Scan:      scanRes,
		Parse:     parseRes,
		Artifacts: artifacts,
		Content:   content,
		OutputDir: outDir,
	}
	if err := persistState(rc, result); err != nil {
		rc.Warn("cannot persist run state: %v", err)
	}

	rc.Log.Info("indexed %d files in %s (run %s)",
		idx.Stats.Files, rc.Elapsed().Round(time.Millisecond), rc.ID)
	return result, nil
}

func recordPaths(records []parse.FileRecord) []string {
	paths := make([]string, len(records))
	for i := range records {
		paths[i] = records[i].Path
	}
	return paths
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/fileutil"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/scanner"
	"github.com/carto-dev/carto/internal/state"
)

// StatusReport is what carto status prints: configuration, cache
// footprint, and how far the tree has drifted from the last index run.
type StatusReport struct {
	Root             string   `json:"root"`
	ConfigSource     string   `json:"config_source,omitempty"`
	OutputDir        string   `json:"output_dir"`
	LastIndexed      string   `json:"last_indexed,omitempty"`
	CacheDir         string   `json:"cache_dir"`
	CacheSizeBytes   int64    `json:"cache_size_bytes"`
	Tracked          int      `json:"tracked"`
	OnDisk           int      `json:"on_disk"`
	Changed          int      `json:"changed"`
	Deleted          int      `json:"deleted"`
	Fresh            bool     `json:"fresh"`
	ChangedFiles     []string `json:"changed_files,omitempty"`
	DeletedFiles     []string `json:"deleted_files,omitempty"`
	MissingArtifacts []string `json:"missing_artifacts,omitempty"`
}

func RunStatus(cmd *cobra.Command, args []string) error {
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
	log := newLogger(cfg, g)

	outDir := artifactDir(root, cfg)
	st, err := state.Load(outDir)
	if err != nil {
		if !IsCorruptStateError(err) {
			return fmt.Errorf("load run state: %w", err)
		}
		log.Warn("corrupt state file under %s, treating the tree as never indexed: %v", outDir, err)
		st = state.New()
	}

	scanRes, err := scanner.Scan(context.Background(), root, scanner.Options{
		MaxFiles:       cfg.Scan.MaxFiles,
		MaxFileSize:    cfg.Scan.MaxFileSize,
		Excludes:       cfg.Scan.Exclude,
		Extensions:     cfg.Scan.Extensions,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	current := make(map[string]string, len(scanRes.Files))
	for _, f := range scanRes.Files {
		current[f.Path] = parse.Fingerprint(f.Content)
	}
	changed, deleted := st.Diff(current)

	var missing []string
	for _, name := range st.Artifacts {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			missing = append(missing, name)
		}
	}

	cacheDir := cacheBaseDir(cfg)
	cacheSize, err := fileutil.DirSize(cacheDir)
	if err != nil {
		log.Warn("cannot size cache at %s: %v", cacheDir, err)
	}

	report := StatusReport{
		Root:             root,
		ConfigSource:     cfg.Source,
		OutputDir:        outDir,
		CacheDir:         cacheDir,
		CacheSizeBytes:   cacheSize,
		Tracked:          len(st.Files),
		OnDisk:           len(scanRes.Files),
		Changed:          len(changed),
		Deleted:          len(deleted),
		Fresh:            !st.UpdatedAt.IsZero() && len(changed) == 0 && len(deleted) == 0 && len(missing) == 0,
		ChangedFiles:     changed,
		DeletedFiles:     deleted,
		MissingArtifacts: missing,
	}
	if !st.UpdatedAt.IsZero() {
		report.LastIndexed = st.UpdatedAt.UTC().Format(time.RFC3339)
	}

	if g.asJSON {
		return fileutil.PrintJSON(report)
	}
	printStatusReport(report)
	return nil
}

func printStatusReport(report StatusReport) {
	fmt.Printf("root: %s\n", report.Root)
	if report.ConfigSource != "" {
		fmt.Printf("config: %s\n", report.ConfigSource)
	} else {
		fmt.Printf("config: built-in defaults\n")
	}
	if report.LastIndexed != "" {
		fmt.Printf("output: %s (last indexed %s)\n", report.OutputDir, report.LastIndexed)
	} else {
		fmt.Printf("output: %s (never indexed)\n", report.OutputDir)
	}
	fmt.Printf("cache: %s (%s)\n", report.CacheDir, formatBytes(report.CacheSizeBytes))
	fmt.Printf("files: %d on disk, %d tracked\n", report.OnDisk, report.Tracked)

	switch {
	case report.LastIndexed == "":
		fmt.Println("status: stale (never indexed)")
	case report.Fresh:
		fmt.Println("status: fresh")
	default:
		parts := []string{}
		if report.Changed > 0 {
			parts = append(parts, fmt.Sprintf("%d changed", report.Changed))
		}
		if report.Deleted > 0 {
			parts = append(parts, fmt.Sprintf("%d deleted", report.Deleted))
		}
		if len(report.MissingArtifacts) > 0 {
			parts = append(parts, fmt.Sprintf("%d missing artifacts", len(report.MissingArtifacts)))
		}
		fmt.Printf("status: stale (%s)\n", strings.Join(parts, ", "))
	}

	if len(report.ChangedFiles) > 0 {
		fmt.Printf("changed (%d): %s\n", len(report.ChangedFiles), summarizeList(report.ChangedFiles, 8))
	}
	if len(report.DeletedFiles) > 0 {
		fmt.Printf("deleted (%d): %s\n", len(report.DeletedFiles), summarizeList(report.DeletedFiles, 8))
	}
	if len(report.MissingArtifacts) > 0 {
		fmt.Printf("missing artifacts: %s\n", strings.Join(report.MissingArtifacts, ", "))
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

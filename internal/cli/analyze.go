package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/encode"
	"github.com/carto-dev/carto/internal/fileutil"
	"github.com/carto-dev/carto/internal/llm"
	"github.com/carto-dev/carto/internal/run"
)

// AnalyzeSummary is the --json report for an analyze run.
type AnalyzeSummary struct {
	Mode         string `json:"mode"`
	AnalysisMode string `json:"analysis_mode"`
	RunID        string `json:"run_id"`
	Root         string `json:"root"`
	Model        string `json:"model"`
	Focus        string `json:"focus,omitempty"`
	Files        int    `json:"files"`
	Cached       bool   `json:"cached"`
	AnalysisFile string `json:"analysis_file"`
	DurationMS   int64  `json:"duration_ms"`
}

func RunAnalyze(cmd *cobra.Command, args []string) error {
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
	if err := applyAnalyzeFlags(cmd, &cfg); err != nil {
		return err
	}
	if g.noCache {
		cfg.Cache.Disabled = true
	}
	focus, err := cmd.Flags().GetString("focus")
	if err != nil {
		return fmt.Errorf("failed to read --focus flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read --dry-run flag: %w", err)
	}
	if !dryRun && cfg.LLM.APIKey == "" {
		return fmt.Errorf("analysis needs an API key: set CARTO_API_KEY or OPENAI_API_KEY, or pass --dry-run")
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

	prompt, err := llm.BuildPrompt(llm.PromptInput{
		Index:     result.Index,
		Mode:      cfg.LLM.Mode,
		Focus:     focus,
		Reasoning: cfg.LLM.Reasoning,
		Content:   result.Content,
	})
	if err != nil {
		return err
	}

	if dryRun {
		prog.Done("prompt ready")
		fmt.Println(prompt)
		return nil
	}

	prog.Step("asking %s", cfg.LLM.Model)
	stop := rc.Timer.Phase("analyze")
	analysis, cached, err := runAnalysis(ctx, rc, prompt, result, focus)
	stop()
	if err != nil {
		return err
	}

	analysisPath := filepath.Join(result.OutputDir, encode.AnalysisFile)
	if err := fileutil.WriteIfChanged(analysisPath, []byte(fileutil.EnsureTrailingNewline(analysis))); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	prog.Done("analysis ready")

	if g.asJSON {
		return fileutil.PrintJSON(AnalyzeSummary{
			Mode:         "analyze",
			AnalysisMode: cfg.LLM.Mode,
			RunID:        rc.ID,
			Root:         rc.Root,
			Model:        cfg.LLM.Model,
			Focus:        focus,
			Files:        result.Index.Stats.Files,
			Cached:       cached,
			AnalysisFile: analysisPath,
			DurationMS:   rc.Elapsed().Milliseconds(),
		})
	}

	fmt.Println(analysis)
	log.Info("analysis written to %s", analysisPath)
	return nil
}

// runAnalysis returns the cached analysis for this snapshot when one
// exists, calling the model otherwise. The cache keys on everything that
// changes the answer, so any flag or content change misses.
func runAnalysis(ctx context.Context, rc *run.Context, prompt string, result *buildResult, focus string) (string, bool, error) {
	cfg := rc.Config
	digest := llm.SnapshotDigest(result.Index)
	key := llm.CacheKey(digest, cfg.LLM.Mode, focus, cfg.LLM.Model, cfg.LLM.Reasoning)
	cachePath := analysisCachePath(cfg)

	var store map[string]llm.Record
	if !cfg.Cache.Disabled {
		var err error
		store, err = llm.LoadCache(cachePath)
		if err != nil {
			rc.Warn("cannot read analysis cache: %v", err)
			store = make(map[string]llm.Record)
		}
		if rec, ok := store[key]; ok {
			rc.Log.Info("analysis cache hit (%s)", key)
			return rec.Analysis, true, nil
		}
	}

	client, err := llm.NewClient(cfg.LLM, rc.Log)
	if err != nil {
		return "", false, err
	}
	analysis, err := client.Complete(ctx, prompt)
	if err != nil {
		return "", false, err
	}

	if !cfg.Cache.Disabled {
		store[key] = llm.NewRecord(key, digest, cfg.LLM.Mode, focus, cfg.LLM.Model, cfg.LLM.Reasoning, analysis)
		if err := llm.WriteCache(cachePath, store); err != nil {
			rc.Warn("cannot persist analysis cache: %v", err)
		}
	}
	return analysis, false, nil
}

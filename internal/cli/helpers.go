package cli

import (
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/carto-dev/carto/internal/cache"
	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/fileutil"
	"github.com/carto-dev/carto/internal/llm"
	"github.com/carto-dev/carto/internal/logging"
	"github.com/carto-dev/carto/internal/parse"
	"github.com/carto-dev/carto/internal/run"
	"github.com/carto-dev/carto/internal/state"
)

// cacheBaseDir is the expanded cache root. The parse store and the
// analysis store live under it.
func cacheBaseDir(cfg config.Config) string {
	return fileutil.ExpandHome(cfg.Cache.Dir)
}

func parseCacheDir(cfg config.Config) string {
	return filepath.Join(cacheBaseDir(cfg), "parse")
}

func analysisCachePath(cfg config.Config) string {
	return filepath.Join(cacheBaseDir(cfg), llm.CacheFile)
}

// openStore opens the disk parse cache unless caching is disabled. Open
// failures degrade to a cold run.
func openStore(cfg config.Config, log logging.Logger) cache.Store {
	if cfg.Cache.Disabled {
		return nil
	}
	dir := parseCacheDir(cfg)
	store, err := cache.OpenDisk(dir)
	if err != nil {
		log.Warn("cannot open cache at %s, running cold: %v", dir, err)
		return nil
	}
	return store
}

// parsePhaseCache adapts the run's store to the parse pipeline's silent
// miss/no-op policy. A nil store runs the phase cold.
func parsePhaseCache(rc *run.Context) parse.Cache {
	if rc.Cache == nil {
		return nil
	}
	return cache.Silent{Store: rc.Cache}
}

// persistState records what this run indexed, so status can measure
// drift without re-running the pipeline.
func persistState(rc *run.Context, result *buildResult) error {
	st := state.New()
	st.RunID = rc.ID
	for i := range result.Index.Files {
		rec := &result.Index.Files[i]
		st.SetFile(rec.Path, rec.Fingerprint, rec.Language)
	}
	names := make([]string, 0, len(result.Artifacts))
	for _, artifact := range result.Artifacts {
		rel, err := filepath.Rel(result.OutputDir, artifact.Path)
		if err != nil {
			rel = artifact.Path
		}
		names = append(names, rel)
	}
	st.Artifacts = names
	return st.Save(result.OutputDir)
}

// IsCorruptStateError distinguishes a damaged state file, which status
// treats as never-indexed, from a real I/O failure.
func IsCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// newRunSummary folds the run context and pipeline result into the
// printable summary.
func newRunSummary(mode string, rc *run.Context, result *buildResult) RunSummary {
	rewritten := 0
	names := make([]string, 0, len(result.Artifacts))
	for _, artifact := range result.Artifacts {
		if artifact.Changed {
			rewritten++
		}
		names = append(names, filepath.Base(artifact.Path))
	}

	stats := result.Index.Stats
	return RunSummary{
		Mode:       mode,
		RunID:      rc.ID,
		Root:       rc.Root,
		OutputDir:  result.OutputDir,
		Format:     rc.Config.Output.Format,
		Scanned:    result.Parse.Stats.Scanned,
		Parsed:     result.Parse.Stats.Parsed,
		Reused:     result.Parse.Stats.Reused,
		Degraded:   result.Parse.Stats.Degraded,
		Unknown:    result.Parse.Stats.Unknown,
		Excluded:   result.Scan.Stats.Excluded,
		Binary:     result.Scan.Stats.Binary,
		Capped:     result.Scan.Stats.Capped,
		Lines:      stats.Lines,
		Functions:  stats.Functions,
		Classes:    stats.Classes,
		Edges:      stats.Edges,
		Resolved:   stats.Resolved,
		Entries:    len(result.Index.Entries),
		Rewritten:  rewritten,
		Artifacts:  names,
		Warnings:   rc.Warnings(),
		DurationMS: rc.Elapsed().Milliseconds(),
		Phases:     rc.Timer.Durations(),
	}
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/run"
	"github.com/carto-dev/carto/internal/scanner"
	"github.com/carto-dev/carto/internal/watch"
)

// RunWatch indexes once, then reindexes whenever the tree settles after a
// change. The parse store stays open for the whole session so rebuilds
// reuse each other's work.
func RunWatch(cmd *cobra.Command, args []string) error {
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
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to read --debounce flag: %w", err)
	}
	log := newLogger(cfg, g)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := openStore(cfg, log)
	if store != nil {
		defer store.Close()
	}

	rebuild := func(ctx context.Context) error {
		rc := run.New(root, cfg, log)
		rc.Cache = store
		prog := newProgress(g.asJSON, g.quiet)
		defer prog.Abort()

		result, err := BuildIndex(ctx, rc, prog)
		if err != nil {
			return err
		}
		prog.Done("indexed %d files", result.Index.Stats.Files)
		return PrintRunSummary(newRunSummary("watch", rc, result), g.asJSON, g.verbose)
	}

	if err := rebuild(ctx); err != nil {
		return err
	}

	rules := scanner.LoadRules(root, cfg.Scan.Exclude, log)
	return watch.Watch(ctx, root, watch.Options{
		Debounce: debounce,
		Rules:    rules,
		Logger:   log,
	}, rebuild)
}

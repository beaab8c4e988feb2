// Package cli wires the pipeline stages into the carto command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/watch"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carto",
		Short: "Map a source tree into an LLM-ready structural index",
		Long: `Carto walks a repository, extracts its structure - files, functions,
classes, and import edges - and writes compact artifacts that give
language models a map of the codebase without shipping every line.

Artifacts land in .carto/ inside the scan root and can be
version-controlled.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: .carto.{json,yaml,yml,toml} in the scan root)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Only log errors")
	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable summaries")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Skip the parse and analysis caches")

	indexCmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a source tree and write the artifacts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunIndex,
	}
	addIndexFlags(indexCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Index a source tree and ask a model to describe it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunAnalyze,
	}
	addIndexFlags(analyzeCmd)
	analyzeCmd.Flags().String("mode", "", "Analysis mode: overview|components|architecture|flows")
	analyzeCmd.Flags().String("focus", "", "Center the commentary on one path and its graph neighbors")
	analyzeCmd.Flags().String("model", "", "Model name")
	analyzeCmd.Flags().String("base-url", "", "OpenAI-compatible endpoint")
	analyzeCmd.Flags().Int("reasoning", 0, "Commentary depth, 0..9")
	analyzeCmd.Flags().Bool("dry-run", false, "Print the prompt without calling the model")

	statusCmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Report configuration, cache size and artifact freshness",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunStatus,
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the parse and analysis caches",
	}
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached result",
			Args:  cobra.NoArgs,
			RunE:  RunCacheClear,
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache location, entry count and size",
			Args:  cobra.NoArgs,
			RunE:  RunCacheStats,
		},
	)

	watchCmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Reindex whenever the tree changes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunWatch,
	}
	addIndexFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Settle window before a rebuild")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("carto %s\n", version)
		},
	}

	rootCmd.AddCommand(
		indexCmd,
		analyzeCmd,
		statusCmd,
		cacheCmd,
		watchCmd,
		versionCmd,
	)

	return rootCmd
}

// addIndexFlags attaches the pipeline flags shared by index, analyze and
// watch. Defaults stay zero so only explicitly set flags override config.
func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Output format: markdown|json|compact|diagram|all")
	cmd.Flags().String("diagram", "", "Diagram format: none|graphviz|mermaid|plantuml")
	cmd.Flags().Bool("snippets", false, "Attach declaration snippets to the markdown report")
	cmd.Flags().Int("max-files", 0, "File count limit")
	cmd.Flags().Int64("max-file-size", 0, "Per-file byte limit")
	cmd.Flags().StringSlice("exclude", nil, "Extra exclusion globs")
	cmd.Flags().Bool("follow-symlinks", false, "Follow directory symlinks")
}
